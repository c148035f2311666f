package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/rag"
	"github.com/epihelix/epihelix/retrieval"
	"github.com/epihelix/epihelix/types"
)

const snippetLength = 200

// SearchHandler serves GET /search.
type SearchHandler struct {
	orch   *rag.Orchestrator
	logger *zap.Logger
}

// NewSearchHandler creates the search handler.
func NewSearchHandler(orch *rag.Orchestrator, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{orch: orch, logger: logger}
}

// SearchResult is one row of a search response.
type SearchResult struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Type    string  `json:"type"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
	Source  string  `json:"source"`
}

// SearchResponse is the paginated search payload.
type SearchResponse struct {
	Results  []SearchResult `json:"results"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasNext  bool           `json:"has_next"`
	HasPrev  bool           `json:"has_prev"`

	Summary string `json:"summary,omitempty"`

	SemanticDegraded bool `json:"semantic_degraded"`
	RerankSkipped    bool `json:"rerank_skipped"`
	GenerationFailed bool `json:"generation_failed"`
}

// Handle serves one search request.
//
// Query parameters: q (required), page, page_size, semantic (default true),
// rerank (default false), summarize (default false).
func (h *SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "missing query parameter: q"), h.logger)
		return
	}

	page, err := positiveQueryInt("page", q.Get("page"), 1)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	pageSize, err := positiveQueryInt("page_size", q.Get("page_size"), 0)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	req := &rag.SearchRequest{
		Query:     query,
		Page:      page,
		PageSize:  pageSize,
		Semantic:  queryBool(q.Get("semantic"), true),
		Rerank:    queryBool(q.Get("rerank"), false),
		Summarize: queryBool(q.Get("summarize"), false),
	}

	resp, err := h.orch.Search(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, toSearchResponse(resp))
}

func toSearchResponse(resp *rag.SearchResponse) *SearchResponse {
	out := &SearchResponse{
		Results:          make([]SearchResult, 0, len(resp.Page.Results)),
		Total:            resp.Page.Total,
		Page:             resp.Page.Page,
		PageSize:         resp.Page.PageSize,
		HasNext:          resp.Page.HasNext,
		HasPrev:          resp.Page.HasPrev,
		Summary:          resp.Summary,
		SemanticDegraded: resp.SemanticDegraded,
		RerankSkipped:    resp.RerankSkipped,
		GenerationFailed: resp.GenerationFailed,
	}
	for _, c := range resp.Page.Results {
		out.Results = append(out.Results, toSearchResult(c))
	}
	return out
}

func toSearchResult(c retrieval.Candidate) SearchResult {
	return SearchResult{
		ID:      c.Entity.ID,
		Label:   c.Entity.Label,
		Type:    string(c.Entity.Type),
		Score:   c.FusedScore,
		Snippet: c.Entity.Snippet(snippetLength),
		Source:  string(c.Source),
	}
}

// positiveQueryInt parses a 1-indexed pagination parameter. An absent
// parameter yields def; anything unparseable or below 1 is a client error.
func positiveQueryInt(name, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("%s must be a positive integer", name))
	}
	return v, nil
}

func queryBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
