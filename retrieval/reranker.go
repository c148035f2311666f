package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/providers/rerank"
	"github.com/epihelix/epihelix/types"
)

// RerankConfig bounds the second-pass scoring step.
type RerankConfig struct {
	// TopN is how many fused candidates are sent to the provider.
	// Cross-encoder scoring is expensive; candidates beyond TopN keep their
	// fused order and are appended after the reranked subset.
	TopN int `json:"top_n" yaml:"top_n"`

	// TextLength bounds the rendered candidate text sent per document.
	TextLength int `json:"text_length" yaml:"text_length"`
}

// DefaultRerankConfig returns the production defaults.
func DefaultRerankConfig() RerankConfig {
	return RerankConfig{TopN: 50, TextLength: 300}
}

// Reranker re-scores the fused top-N with a cross-encoder provider. Provider
// scores replace the fused score for the reranked subset. A provider failure
// is never fatal: the pre-rerank order is returned unchanged and the caller
// is told reranking was skipped.
type Reranker struct {
	provider rerank.Provider
	config   RerankConfig
	logger   *zap.Logger
}

// NewReranker creates a reranker over the given provider.
func NewReranker(provider rerank.Provider, config RerankConfig, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TopN <= 0 {
		config.TopN = DefaultRerankConfig().TopN
	}
	if config.TextLength <= 0 {
		config.TextLength = DefaultRerankConfig().TextLength
	}
	return &Reranker{
		provider: provider,
		config:   config,
		logger:   logger.With(zap.String("component", "reranker")),
	}
}

// Rerank returns the re-scored list and whether reranking was applied.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Candidate, topN int) ([]Candidate, bool) {
	if len(candidates) == 0 || r.provider == nil {
		return candidates, false
	}
	if topN <= 0 {
		topN = r.config.TopN
	}
	if topN > len(candidates) {
		topN = len(candidates)
	}

	head := candidates[:topN]
	docs := make([]rerank.Document, len(head))
	for i, c := range head {
		docs[i] = rerank.Document{ID: c.Entity.ID, Text: r.candidateText(&c.Entity)}
	}

	results, err := r.provider.Score(ctx, query, docs, len(docs))
	if err != nil {
		r.logger.Warn("rerank provider failed, keeping fused order",
			zap.Error(types.NewError(types.ErrRerankUnavailable, "rerank skipped").WithCause(err)))
		return candidates, false
	}

	scores := make(map[string]float64, len(results))
	for _, res := range results {
		scores[res.ID] = res.Score
	}

	reranked := make([]Candidate, len(head))
	copy(reranked, head)
	for i := range reranked {
		if score, ok := scores[reranked[i].Entity.ID]; ok {
			reranked[i].FusedScore = score
		}
	}
	sort.Slice(reranked, func(i, j int) bool {
		if reranked[i].FusedScore != reranked[j].FusedScore {
			return reranked[i].FusedScore > reranked[j].FusedScore
		}
		return reranked[i].Entity.ID < reranked[j].Entity.ID
	})

	out := make([]Candidate, 0, len(candidates))
	out = append(out, reranked...)
	out = append(out, candidates[topN:]...)

	r.logger.Debug("rerank done", zap.Int("rescored", len(reranked)), zap.Int("passthrough", len(candidates)-topN))
	return out, true
}

// candidateText renders the short (label + type + snippet) document the
// provider scores against the query.
func (r *Reranker) candidateText(e *types.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", e.Label, e.Type)
	if snippet := e.Snippet(r.config.TextLength); snippet != "" {
		b.WriteString(". ")
		b.WriteString(snippet)
	}
	return b.String()
}
