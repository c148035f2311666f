package rag

import (
	"github.com/epihelix/epihelix/retrieval"
	"github.com/epihelix/epihelix/types"
)

// State is where a pipeline run currently is. Runs are short-lived; the
// state exists for logs, metrics, and the terminal state reported in
// responses.
type State string

const (
	StateIdle            State = "idle"
	StateRetrieving      State = "retrieving"
	StateReranking       State = "reranking"
	StateContextBuilding State = "context_building"
	StateGenerating      State = "generating"
	StateComplete        State = "complete"
	// StatePartialComplete is a run whose generation failed after retrieval
	// succeeded: sources are returned without an answer.
	StatePartialComplete State = "partial_complete"
	// StateAborted is a run cancelled by the caller.
	StateAborted State = "aborted"
)

// SearchRequest is one search pipeline run.
type SearchRequest struct {
	Query    string `json:"query"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`

	// Semantic turns the semantic leg on for this request. It is further
	// gated by the deployment config.
	Semantic bool `json:"semantic"`

	// Rerank asks for cross-encoder reranking of the fused list.
	Rerank bool `json:"rerank"`

	// Summarize asks for a grounded summary of the top results.
	Summarize bool `json:"summarize"`
}

// SearchResponse is the ranked, paginated result of a search run.
type SearchResponse struct {
	Page    retrieval.Page `json:"page"`
	Summary string         `json:"summary,omitempty"`
	State   State          `json:"state"`

	// SemanticDegraded reports that the semantic leg failed and the results
	// are keyword-only.
	SemanticDegraded bool `json:"semantic_degraded"`

	// RerankSkipped reports that reranking was requested but the provider
	// failed, so the fused order stands.
	RerankSkipped bool `json:"rerank_skipped"`

	// GenerationFailed reports that the requested summary could not be
	// generated; results are unaffected.
	GenerationFailed bool `json:"generation_failed"`
}

// ChatRequest is one conversational turn.
type ChatRequest struct {
	Message        string `json:"message"`
	SessionID      string `json:"session_id"`
	IncludeHistory bool   `json:"include_history"`
}

// ChatResponse is the grounded answer for one turn.
type ChatResponse struct {
	SessionID string            `json:"session_id"`
	Answer    string            `json:"answer,omitempty"`
	Sources   []types.EntityRef `json:"sources"`
	State     State             `json:"state"`

	SemanticDegraded bool `json:"semantic_degraded"`
	GenerationFailed bool `json:"generation_failed"`
}

// SummaryRequest asks for a grounded summary of one entity.
type SummaryRequest struct {
	EntityID string `json:"entity_id"`

	// Query optionally focuses the summary.
	Query string `json:"query,omitempty"`

	// IncludeRelations folds the entity's graph edges into the context.
	IncludeRelations bool `json:"include_relations"`
}

// SummaryResponse is the generated entity summary.
type SummaryResponse struct {
	EntityID string          `json:"entity_id"`
	Summary  string          `json:"summary"`
	Source   types.EntityRef `json:"source"`
}
