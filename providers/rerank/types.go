package rerank

import "context"

// Document is one (id, text) candidate sent for scoring.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Result is the relevance score assigned to one candidate.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Provider scores (query, candidate-text) pairs. Implementations are
// selected at construction time.
type Provider interface {
	// Score returns one result per input document, in provider-ranked order.
	// topK bounds how many results the provider returns; topK <= 0 means all.
	Score(ctx context.Context, query string, docs []Document, topK int) ([]Result, error)

	// Name returns the provider name for logs and metrics.
	Name() string
}
