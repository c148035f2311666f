package embedding

import "context"

// Provider turns text into fixed-length vectors. Implementations are selected
// at construction time; callers never type-switch on the backend.
type Provider interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch embeds multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Name returns the provider name for logs and metrics.
	Name() string

	// Dimensions returns the embedding dimensionality.
	Dimensions() int
}
