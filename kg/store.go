package kg

import (
	"context"

	"github.com/epihelix/epihelix/types"
)

// Store is the read-side contract of the knowledge graph. Implementations
// must be safe for concurrent use.
type Store interface {
	// FindByKeyword returns entities whose label, id, or description-like
	// properties match the given text. Matching is recall-oriented; relevance
	// scoring is the retriever's job. An empty result is not an error.
	FindByKeyword(ctx context.Context, text string, limit int) ([]types.Entity, error)

	// GetByID returns the entity with the given id, or a NOT_FOUND error.
	GetByID(ctx context.Context, id string) (*types.Entity, error)

	// GetEmbeddings returns the cached embeddings for the given ids. A nil or
	// empty ids slice returns embeddings for every enriched entity. Entities
	// without a cached embedding are absent from the result.
	GetEmbeddings(ctx context.Context, ids []string) (map[string][]float64, error)
}
