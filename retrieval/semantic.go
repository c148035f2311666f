package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/kg"
	"github.com/epihelix/epihelix/providers/embedding"
	"github.com/epihelix/epihelix/types"
)

// SemanticRetriever scores the query embedding against every cached entity
// embedding. Embeddings are computed by the external enrichment job; on an
// unenriched deployment the retriever simply returns nothing.
type SemanticRetriever struct {
	store    kg.Store
	embedder embedding.Provider
	logger   *zap.Logger
}

// NewSemanticRetriever creates a semantic retriever.
func NewSemanticRetriever(store kg.Store, embedder embedding.Provider, logger *zap.Logger) *SemanticRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticRetriever{
		store:    store,
		embedder: embedder,
		logger:   logger.With(zap.String("component", "semantic_retriever")),
	}
}

// Search embeds the query once and returns the top limit entities by cosine
// similarity, ties broken by entity id ascending. An embedder failure is an
// EMBEDDING_UNAVAILABLE error, recoverable at the orchestrator by falling
// back to keyword-only results.
func (r *SemanticRetriever) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return []Candidate{}, nil
	}

	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, types.NewError(types.ErrEmbeddingUnavailable, "embedding provider failed").
			WithCause(err).WithProvider(r.embedder.Name())
	}

	embeddings, err := r.store.GetEmbeddings(ctx, nil)
	if err != nil {
		return nil, types.NewError(types.ErrRetrieval, "semantic search: entity store unreachable").WithCause(err)
	}
	if len(embeddings) == 0 {
		r.logger.Debug("no entity embeddings cached, semantic search returns nothing")
		return []Candidate{}, nil
	}

	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, len(embeddings))
	for id, vec := range embeddings {
		ranked = append(ranked, scored{id: id, score: cosineSimilarity(queryVec, vec)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	candidates := make([]Candidate, 0, len(ranked))
	for _, s := range ranked {
		e, err := r.store.GetByID(ctx, s.id)
		if err != nil {
			if types.IsCode(err, types.ErrNotFound) {
				// embedding cache can briefly outlive a deleted entity
				continue
			}
			return nil, types.NewError(types.ErrRetrieval, "semantic search: entity store unreachable").WithCause(err)
		}
		candidates = append(candidates, Candidate{
			Entity:        *e,
			SemanticScore: Float(s.score),
			FusedScore:    s.score,
			Source:        SourceSemantic,
		})
	}

	r.logger.Debug("semantic search done",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// cosineSimilarity returns 0 for mismatched or zero-norm vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
