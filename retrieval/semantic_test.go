package retrieval

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/kg"
	"github.com/epihelix/epihelix/providers/embedding"
	"github.com/epihelix/epihelix/types"
)

func TestSemanticSearchSurfacesParaphraseMatch(t *testing.T) {
	t.Parallel()

	// "flu-like illness spread 1918" shares no keyword with the label
	// "1918 Spanish Flu" apart from the year; the embedding space is what
	// must surface it.
	store := kg.SeededMemoryStore(zap.NewNop())
	store.SetEmbedding("spanish_flu_1918", []float64{0.95, 0.05, 0})
	store.SetEmbedding("covid19", []float64{0, 1, 0})
	store.SetEmbedding("malaria", []float64{0, 0, 1})

	query := "flu-like illness spread 1918"
	mock := embedding.NewMock(3).WithVector(query, []float64{1, 0, 0})
	r := NewSemanticRetriever(store, mock, zap.NewNop())

	got, err := r.Search(context.Background(), query, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].Entity.ID != "spanish_flu_1918" {
		t.Fatalf("expected spanish_flu_1918 first, got %s", got[0].Entity.ID)
	}
	if got[0].Entity.Label != "1918 Spanish Flu" {
		t.Errorf("unexpected label %q", got[0].Entity.Label)
	}
	if got[0].SemanticScore == nil || *got[0].SemanticScore <= *got[1].SemanticScore {
		t.Error("best match must strictly outscore the runner-up")
	}
	for _, c := range got {
		if c.Source != SourceSemantic {
			t.Errorf("candidate %s: source = %s, want semantic", c.Entity.ID, c.Source)
		}
	}
}

func TestSemanticSearchEmbedderFailure(t *testing.T) {
	t.Parallel()

	store := kg.SeededMemoryStore(zap.NewNop())
	store.SetEmbedding("covid19", []float64{1, 0, 0})

	mock := embedding.NewMock(3)
	mock.FailWith(errors.New("connection reset by peer"))
	r := NewSemanticRetriever(store, mock, zap.NewNop())

	_, err := r.Search(context.Background(), "pandemic", 5)
	if !types.IsCode(err, types.ErrEmbeddingUnavailable) {
		t.Fatalf("expected EMBEDDING_UNAVAILABLE, got %v", err)
	}
	var appErr *types.Error
	if !errors.As(err, &appErr) || appErr.Provider != "mock-embedder" {
		t.Errorf("error should name the provider, got %+v", err)
	}
}

func TestSemanticSearchUnenrichedStoreReturnsEmpty(t *testing.T) {
	t.Parallel()

	// Seeded store without SetEmbedding calls: no cached vectors at all.
	store := kg.SeededMemoryStore(zap.NewNop())
	r := NewSemanticRetriever(store, embedding.NewMock(3), zap.NewNop())

	got, err := r.Search(context.Background(), "pandemic", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result on unenriched store, got %d", len(got))
	}
}

func TestSemanticSearchStoreDownIsRetrievalError(t *testing.T) {
	t.Parallel()

	r := NewSemanticRetriever(failingStore{}, embedding.NewMock(3), zap.NewNop())
	_, err := r.Search(context.Background(), "pandemic", 5)
	if !types.IsCode(err, types.ErrRetrieval) {
		t.Fatalf("expected RETRIEVAL_ERROR, got %v", err)
	}
}

func TestSemanticSearchTieBreaksByID(t *testing.T) {
	t.Parallel()

	store := kg.SeededMemoryStore(zap.NewNop())
	store.SetEmbedding("covid19", []float64{1, 0, 0})
	store.SetEmbedding("cholera", []float64{1, 0, 0})

	query := "outbreak"
	mock := embedding.NewMock(3).WithVector(query, []float64{1, 0, 0})
	r := NewSemanticRetriever(store, mock, zap.NewNop())

	got, err := r.Search(context.Background(), query, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].Entity.ID != "cholera" || got[1].Entity.ID != "covid19" {
		t.Fatalf("equal scores must order by id: got %+v", got)
	}
}
