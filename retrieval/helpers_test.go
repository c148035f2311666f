package retrieval

import (
	"context"
	"errors"

	"github.com/epihelix/epihelix/types"
)

// failingStore simulates an unreachable graph database.
type failingStore struct{}

var errStoreDown = errors.New("bolt: connection refused")

func (failingStore) FindByKeyword(ctx context.Context, text string, limit int) ([]types.Entity, error) {
	return nil, errStoreDown
}

func (failingStore) GetByID(ctx context.Context, id string) (*types.Entity, error) {
	return nil, errStoreDown
}

func (failingStore) GetEmbeddings(ctx context.Context, ids []string) (map[string][]float64, error) {
	return nil, errStoreDown
}

func entityFixture(id string, typ types.EntityType, label string) types.Entity {
	return types.Entity{ID: id, Type: typ, Label: label}
}

func keywordCandidate(id string, score float64) Candidate {
	return Candidate{
		Entity:       entityFixture(id, types.EntityDisease, id),
		LexicalScore: Float(score),
		FusedScore:   score,
		Source:       SourceKeyword,
	}
}

func semanticCandidate(id string, score float64) Candidate {
	return Candidate{
		Entity:        entityFixture(id, types.EntityDisease, id),
		SemanticScore: Float(score),
		FusedScore:    score,
		Source:        SourceSemantic,
	}
}
