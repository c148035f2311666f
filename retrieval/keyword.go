package retrieval

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/kg"
	"github.com/epihelix/epihelix/types"
)

// Field weights for lexical scoring. A query token found in the label or id
// counts full; one found only in description-like properties counts half.
const (
	labelFieldWeight    = 1.0
	propertyFieldWeight = 0.5
)

// keywordPoolFactor controls how many store matches are scored per requested
// result. Scoring is cheap; over-fetching keeps ranking stable when the
// store's own match order differs from lexical relevance.
const keywordPoolFactor = 3

// KeywordRetriever performs token-overlap search over entity labels, ids,
// and description-like properties.
type KeywordRetriever struct {
	store  kg.Store
	logger *zap.Logger
}

// NewKeywordRetriever creates a keyword retriever over the given store.
func NewKeywordRetriever(store kg.Store, logger *zap.Logger) *KeywordRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordRetriever{
		store:  store,
		logger: logger.With(zap.String("component", "keyword_retriever")),
	}
}

// Search returns up to limit candidates scored by normalized lexical
// relevance. An empty result is not an error; a store failure is a
// RETRIEVAL_ERROR.
func (r *KeywordRetriever) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return []Candidate{}, nil
	}

	entities, err := r.store.FindByKeyword(ctx, query, limit*keywordPoolFactor)
	if err != nil {
		return nil, types.NewError(types.ErrRetrieval, "keyword search: entity store unreachable").WithCause(err)
	}

	candidates := make([]Candidate, 0, len(entities))
	for _, e := range entities {
		score := lexicalScore(&e, tokens)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Entity:       e,
			LexicalScore: Float(score),
			FusedScore:   score,
			Source:       SourceKeyword,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FusedScore != candidates[j].FusedScore {
			return candidates[i].FusedScore > candidates[j].FusedScore
		}
		return candidates[i].Entity.ID < candidates[j].Entity.ID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	r.logger.Debug("keyword search done",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// lexicalScore is the field-weighted fraction of query tokens matched,
// normalized to [0, 1]. Label and id matches outweigh property matches.
func lexicalScore(e *types.Entity, tokens []string) float64 {
	labelText := strings.ToLower(e.Label) + " " + strings.ToLower(e.ID)
	propText := strings.ToLower(e.Description())

	var sum float64
	for _, tok := range tokens {
		switch {
		case strings.Contains(labelText, tok):
			sum += labelFieldWeight
		case propText != "" && strings.Contains(propText, tok):
			sum += propertyFieldWeight
		}
	}
	return sum / float64(len(tokens))
}
