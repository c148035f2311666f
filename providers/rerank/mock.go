package rerank

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Mock is a deterministic in-process Provider. By default it scores by query
// token overlap; tests can pin scores per document id or force failures.
type Mock struct {
	mu     sync.RWMutex
	scores map[string]float64
	err    error
}

// NewMock creates a mock rerank provider.
func NewMock() *Mock {
	return &Mock{scores: make(map[string]float64)}
}

func (m *Mock) Name() string { return "mock-reranker" }

// WithScore pins the score returned for a document id.
func (m *Mock) WithScore(id string, score float64) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[id] = score
	return m
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Score returns one result per document, sorted by score descending with
// ties broken by id so the output is fully deterministic.
func (m *Mock) Score(ctx context.Context, query string, docs []Document, topK int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	results := make([]Result, 0, len(docs))
	for _, d := range docs {
		score, ok := m.scores[d.ID]
		if !ok {
			score = overlapScore(query, d.Text)
		}
		results = append(results, Result{ID: d.ID, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func overlapScore(query, text string) float64 {
	qTokens := strings.Fields(strings.ToLower(query))
	if len(qTokens) == 0 {
		return 0
	}
	lowered := strings.ToLower(text)
	matched := 0
	for _, tok := range qTokens {
		if strings.Contains(lowered, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(qTokens))
}
