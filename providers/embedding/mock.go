package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// Mock is a deterministic in-process Provider. By default it derives a stable
// pseudo-embedding from the text's tokens, so identical texts always map to
// identical vectors. Tests can pin exact vectors per text or force failures.
type Mock struct {
	mu      sync.RWMutex
	dims    int
	vectors map[string][]float64
	err     error
}

// NewMock creates a mock provider with the given dimensionality.
func NewMock(dims int) *Mock {
	if dims <= 0 {
		dims = 8
	}
	return &Mock{dims: dims, vectors: make(map[string][]float64)}
}

func (m *Mock) Name() string    { return "mock-embedder" }
func (m *Mock) Dimensions() int { return m.dims }

// WithVector pins the embedding returned for an exact text.
func (m *Mock) WithVector(text string, vec []float64) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vec
	return m
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// EmbedQuery embeds a single query string.
func (m *Mock) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds multiple texts.
func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		if pinned, ok := m.vectors[t]; ok {
			out[i] = pinned
			continue
		}
		out[i] = m.synthesize(t)
	}
	return out, nil
}

// synthesize folds each token into a bucket of the output vector and
// normalizes to unit length, so token overlap yields cosine similarity.
func (m *Mock) synthesize(text string) []float64 {
	vec := make([]float64, m.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32())%m.dims] += 1.0
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1.0
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
