package kg

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

// MemoryStore is an in-memory Store. It backs unit tests and the offline
// demo mode; production deployments point the pipeline at the graph query
// engine instead.
type MemoryStore struct {
	mu       sync.RWMutex
	entities map[string]types.Entity
	ids      []string // sorted, keeps iteration deterministic
	logger   *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		entities: make(map[string]types.Entity),
		logger:   logger.With(zap.String("component", "kg_memstore")),
	}
}

// Upsert adds or replaces entities by id.
func (s *MemoryStore) Upsert(entities ...types.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		if _, exists := s.entities[e.ID]; !exists {
			s.ids = append(s.ids, e.ID)
		}
		s.entities[e.ID] = e
	}
	sort.Strings(s.ids)
	s.logger.Debug("entities upserted", zap.Int("count", len(entities)), zap.Int("total", len(s.ids)))
}

// SetEmbedding attaches a cached embedding to an existing entity. This mirrors
// what the enrichment job does against the production graph.
func (s *MemoryStore) SetEmbedding(id string, embedding []float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return false
	}
	e.Embedding = embedding
	s.entities[id] = e
	return true
}

// FindByKeyword matches the lowercased text tokens against entity labels,
// ids, and description-like properties. Order is deterministic: entities
// sorted by id.
func (s *MemoryStore) FindByKeyword(ctx context.Context, text string, limit int) ([]types.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return []types.Entity{}, nil
	}

	matched := make([]types.Entity, 0, limit)
	for _, id := range s.ids {
		e := s.entities[id]
		if entityMatches(&e, tokens) {
			matched = append(matched, e)
			if limit > 0 && len(matched) >= limit {
				break
			}
		}
	}
	return matched, nil
}

// GetByID returns the entity with the given id.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*types.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "entity not found: "+id)
	}
	return &e, nil
}

// GetEmbeddings returns cached embeddings. A nil ids slice means all enriched
// entities.
func (s *MemoryStore) GetEmbeddings(ctx context.Context, ids []string) (map[string][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]float64)
	if len(ids) == 0 {
		for id, e := range s.entities {
			if e.Embedding != nil {
				out[id] = e.Embedding
			}
		}
		return out, nil
	}
	for _, id := range ids {
		if e, ok := s.entities[id]; ok && e.Embedding != nil {
			out[id] = e.Embedding
		}
	}
	return out, nil
}

// entityMatches reports whether any query token appears in the entity's
// searchable text (label, id, description-like properties).
func entityMatches(e *types.Entity, tokens []string) bool {
	haystack := strings.ToLower(e.Label) + " " + strings.ToLower(e.ID)
	if desc := e.Description(); desc != "" {
		haystack += " " + strings.ToLower(desc)
	}
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}
