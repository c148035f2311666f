package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

// MemoryConfig bounds the in-memory store.
type MemoryConfig struct {
	// TTL evicts sessions idle longer than this. Zero disables eviction.
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MaxMessages caps the history per session; older messages are dropped
	// first. Zero means unbounded.
	MaxMessages int `json:"max_messages" yaml:"max_messages"`

	// SweepInterval is how often expired sessions are collected.
	SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval"`
}

// DefaultMemoryConfig returns the production defaults.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{TTL: 30 * time.Minute, MaxMessages: 100, SweepInterval: time.Minute}
}

type memorySession struct {
	mu sync.Mutex
	s  Session
}

// MemoryStore keeps sessions in process memory. Each session carries its own
// mutex, so concurrent appends to different sessions never contend.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	config   MemoryConfig
	logger   *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}

	now func() time.Time // swapped in tests
}

// NewMemoryStore creates an in-memory session store and starts its TTL
// sweeper. Call Close to stop the sweeper.
func NewMemoryStore(config MemoryConfig, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultMemoryConfig().SweepInterval
	}
	m := &MemoryStore{
		sessions: make(map[string]*memorySession),
		config:   config,
		logger:   logger.With(zap.String("component", "session_memory")),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	if config.TTL > 0 {
		go m.sweepLoop()
	}
	return m
}

// Get returns a deep-enough copy of the session: callers may read the
// returned message slice without holding any store lock.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	ms, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if m.expired(&ms.s) {
		return nil, notFound(id)
	}
	out := ms.s
	out.Messages = make([]types.ChatMessage, len(ms.s.Messages))
	copy(out.Messages, ms.s.Messages)
	return &out, nil
}

// Append adds messages to the session, creating it on first use.
func (m *MemoryStore) Append(ctx context.Context, id string, msgs ...types.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	ms := m.getOrCreate(id)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if m.expired(&ms.s) {
		now := m.now()
		ms.s = Session{ID: id, CreatedAt: now}
	}
	ms.s.Messages = append(ms.s.Messages, msgs...)
	if max := m.config.MaxMessages; max > 0 && len(ms.s.Messages) > max {
		ms.s.Messages = ms.s.Messages[len(ms.s.Messages)-max:]
	}
	ms.s.LastActiveAt = m.now()
	return nil
}

// Clear removes the session.
func (m *MemoryStore) Clear(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the TTL sweeper.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryStore) getOrCreate(id string) *memorySession {
	m.mu.RLock()
	ms, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return ms
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ms, ok = m.sessions[id]; ok {
		return ms
	}
	now := m.now()
	ms = &memorySession{s: Session{ID: id, CreatedAt: now, LastActiveAt: now}}
	m.sessions[id] = ms
	return ms
}

func (m *MemoryStore) expired(s *Session) bool {
	if m.config.TTL <= 0 || s.LastActiveAt.IsZero() {
		return false
	}
	return m.now().Sub(s.LastActiveAt) > m.config.TTL
}

func (m *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *MemoryStore) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, ms := range m.sessions {
		ms.mu.Lock()
		dead := m.expired(&ms.s)
		ms.mu.Unlock()
		if dead {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("swept expired sessions", zap.Int("removed", removed))
	}
}
