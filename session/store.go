// Package session persists chat history between turns. Two implementations
// ship: an in-memory store for single-instance and test deployments, and a
// Redis store for horizontally scaled ones.
package session

import (
	"context"
	"time"

	"github.com/epihelix/epihelix/types"
)

// Session is one conversation thread.
type Session struct {
	ID           string              `json:"id"`
	Messages     []types.ChatMessage `json:"messages"`
	CreatedAt    time.Time           `json:"created_at"`
	LastActiveAt time.Time           `json:"last_active_at"`
}

// Store persists sessions. Append must be atomic per session: two concurrent
// appends to the same id may interleave in either order but never lose a
// message. Clear is idempotent.
type Store interface {
	// Get returns the session, or a NOT_FOUND error for an unknown id.
	Get(ctx context.Context, id string) (*Session, error)

	// Append adds messages to the session, creating it if needed.
	Append(ctx context.Context, id string, msgs ...types.ChatMessage) error

	// Clear removes the session. Clearing an unknown id is not an error.
	Clear(ctx context.Context, id string) error
}

func notFound(id string) error {
	return types.NewError(types.ErrNotFound, "session not found: "+id)
}
