package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

func newTestMemoryStore(t *testing.T, config MemoryConfig) *MemoryStore {
	t.Helper()
	// no background sweeper in tests
	config.TTL = 0
	s := NewMemoryStore(config, zap.NewNop())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStoreAccumulatesTurns(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t, DefaultMemoryConfig())
	ctx := context.Background()

	// two chat turns, each appending the user message and the reply
	for i := 0; i < 2; i++ {
		err := store.Append(ctx, "abc",
			types.NewUserMessage(fmt.Sprintf("question %d", i)),
			types.NewAssistantMessage(fmt.Sprintf("answer %d", i), nil),
		)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	s, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(s.Messages) != 4 {
		t.Fatalf("expected 4 messages after 2 turns, got %d", len(s.Messages))
	}
	want := []types.Role{types.RoleUser, types.RoleAssistant, types.RoleUser, types.RoleAssistant}
	for i, msg := range s.Messages {
		if msg.Role != want[i] {
			t.Errorf("message %d role = %s, want %s", i, msg.Role, want[i])
		}
	}
}

func TestMemoryStoreClearAndMissing(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t, DefaultMemoryConfig())
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !types.IsCode(err, types.ErrNotFound) {
		t.Fatalf("unknown session must be NOT_FOUND, got %v", err)
	}

	if err := store.Append(ctx, "abc", types.NewUserMessage("hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Clear(ctx, "abc"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := store.Get(ctx, "abc"); !types.IsCode(err, types.ErrNotFound) {
		t.Fatalf("cleared session must be NOT_FOUND, got %v", err)
	}

	// clearing again is a no-op, not an error
	if err := store.Clear(ctx, "abc"); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestMemoryStoreCapsHistory(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t, MemoryConfig{MaxMessages: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, "abc", types.NewUserMessage(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	s, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(s.Messages) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(s.Messages))
	}
	if s.Messages[0].Content != "m2" {
		t.Errorf("oldest messages must be dropped first, head is %q", s.Messages[0].Content)
	}
}

func TestMemoryStoreTTLEviction(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(MemoryConfig{TTL: time.Minute, SweepInterval: time.Hour}, zap.NewNop())
	defer store.Close()

	current := time.Now()
	store.now = func() time.Time { return current }

	ctx := context.Background()
	if err := store.Append(ctx, "abc", types.NewUserMessage("hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "abc"); !types.IsCode(err, types.ErrNotFound) {
		t.Fatalf("idle session must expire, got %v", err)
	}

	store.sweep()
	if store.Len() != 0 {
		t.Fatalf("sweep must remove expired sessions, %d left", store.Len())
	}
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t, MemoryConfig{})
	ctx := context.Background()

	const writers = 16
	const perWriter = 20

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = store.Append(ctx, "shared", types.NewUserMessage(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	s, err := store.Get(ctx, "shared")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(s.Messages) != writers*perWriter {
		t.Fatalf("lost messages: got %d, want %d", len(s.Messages), writers*perWriter)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	t.Parallel()

	store := newTestMemoryStore(t, MemoryConfig{})
	ctx := context.Background()

	if err := store.Append(ctx, "abc", types.NewUserMessage("original")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s.Messages[0].Content = "mutated"

	again, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Messages[0].Content != "original" {
		t.Fatal("Get must return a copy, stored message was mutated")
	}
}
