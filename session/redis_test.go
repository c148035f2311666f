package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

func newTestRedisStore(t *testing.T, config RedisConfig) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, config, zap.NewNop()), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, DefaultRedisConfig())
	ctx := context.Background()

	err := store.Append(ctx, "abc",
		types.NewUserMessage("what is cholera"),
		types.NewAssistantMessage("a waterborne bacterial disease", []types.EntityRef{
			{ID: "cholera", Label: "Cholera", Type: types.EntityDisease},
		}),
	)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	s, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
	if s.Messages[0].Role != types.RoleUser || s.Messages[0].Content != "what is cholera" {
		t.Errorf("user message corrupted: %+v", s.Messages[0])
	}
	if len(s.Messages[1].Sources) != 1 || s.Messages[1].Sources[0].ID != "cholera" {
		t.Errorf("assistant sources lost: %+v", s.Messages[1])
	}
	if s.CreatedAt.IsZero() || s.LastActiveAt.IsZero() {
		t.Error("meta timestamps missing")
	}
}

func TestRedisStoreMissingAndClear(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, DefaultRedisConfig())
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
	if err := store.Clear(ctx, "abc"); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestRedisStoreCapsHistory(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, RedisConfig{MaxMessages: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, "abc", types.NewUserMessage(string(rune('a'+i)))); err != nil {
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
	if s.Messages[0].Content != "c" {
		t.Errorf("oldest messages must be dropped first, head is %q", s.Messages[0].Content)
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t, RedisConfig{TTL: time.Minute})
	ctx := context.Background()

	if err := store.Append(ctx, "abc", types.NewUserMessage("hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "abc"); !types.IsCode(err, types.ErrNotFound) {
		t.Fatalf("idle session must expire, got %v", err)
	}
}
