package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

const (
	redisKeyPrefix   = "epihelix:session:"
	redisMsgsSuffix  = ":msgs"
	redisMetaSuffix  = ":meta"
	metaCreatedField = "created_at"
	metaActiveField  = "last_active_at"
)

// RedisConfig bounds the Redis-backed store.
type RedisConfig struct {
	// TTL is applied to the session keys on every append. Zero disables
	// expiry.
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MaxMessages caps the history per session via LTRIM. Zero means
	// unbounded.
	MaxMessages int `json:"max_messages" yaml:"max_messages"`
}

// DefaultRedisConfig returns the production defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{TTL: 30 * time.Minute, MaxMessages: 100}
}

// RedisStore persists sessions in Redis so chat survives process restarts
// and works behind a load balancer. Messages live in a list; RPUSH is atomic,
// which gives the per-session append guarantee without client-side locks.
type RedisStore struct {
	client redis.UniversalClient
	config RedisConfig
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, config RedisConfig, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		config: config,
		logger: logger.With(zap.String("component", "session_redis")),
	}
}

// Get loads the full session.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.LRange(ctx, redisKeyPrefix+id+redisMsgsSuffix, 0, -1).Result()
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "session store: redis unreachable").WithCause(err)
	}
	if len(raw) == 0 {
		return nil, notFound(id)
	}

	s := &Session{ID: id, Messages: make([]types.ChatMessage, 0, len(raw))}
	for _, item := range raw {
		var msg types.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, types.NewError(types.ErrInternal, "session store: corrupt message").WithCause(err)
		}
		s.Messages = append(s.Messages, msg)
	}

	meta, err := r.client.HGetAll(ctx, redisKeyPrefix+id+redisMetaSuffix).Result()
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "session store: redis unreachable").WithCause(err)
	}
	if v, ok := meta[metaCreatedField]; ok {
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	if v, ok := meta[metaActiveField]; ok {
		s.LastActiveAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return s, nil
}

// Append pushes messages onto the session list and refreshes the TTL.
func (r *RedisStore) Append(ctx context.Context, id string, msgs ...types.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	payload := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		b, err := json.Marshal(msg)
		if err != nil {
			return types.NewError(types.ErrInternal, "session store: marshal message").WithCause(err)
		}
		payload = append(payload, b)
	}

	msgsKey := redisKeyPrefix + id + redisMsgsSuffix
	metaKey := redisKeyPrefix + id + redisMetaSuffix
	now := time.Now().UTC().Format(time.RFC3339Nano)

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, msgsKey, payload...)
	if r.config.MaxMessages > 0 {
		pipe.LTrim(ctx, msgsKey, int64(-r.config.MaxMessages), -1)
	}
	pipe.HSetNX(ctx, metaKey, metaCreatedField, now)
	pipe.HSet(ctx, metaKey, metaActiveField, now)
	if r.config.TTL > 0 {
		pipe.Expire(ctx, msgsKey, r.config.TTL)
		pipe.Expire(ctx, metaKey, r.config.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return types.NewError(types.ErrInternal, "session store: redis unreachable").WithCause(err)
	}
	return nil
}

// Clear deletes the session keys.
func (r *RedisStore) Clear(ctx context.Context, id string) error {
	err := r.client.Del(ctx, redisKeyPrefix+id+redisMsgsSuffix, redisKeyPrefix+id+redisMetaSuffix).Err()
	if err != nil {
		return types.NewError(types.ErrInternal, "session store: redis unreachable").WithCause(err)
	}
	return nil
}
