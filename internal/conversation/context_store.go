package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultContextTTL = 24 * time.Hour

// RedisContextStore caches session contexts in Redis for fast turn-to-turn
// loads. Postgres remains the durable copy; cache misses and failures are
// recoverable.
type RedisContextStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisContextStore wraps a Redis client.
func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultContextTTL
	}
	return &RedisContextStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("webcraft.internal.conversation.cache"),
	}
}

// Load fetches the cached context, ErrContextNotFound on a miss.
func (s *RedisContextStore) Load(ctx context.Context, sessionID string) (*Context, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.cache_load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrContextNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: cache load failed: %w", err)
	}

	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: cache decode failed: %w", err)
	}
	return &c, nil
}

// Save writes the context back with a sliding TTL.
func (s *RedisContextStore) Save(ctx context.Context, c *Context) error {
	ctx, span := s.tracer.Start(ctx, "conversation.cache_save")
	defer span.End()

	data, err := json.Marshal(c)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: cache encode failed: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(c.SessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: cache save failed: %w", err)
	}
	return nil
}

// Delete evicts the cached context.
func (s *RedisContextStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("conversation: cache delete failed: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("chat_session:%s", sessionID)
}
