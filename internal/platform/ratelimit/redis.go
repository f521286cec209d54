package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a fixed window limiter on Redis. Counters are shared across
// instances; each window lives under one key that expires with the window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, span time.Duration) (*Result, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(span.Seconds()))

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, span)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	n := int(count.Val())
	result := &Result{
		Allowed:   n <= limit,
		Limit:     limit,
		ResetAt:   time.Now().Truncate(span).Add(span),
		Remaining: limit - n,
	}
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}
