package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore keeps rate-limit counters in Redis so limits hold across
// multiple API instances. Each fixed window gets its own key with a TTL,
// so expired windows clean themselves up.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) windowKey(key string, window time.Duration) string {
	return fmt.Sprintf("%s%s:%d", redisKeyPrefix, key, windowIndex(s.now(), window))
}

// Admit implements Store. The counter is incremented first; on rejection it
// is decremented again so a rejected call never consumes quota.
func (s *RedisStore) Admit(key string, limit int64, window time.Duration) (bool, error) {
	ctx := context.Background()
	wk := s.windowKey(key, window)

	count, err := s.rdb.Incr(ctx, wk).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// Two windows of TTL keeps the key alive through clock skew between
		// instances; the window index in the key does the actual bounding.
		if err := s.rdb.Expire(ctx, wk, 2*window).Err(); err != nil {
			return false, err
		}
	}
	if count > limit {
		if err := s.rdb.Decr(ctx, wk).Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Incr implements Store.
func (s *RedisStore) Incr(key string, window time.Duration) (int64, error) {
	ctx := context.Background()
	wk := s.windowKey(key, window)

	count, err := s.rdb.Incr(ctx, wk).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, wk, 2*window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// Count implements Store.
func (s *RedisStore) Count(key string, window time.Duration) (int64, error) {
	count, err := s.rdb.Get(context.Background(), s.windowKey(key, window)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

var _ Store = (*RedisStore)(nil)
