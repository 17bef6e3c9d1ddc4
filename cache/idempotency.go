// Package cache provides the persisted idempotency-key store shared across
// process instances. Keys expire by TTL; acquiring a key that already exists
// means the same operation was seen before and must not run again.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Acquire atomically claims key for ttl. It returns true when this
	// caller is the first to claim it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a claimed key, letting a later retry run the operation.
	Release(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: "idem:",
	}
}

func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, "1", ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
