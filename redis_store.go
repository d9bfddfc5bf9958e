package goCooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a TimestampStore backed by Redis, for deployments where
// several clients ("tabs") share one durable cooldown view. Writes are
// idempotent overwrites with no locking: the store is last-writer-wins,
// and a stale read in one client self-heals on its next reconciliation.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. Keys are namespaced under
// prefix. ttl bounds how long records outlive their usefulness; zero
// means no expiry.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Get returns the stored value, or "" when the key is absent.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cooldown redis get: %w", err)
	}
	return value, nil
}

// Set stores the value, refreshing the TTL on every write.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("cooldown redis set: %w", err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is not an error.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("cooldown redis del: %w", err)
	}
	return nil
}
