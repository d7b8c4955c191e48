package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "luminous:credentials:"

// Redis is a Store backed by a Redis instance, for deployments where the
// credential store is shared across processes or hosts.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing Redis client. Keys are namespaced with prefix;
// an empty prefix selects the library default.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Get implements Store.
func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("credstore: failed to read key: %w", err)
	}
	return val, nil
}

// Set implements Store.
func (s *Redis) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("credstore: failed to write key: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("credstore: failed to delete key: %w", err)
	}
	return nil
}
