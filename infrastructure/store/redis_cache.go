package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-saaty/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.CacheStore = (*RedisCacheStore)(nil)

// RedisCacheStore memoizes analysis results in Redis. Values are stored
// as raw bytes; callers that cache structured data serialize it first,
// and anything else is JSON-encoded on the way in. Reads always return
// []byte, leaving deserialization to the caller who knows the shape.
type RedisCacheStore struct {
	client *redis.Client
}

// NewRedisCacheStore creates a cache backed by the given Redis client.
// The client's lifecycle belongs to the caller.
func NewRedisCacheStore(client *redis.Client) (*RedisCacheStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &RedisCacheStore{client: client}, nil
}

// Get retrieves a cached value. A missing key is not an error; it returns
// (nil, false, nil).
func (c *RedisCacheStore) Get(ctx context.Context, key string) (any, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ports.NewCacheError(key, "get", err)
	}
	return data, true, nil
}

// Set stores a value with the given expiration. A zero expiration stores
// the value without a TTL.
func (c *RedisCacheStore) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := encodeCacheValue(value)
	if err != nil {
		return ports.NewCacheError(key, "set", err)
	}

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return ports.NewCacheError(key, "set", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *RedisCacheStore) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return ports.NewCacheError(key, "delete", err)
	}
	return nil
}

// Clear removes every key in the cache's database. The cache assumes it
// owns its logical database; give it a dedicated DB index when the Redis
// instance is shared.
func (c *RedisCacheStore) Clear(ctx context.Context) error {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		return ports.NewCacheError("", "clear", err)
	}
	return nil
}

// encodeCacheValue converts a value into the byte form stored in Redis.
func encodeCacheValue(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache value: %w", err)
		}
		return data, nil
	}
}
