package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "cache:catalog"

// Cache is a read-through cache for the catalog payload.
type Cache interface {
	Get(ctx context.Context) (*Catalog, error)
	Set(ctx context.Context, cat *Catalog) error
	Invalidate(ctx context.Context) error
}

// RedisCache stores the serialized catalog in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a catalog cache on top of an existing Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached catalog, or nil on a miss.
func (c *RedisCache) Get(ctx context.Context) (*Catalog, error) {
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: cache get: %w", err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("catalog: cache decode: %w", err)
	}
	return &cat, nil
}

// Set stores the catalog payload.
func (c *RedisCache) Set(ctx context.Context, cat *Catalog) error {
	payload, err := json.Marshal(cat)
	if err != nil {
		return fmt.Errorf("catalog: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog: cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached payload after an admin mutation.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("catalog: cache invalidate: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
