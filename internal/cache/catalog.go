package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/logger"
)

const catalogPrefix = "catalog:"

// Catalog keys
const (
	KeyMovies        = "movies"
	KeyCinemaSystems = "cinema_systems"
	KeySchedules     = "schedules"
)

// Observer is told about every cache lookup.
type Observer interface {
	CacheResult(key string, hit bool)
}

// CatalogCache is a read-through cache of public catalog data: movie lists,
// cinema systems and schedules. Seat maps are never stored here.
type CatalogCache struct {
	client   *redis.Client
	ttl      time.Duration
	observer Observer
}

// NewCatalogCache returns a cache with the given ttl. A zero ttl disables
// caching: every lookup is a miss and nothing is stored.
func NewCatalogCache(client *redis.Client, ttl time.Duration, observer Observer) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl, observer: observer}
}

func (c *CatalogCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get decodes the cached value of key into out. Returns ErrCacheMiss when
// the key is absent.
func (c *CatalogCache) Get(ctx context.Context, key string, out any) error {
	if !c.enabled() {
		return apperrors.ErrCacheMiss
	}

	data, err := c.client.Get(ctx, catalogPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.observe(key, false)
			return apperrors.ErrCacheMiss
		}
		return fmt.Errorf("cache lookup error: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	c.observe(key, true)
	return nil
}

func (c *CatalogCache) Set(ctx context.Context, key string, value any) error {
	if !c.enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.client.Set(ctx, catalogPrefix+key, data, c.ttl).Err()
}

// Invalidate drops the given keys.
func (c *CatalogCache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, catalogPrefix+k)
	}
	return c.client.Del(ctx, full...).Err()
}

func (c *CatalogCache) observe(key string, hit bool) {
	if c.observer != nil {
		c.observer.CacheResult(key, hit)
	}
}

// Remember returns the cached value of key, or loads, stores and returns it.
// Cache failures are logged and fall through to load.
func Remember[T any](ctx context.Context, c *CatalogCache, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, apperrors.ErrCacheMiss) {
		logger.WithContext(ctx).Warn("Catalog cache read failed", "key", key, "error", err)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := c.Set(ctx, key, value); err != nil {
		logger.WithContext(ctx).Warn("Catalog cache write failed", "key", key, "error", err)
	}
	return value, nil
}
