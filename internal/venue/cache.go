package venue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CatalogCacheKey is the Redis key holding the serialized catalog snapshot.
const CatalogCacheKey = "venuefinder:catalog:v1"

// DefaultCatalogTTL bounds how stale a cached catalog may get.
const DefaultCatalogTTL = 60 * time.Second

// CachedRepository is a read-through Redis cache in front of another
// Repository. Only ListActive is cached. Redis failures are logged and the
// request falls through to the underlying repository (fail-open).
type CachedRepository struct {
	next   Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps next with a Redis-backed catalog cache.
// A non-positive ttl falls back to DefaultCatalogTTL.
func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{next: next, client: client, ttl: ttl, logger: logger}
}

// ListActive returns the cached snapshot when present, otherwise loads it
// from the underlying repository and stores it.
func (c *CachedRepository) ListActive(ctx context.Context) ([]Venue, error) {
	data, err := c.client.Get(ctx, CatalogCacheKey).Bytes()
	switch {
	case err == nil:
		var venues []Venue
		if jerr := json.Unmarshal(data, &venues); jerr == nil {
			return venues, nil
		} else {
			c.logger.WarnContext(ctx, "discarding corrupt catalog cache entry", "error", jerr)
		}
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.WarnContext(ctx, "catalog cache read failed, loading from store", "error", err)
	}

	venues, err := c.next.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(venues)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to encode catalog for cache", "error", err)
		return venues, nil
	}
	if err := c.client.Set(ctx, CatalogCacheKey, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "catalog cache write failed", "error", err)
	}
	return venues, nil
}

// GetBySlug is not cached.
func (c *CachedRepository) GetBySlug(ctx context.Context, slug string) (*Venue, error) {
	return c.next.GetBySlug(ctx, slug)
}

// ListFeatures is not cached.
func (c *CachedRepository) ListFeatures(ctx context.Context) ([]Feature, error) {
	return c.next.ListFeatures(ctx)
}

// Invalidate drops the cached snapshot.
func (c *CachedRepository) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, CatalogCacheKey).Err()
}
