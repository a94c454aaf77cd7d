package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/merchkit/countdown/internal/app/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultActiveCacheTTL = 5 * time.Second

// ActiveCache is a short-TTL redis cache in front of the storefront
// active-timer query. Staleness is bounded by the TTL, which is sized to the
// widget polling interval. Every operation fails open: a broken redis never
// breaks the read path.
type ActiveCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewActiveCache returns a cache over the given redis client.
func NewActiveCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ActiveCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultActiveCacheTTL
	}
	return &ActiveCache{client: client, ttl: ttl, logger: logger}
}

func activeCacheKey(storeDomain, productID string) string {
	return "timers:active:" + storeDomain + ":" + productID
}

// Get returns the cached listing, or ok=false on miss or redis failure.
func (c *ActiveCache) Get(ctx context.Context, storeDomain, productID string) ([]model.Timer, bool) {
	payload, err := c.client.Get(ctx, activeCacheKey(storeDomain, productID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("active cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var timers []model.Timer
	if err := json.Unmarshal(payload, &timers); err != nil {
		c.logger.Warn("active cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return timers, true
}

// Set stores the listing under the (store, product) key.
func (c *ActiveCache) Set(ctx context.Context, storeDomain, productID string, timers []model.Timer) {
	payload, err := json.Marshal(timers)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, activeCacheKey(storeDomain, productID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("active cache write failed", zap.Error(err))
	}
}

// Invalidate drops both the per-product entry and the store-wide entry.
func (c *ActiveCache) Invalidate(ctx context.Context, storeDomain, productID string) {
	keys := []string{
		activeCacheKey(storeDomain, productID),
		activeCacheKey(storeDomain, ""),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("active cache invalidation failed", zap.Error(err))
	}
}
