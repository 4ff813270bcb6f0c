package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/data/redisStore"
	"github.com/jurisai/jurisai/internal/metrics"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// ResponseCache is the cache-aside layer for search results and feature-flag
// lookups. A nil ResponseCache is valid and disables caching, mirroring how
// the system degrades when Redis is offline.
type ResponseCache struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetResponseCache(ctx context.Context) *ResponseCache {
	inner := redisStore.GetRedisStore(ctx, config.RedisCache)
	if inner == nil {
		return nil
	}
	return &ResponseCache{
		store:  inner,
		logger: logger_i.NewLogger("ResponseCache"),
	}
}

// GetJSON fetches key and unmarshals it into dest. Returns false on miss or
// any Redis error; callers always fall through to the source of truth.
func (c *ResponseCache) GetJSON(ctx context.Context, cacheName, key string, dest any) bool {
	if c == nil {
		return false
	}
	val, err := c.store.Get(ctx, key)
	if c.store.IsNil(err) {
		metrics.CaptureCacheLookup(cacheName, false)
		return false
	}
	if err != nil {
		c.logger.Error("cache read failed", "key", key, "err", err)
		metrics.CaptureCacheLookup(cacheName, false)
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.logger.Error("cache entry corrupt", "key", key, "err", err)
		metrics.CaptureCacheLookup(cacheName, false)
		return false
	}
	metrics.CaptureCacheLookup(cacheName, true)
	return true
}

// SetJSON stores value under key with the given TTL. Failures are logged and
// swallowed; the caller already has the real result.
func (c *ResponseCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "err", err)
		return
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.logger.Error("cache write failed", "key", key, "err", err)
	}
}

// Invalidate drops every entry sharing the prefix.
func (c *ResponseCache) Invalidate(ctx context.Context, prefix string) {
	if c == nil {
		return
	}
	if err := c.store.DelByPrefix(ctx, prefix); err != nil {
		c.logger.Error("cache invalidation failed", "prefix", prefix, "err", err)
	}
}

func TestResponseCache(store *redisStore.Store) *ResponseCache {
	return &ResponseCache{
		store:  store,
		logger: logger_i.NewLogger("test cache"),
	}
}
