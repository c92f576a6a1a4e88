package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

const (
	counterListCacheName = "user_counters"
	taskListCacheName    = "user_tasks"
	preferencesCacheName = "user_preferences"

	defaultListTTL        = 300 * time.Second
	defaultCounterTTL     = time.Hour
	defaultPreferencesTTL = 600 * time.Second
)

func cacheKey(name, userID string) string {
	return name + ":" + userID
}

type nopCacheMetrics struct{}

func (nopCacheMetrics) IncCacheHit(string)   {}
func (nopCacheMetrics) IncCacheMiss(string)  {}
func (nopCacheMetrics) IncCacheError(string) {}

// snapshotCache reads and writes JSON snapshots through port.Cache. Read and population failures
// are logged and reported as misses; write-through and invalidation failures are returned to the
// caller.
type snapshotCache struct {
	cache   port.Cache
	metrics port.CacheMetrics
	logger  *zap.Logger
}

func newSnapshotCache(cache port.Cache, metrics port.CacheMetrics, logger *zap.Logger) snapshotCache {
	if metrics == nil {
		metrics = nopCacheMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return snapshotCache{cache: cache, metrics: metrics, logger: logger}
}

func (c snapshotCache) load(ctx context.Context, name, userID string, dest any) bool {
	if c.cache == nil {
		return false
	}

	key := cacheKey(name, userID)
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.metrics.IncCacheMiss(name)
			return false
		}
		c.metrics.IncCacheError(name)
		c.logger.Warn("cache read failed, falling back to database", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.metrics.IncCacheError(name)
		c.logger.Warn("discarding malformed cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	c.metrics.IncCacheHit(name)
	return true
}

func (c snapshotCache) store(ctx context.Context, name, userID string, value any, ttl time.Duration) {
	if c.cache == nil {
		return
	}

	key := cacheKey(name, userID)
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("encode cache entry failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, string(payload), ttl); err != nil {
		c.logger.Warn("cache population failed", zap.String("key", key), zap.Error(err))
	}
}

// writeThrough replaces the snapshot after a storage write. When Set fails the key is dropped so
// readers fall back to storage, and the Set error is returned.
func (c snapshotCache) writeThrough(ctx context.Context, name, userID string, value any, ttl time.Duration) error {
	if c.cache == nil {
		return nil
	}

	key := cacheKey(name, userID)
	payload, err := json.Marshal(value)
	if err == nil {
		if err = c.cache.Set(ctx, key, string(payload), ttl); err == nil {
			return nil
		}
	}

	c.metrics.IncCacheError(name)
	c.logger.Error("cache write-through failed", zap.String("key", key), zap.Error(err))
	if delErr := c.cache.Delete(ctx, key); delErr != nil {
		c.logger.Error("cache invalidation failed", zap.String("key", key), zap.Error(delErr))
	}
	return err
}

func (c snapshotCache) invalidate(ctx context.Context, name, userID string) error {
	if c.cache == nil {
		return nil
	}

	key := cacheKey(name, userID)
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Error("cache invalidation failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
