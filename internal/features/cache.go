package features

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/pkg/logger"
)

// Cache is a redis-backed feature vector cache. Every failure path degrades
// to a cache miss so the caller can fall back to direct extraction; redis
// being down must never take feature serving down with it.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a feature cache with the given entry TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: client, ttl: ttl}
}

func cacheKey(merchantID, featureSet string) string {
	return fmt.Sprintf("features:%s:%s", merchantID, featureSet)
}

// Get returns the cached vector for (merchant, feature set), or nil on a
// miss. Transport and decode errors are logged and reported as misses.
func (c *Cache) Get(ctx context.Context, merchantID, featureSet string) domain.FeatureVector {
	if c.redis == nil {
		return nil
	}
	key := cacheKey(merchantID, featureSet)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		logger.Warn("feature cache read failed", "key", key, "error", err.Error())
		return nil
	}

	var fv domain.FeatureVector
	if err := json.Unmarshal(data, &fv); err != nil {
		logger.Warn("feature cache entry corrupt, evicting", "key", key, "error", err.Error())
		c.redis.Del(ctx, key)
		return nil
	}
	return fv
}

// Set stores a vector best-effort. Write failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, merchantID, featureSet string, fv domain.FeatureVector) {
	if c.redis == nil || fv == nil {
		return
	}
	key := cacheKey(merchantID, featureSet)

	data, err := json.Marshal(fv)
	if err != nil {
		logger.Warn("feature cache encode failed", "key", key, "error", err.Error())
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("feature cache write failed", "key", key, "error", err.Error())
	}
}

// Invalidate removes every cached feature set for a merchant using SCAN + DEL
// so large keyspaces never block the server.
func (c *Cache) Invalidate(ctx context.Context, merchantID string) (int, error) {
	if c.redis == nil {
		return 0, nil
	}
	pattern := cacheKey(merchantID, "*")
	deleted := 0

	iter := c.redis.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("redis DEL %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis SCAN %s: %w", pattern, err)
	}
	return deleted, nil
}
