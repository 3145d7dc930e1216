package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Cached keeps per-client lists in Redis. Cache failures are logged and fall
// through to the wrapped collection.
type Cached[T Record] struct {
	Collection[T]
	rdb *redis.Client
	ttl time.Duration
	log logger.Logger
}

func NewCached[T Record](inner Collection[T], rdb *redis.Client, ttl time.Duration, log logger.Logger) *Cached[T] {
	return &Cached[T]{Collection: inner, rdb: rdb, ttl: ttl, log: log}
}

// CacheKey is the Redis key holding a client's list for a collection.
func CacheKey(collection string, clientID int) string {
	return fmt.Sprintf("dash:%s:client:%d", collection, clientID)
}

func (c *Cached[T]) GetByClient(ctx context.Context, clientID int) ([]T, error) {
	key := CacheKey(c.Name(), clientID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var recs []T
		if jerr := json.Unmarshal(raw, &recs); jerr == nil {
			metrics.CacheLookups.WithLabelValues(c.Name(), "hit").Inc()
			return recs, nil
		}
		c.log.Warn("Discarding undecodable cache entry", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("Cache read failed", map[string]interface{}{"key": key, "error": err})
	}
	metrics.CacheLookups.WithLabelValues(c.Name(), "miss").Inc()

	recs, err := c.Collection.GetByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if b, jerr := json.Marshal(recs); jerr == nil {
		if serr := c.rdb.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.log.Warn("Cache write failed", map[string]interface{}{"key": key, "error": serr})
		}
	}
	return recs, nil
}

func (c *Cached[T]) Create(ctx context.Context, rec T) (T, error) {
	created, err := c.Collection.Create(ctx, rec)
	if err != nil {
		return created, err
	}
	c.invalidate(ctx, created.TenantID())
	return created, nil
}

func (c *Cached[T]) Update(ctx context.Context, id int, patch Patch) (T, error) {
	updated, err := c.Collection.Update(ctx, id, patch)
	if err != nil {
		return updated, err
	}
	c.invalidate(ctx, updated.TenantID())
	return updated, nil
}

func (c *Cached[T]) Delete(ctx context.Context, id int) (bool, error) {
	existing, err := c.Collection.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	ok, err := c.Collection.Delete(ctx, id)
	if err != nil {
		return ok, err
	}
	c.invalidate(ctx, existing.TenantID())
	return ok, nil
}

func (c *Cached[T]) invalidate(ctx context.Context, clientID int) {
	key := CacheKey(c.Name(), clientID)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warn("Cache invalidation failed", map[string]interface{}{"key": key, "error": err})
	}
}
