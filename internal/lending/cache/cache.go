// Package cache provides a Redis read-through cache for copy detail lookups.
// The lending service invalidates entries after every committed transition,
// so a cached value never outlives the state it describes by more than the
// invalidation round-trip. Absence of Redis disables caching entirely.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"libris/internal/lending/models"
)

const keyPrefix = "lending:copy:"

// Cache is a read-through cache for resolved copy detail.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New constructs a Cache. A nil client yields a nil Cache, which callers may
// pass around safely; the lending service treats nil as "no cache".
func New(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func key(copyID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, copyID)
}

// Get returns the cached detail for a copy, if present. Cache failures are
// logged and reported as misses; the store remains the source of truth.
func (c *Cache) Get(ctx context.Context, copyID int64) (*models.CopyDetail, bool) {
	payload, err := c.rdb.Get(ctx, key(copyID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "copy cache read failed", "copy_id", copyID, "error", err)
		}
		return nil, false
	}
	var detail models.CopyDetail
	if err := json.Unmarshal(payload, &detail); err != nil {
		c.logger.WarnContext(ctx, "copy cache entry corrupt", "copy_id", copyID, "error", err)
		return nil, false
	}
	return &detail, true
}

// Set stores the detail under the copy's key with the configured TTL.
func (c *Cache) Set(ctx context.Context, detail *models.CopyDetail) {
	payload, err := json.Marshal(detail)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(detail.ID), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "copy cache write failed", "copy_id", detail.ID, "error", err)
	}
}

// Invalidate drops the cached entry for a copy after a state change.
func (c *Cache) Invalidate(ctx context.Context, copyID int64) {
	if err := c.rdb.Del(ctx, key(copyID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "copy cache invalidation failed", "copy_id", copyID, "error", err)
	}
}
