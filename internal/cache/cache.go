// Package cache keys finished editions by coarse time buckets over the
// SQLite store, with a daily fallback key for stale serving.
package cache

import (
	"fmt"
	"time"

	"github.com/oddsdesk/polypress/internal/logger"
	"github.com/oddsdesk/polypress/internal/models"
)

// EditionStore is the slice of storage the cache needs.
type EditionStore interface {
	UpsertEdition(bucketKey string, edition *models.Edition) error
	GetEdition(bucketKey string) (*models.CacheEntry, error)
}

// EditionCache persists and retrieves editions by time bucket. A miss is a
// contract with the caller: the caller must regenerate and Put; the cache
// never orchestrates regeneration itself.
type EditionCache struct {
	store       EditionStore
	windowHours int
	now         func() time.Time
}

// New creates an edition cache with the given bucket window in hours.
func New(store EditionStore, windowHours int) *EditionCache {
	if windowHours <= 0 {
		windowHours = 4
	}
	return &EditionCache{store: store, windowHours: windowHours, now: time.Now}
}

// BucketKey returns the cache key for t's bucket: the time truncated to
// the window boundary.
func (c *EditionCache) BucketKey(t time.Time) string {
	t = t.UTC()
	hour := (t.Hour() / c.windowHours) * c.windowHours
	return fmt.Sprintf("%s-%02d", t.Format("2006-01-02"), hour)
}

// DailyKey returns the coarser date-only fallback key for t.
func (c *EditionCache) DailyKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Result is what a cache lookup yields: the fresh edition on a hit, or a
// stale daily edition (possibly nil) alongside Hit=false on a miss.
type Result struct {
	Edition *models.Edition
	Hit     bool
	// Stale is set when the edition came from the daily fallback key
	// rather than the current bucket.
	Stale bool
}

// Get looks up the current bucket's edition. With forceRefresh the lookup
// always misses. On a miss, the daily fallback is returned as a stale,
// immediately-servable value while the caller regenerates.
func (c *EditionCache) Get(forceRefresh bool) (Result, error) {
	now := c.now()
	if forceRefresh {
		logger.Debug("Cache bypassed (force refresh)")
		return Result{}, nil
	}

	entry, err := c.store.GetEdition(c.BucketKey(now))
	if err != nil {
		return Result{}, fmt.Errorf("cache lookup failed: %w", err)
	}
	if entry != nil {
		return Result{Edition: &entry.Edition, Hit: true}, nil
	}

	stale, err := c.store.GetEdition(c.DailyKey(now))
	if err != nil {
		return Result{}, fmt.Errorf("daily fallback lookup failed: %w", err)
	}
	if stale != nil {
		logger.Debug("Cache miss for bucket %s, serving daily fallback", c.BucketKey(now))
		return Result{Edition: &stale.Edition, Stale: true}, nil
	}
	return Result{}, nil
}

// Put stores the edition under both the current bucket key and the daily
// fallback key. Upsert semantics: racing generators do not error, the last
// writer wins.
func (c *EditionCache) Put(edition *models.Edition) error {
	now := c.now()
	if err := c.store.UpsertEdition(c.BucketKey(now), edition); err != nil {
		return err
	}
	if err := c.store.UpsertEdition(c.DailyKey(now), edition); err != nil {
		return err
	}
	return nil
}

// Window returns the bucket width.
func (c *EditionCache) Window() time.Duration {
	return time.Duration(c.windowHours) * time.Hour
}
