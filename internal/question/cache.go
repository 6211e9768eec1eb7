package question

import (
	"context"
	"time"

	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/internal/storage"
)

// DefaultTTL is how long a generated question is served from cache.
const DefaultTTL = 24 * time.Hour

// TTLCache keeps generated questions per file. Expired entries are removed
// when they are looked up; nothing sweeps them otherwise.
type TTLCache struct {
	store storage.CacheStore
	ttl   time.Duration
	now   func() time.Time
}

// NewTTLCache stores entries in store for ttl.
func NewTTLCache(store storage.CacheStore, ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache{store: store, ttl: ttl, now: time.Now}
}

// Get returns the cached question for fileID if it has not expired.
func (c *TTLCache) Get(ctx context.Context, fileID int64) (*models.Question, bool, error) {
	entry, ok, err := c.store.GetCached(ctx, fileID)
	if err != nil || !ok {
		return nil, false, err
	}
	if c.now().After(entry.ExpiresAt) {
		if err := c.store.DeleteCached(ctx, fileID); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	q := entry.Question
	return &q, true, nil
}

// Put caches q for fileID until now+ttl.
func (c *TTLCache) Put(ctx context.Context, fileID int64, q *models.Question) error {
	return c.store.PutCached(ctx, fileID, storage.CacheEntry{
		ExpiresAt: c.now().Add(c.ttl),
		Question:  *q,
	})
}
