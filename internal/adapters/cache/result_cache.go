// Package cache is an in-memory, process-lifetime result cache. There is no
// persistence on purpose: entries are cheap to rebuild and the service is
// expected to restart with a cold cache.
package cache

import (
	"sync"
	"time"

	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
)

type cacheEntry struct {
	record    *domain.ListingRecord
	createdAt time.Time
}

// ResultCache implements port.ResultCachePort with a fresh window and a stale
// window. Entries younger than freshTTL are served as-is; entries between
// freshTTL and staleTTL are served marked stale so the caller can refresh in
// the background; older entries are evicted lazily on read.
type ResultCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	freshTTL time.Duration
	staleTTL time.Duration
	now      func() time.Time
}

func NewResultCache(freshTTL, staleTTL time.Duration) *ResultCache {
	if staleTTL < freshTTL {
		staleTTL = freshTTL
	}
	return &ResultCache{
		entries:  make(map[string]cacheEntry),
		freshTTL: freshTTL,
		staleTTL: staleTTL,
		now:      time.Now,
	}
}

func (c *ResultCache) Get(key string) *port.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}

	age := c.now().Sub(entry.createdAt)
	if age >= c.staleTTL {
		delete(c.entries, key)
		return nil
	}

	return &port.CacheEntry{
		Record:    entry.record,
		CreatedAt: entry.createdAt,
		Stale:     age >= c.freshTTL,
	}
}

// Put supersedes any existing entry for key. Quality gating is the
// orchestrator's responsibility; the cache stores whatever it is given.
func (c *ResultCache) Put(key string, record *domain.ListingRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{record: record, createdAt: c.now()}
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
