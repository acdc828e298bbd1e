package port

import (
	"time"

	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
)

// CacheEntry wraps a cached record with its creation time. Entries are
// superseded by newer ones, never mutated.
type CacheEntry struct {
	Record    *domain.ListingRecord
	CreatedAt time.Time
	Stale     bool
}

// ResultCachePort is the time-bounded memoization of finished extractions.
type ResultCachePort interface {
	// Get returns the entry for key, with Stale set when it is past the fresh
	// window but still serveable. Entries past the maximum age are evicted and
	// nil is returned.
	Get(key string) *CacheEntry

	Put(key string, record *domain.ListingRecord)

	// Len reports the number of live entries, for logging.
	Len() int
}
