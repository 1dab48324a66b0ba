// Package cache holds the client-side entity cache: an in-memory map with
// per-entry TTL plus a SQLite-persisted snapshot of the batch list and the
// user session. All operations are safe for concurrent use; in-flight
// fetches for the same key serialize on the cache mutex so partial writes
// never interleave.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Well-known cache keys. Per-entity keys are built with BatchKey/ReportKey.
const (
	BatchListKey = "batches"

	// BatchListTTL is how long the full batch list stays fresh.
	BatchListTTL = 5 * time.Minute
)

// BatchKey returns the cache key of a single batch.
func BatchKey(batchID string) string {
	return "batch_" + batchID
}

// ReportKey returns the cache key of a batch report.
func ReportKey(batchID string) string {
	return "batch_report_" + batchID
}

type entry struct {
	value     any
	writtenAt time.Time
	ttl       time.Duration // 0 = no expiry, invalidated explicitly
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Cache is a mutex-guarded entity cache keyed by string.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	hits    atomic.Int64
	misses  atomic.Int64

	// now is stubbed in TTL tests.
	now func() time.Time
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key. Entries carrying a TTL miss once
// their age reaches the TTL; entries without one live until invalidated.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if e.ttl > 0 && c.now().Sub(e.writtenAt) >= e.ttl {
		delete(c.entries, key)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Put stores a value with no expiry.
func (c *Cache) Put(key string, value any) {
	c.PutTTL(key, value, 0)
}

// PutTTL stores a value that expires ttl after the write.
func (c *Cache) PutTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, writtenAt: c.now(), ttl: ttl}
}

// Invalidate removes the given keys.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit/miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{Entries: entries, Hits: hits, Misses: misses, HitRate: hitRate}
}
