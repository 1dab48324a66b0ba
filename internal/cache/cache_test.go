package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPutRoundTrip(t *testing.T) {
	c := New()
	c.Put(BatchKey("7"), "batch-seven")

	v, ok := c.Get(BatchKey("7"))
	require.True(t, ok)
	assert.Equal(t, "batch-seven", v)

	_, ok = c.Get(BatchKey("8"))
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	c := New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }

	c.PutTTL(BatchListKey, []string{"1", "2"}, BatchListTTL)

	current = base.Add(4*time.Minute + 59*time.Second)
	_, ok := c.Get(BatchListKey)
	assert.True(t, ok, "entry just under the TTL should still be served")

	current = base.Add(5 * time.Minute)
	_, ok = c.Get(BatchListKey)
	assert.False(t, ok, "entry at the TTL boundary should miss")

	// Expired entries are evicted on read.
	assert.Equal(t, 0, c.Len())
}

func TestNoTTLNeverExpires(t *testing.T) {
	c := New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }

	c.Put(ReportKey("3"), "report")

	current = base.Add(48 * time.Hour)
	_, ok := c.Get(ReportKey("3"))
	assert.True(t, ok)
}

func TestInvalidateExactKeys(t *testing.T) {
	c := New()
	c.Put(BatchListKey, "list")
	c.Put(BatchKey("42"), "batch")
	c.Put(ReportKey("42"), "report")
	c.Put(BatchKey("43"), "other")

	c.Invalidate(BatchListKey, BatchKey("42"), ReportKey("42"))

	_, ok := c.Get(BatchKey("43"))
	assert.True(t, ok, "unrelated entries survive invalidation")
	for _, key := range []string{BatchListKey, BatchKey("42"), ReportKey("42")} {
		_, ok := c.Get(key)
		assert.Falsef(t, ok, "key %q should be gone", key)
	}
}

func TestInvalidateAll(t *testing.T) {
	c := New()
	c.Put("a", 1)
	c.Put("b", 2)

	c.InvalidateAll()

	assert.Equal(t, 0, c.Len())
}

func TestStatsCounters(t *testing.T) {
	c := New()
	c.Put("a", 1)

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.0001)
	assert.Equal(t, 1, stats.Entries)
}
