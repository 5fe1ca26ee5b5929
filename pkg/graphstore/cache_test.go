package graphstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCacheGetMissThenHit(t *testing.T) {
	c := NewPlanCache(4)
	_, ok := c.Get("MATCH (n) RETURN n")
	assert.False(t, ok)

	c.Put("MATCH (n) RETURN n", 42)
	v, ok := c.Get("MATCH (n) RETURN n")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestPlanCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewPlanCache(2)
	c.Put("a", 1)
	c.Put("b", 2)
	// touch "a" so "b" becomes the least-recently-used entry
	_, _ = c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least-recently-used and should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestPlanCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewPlanCacheWithTTL(4, 0)
	c.Put("k", 1)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestPlanCacheExpiresEntryPastTTL(t *testing.T) {
	c := NewPlanCacheWithTTL(4, 5*time.Millisecond)
	c.Put("k", 1)
	time.Sleep(15 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok, "an entry older than the TTL must be treated as a miss")
	assert.Equal(t, 0, c.Len(), "an expired Get must also evict the stale entry")
}

func TestPlanCacheDefaultsCapacityWhenNonPositive(t *testing.T) {
	c := NewPlanCache(0)
	assert.Equal(t, 256, c.capacity)
}
