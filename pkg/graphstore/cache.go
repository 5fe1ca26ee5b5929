package graphstore

import (
	"container/list"
	"sync"
	"time"

	"github.com/lucidgraph/lucid/pkg/cyerr"
)

// PlanCache is a mutex-protected, bounded mapping from a query-text key
// to a compiled plan, matching the teacher's own container/list-backed
// LRU shape (pkg/cypher/cache.go's QueryCache) rather than reaching for a
// third-party generic cache the pack doesn't ship. The cached value is
// opaque to this package (typed any) since graphstore has no dependency on
// cyplan; pkg/engine stores *cyplan.Node here.
type PlanCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key       string
	plan      any
	insertedAt time.Time
}

// NewPlanCache returns an empty cache holding at most capacity plans,
// evicting the least-recently-used entry once full. Entries never expire.
func NewPlanCache(capacity int) *PlanCache {
	return NewPlanCacheWithTTL(capacity, 0)
}

// NewPlanCacheWithTTL is NewPlanCache plus a per-entry time-to-live; a zero
// ttl disables expiry (entries are then evicted only by LRU pressure), per
// §4.8's size/TTL knobs.
func NewPlanCacheWithTTL(capacity int, ttl time.Duration) *PlanCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &PlanCache{capacity: capacity, ttl: ttl, order: list.New(), entries: make(map[string]*list.Element)}
}

// Get returns the cached plan for key and true on a hit (moving it to
// most-recently-used), or (nil, false) on a miss or expired entry.
func (c *PlanCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	ce := el.Value.(*cacheEntry)
	if c.ttl > 0 && time.Since(ce.insertedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return ce.plan, true
}

// Put inserts or replaces the cached plan for key, evicting the
// least-recently-used entry if the cache is at capacity.
func (c *PlanCache) Put(key string, plan any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		ce := el.Value.(*cacheEntry)
		ce.plan = plan
		ce.insertedAt = time.Now()
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{key: key, plan: plan, insertedAt: time.Now()})
	c.entries[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len reports how many plans are currently cached, for tests.
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// ErrCacheLock is returned (wrapped in a cyerr.ResourceError) when a cache
// operation cannot proceed; PlanCache's plain mutex never actually fails to
// acquire, so this exists to give §4.8/§7's documented failure mode a
// concrete type callers can match on in the unlikely event a future locking
// strategy introduces a fallible acquire.
var ErrCacheLock = &cyerr.ResourceError{Msg: "Failed to acquire read lock on cache"}
