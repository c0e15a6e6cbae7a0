package snapshot

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long an assembled context is reused.
const DefaultCacheTTL = 30 * time.Second

// Cache keeps recently assembled contexts for a bounded time. Callers that
// know the underlying data changed call Invalidate.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	snap     *Context
	loadedAt time.Time
}

// NewCache creates a cache. A nil clock uses time.Now; ttl <= 0 disables reuse.
func NewCache(ttl time.Duration, clock func() time.Time) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached context for key or calls load and stores the result.
// Load errors are returned and nothing is cached.
func (c *Cache) Get(key string, load func() (*Context, error)) (*Context, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.fresh(e) {
		c.mu.Unlock()
		return e.snap, nil
	}
	c.mu.Unlock()

	snap, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{snap: snap, loadedAt: c.now()}
	c.mu.Unlock()
	return snap, nil
}

// Invalidate drops one entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if c.fresh(e) {
			n++
		}
	}
	return n
}

func (c *Cache) fresh(e cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.loadedAt) < c.ttl
}
