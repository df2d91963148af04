// Package cache provides a process-wide in-memory TTL cache.
//
// Expiry is evaluated lazily on Get against a stored absolute deadline; there
// is no background sweep. The cache is shared state, so all map access is
// mutex-guarded, but concurrent recomputation for the same key is accepted as
// benign duplicate work (last write wins).
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/fundlens/fundlens/internal/interfaces"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a key→value store with per-entry expiry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time // injectable clock for testing
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key builds a cache key from parts joined with ":", e.g.
// Key("fund", "001186", "nav", "realtime") -> "fund:001186:nav:realtime".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Set stores a value with the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Get returns the live value for key. An expired entry is removed and
// reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have refreshed it.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Delete removes a single key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeleteContaining removes every key containing the given substring and
// returns the number removed. Used to invalidate all entries related to one
// fund or portfolio after a write.
func (c *Cache) DeleteContaining(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of entries currently stored, counting entries whose
// expiry has passed but which have not been lazily evicted yet.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure Cache implements the shared cache contract
var _ interfaces.Cache = (*Cache)(nil)
