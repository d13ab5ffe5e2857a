// Package cache implements the fixed-capacity lookup cache
// that sits in front of the wildcard table's linear scan. It caches both
// positive and negative hits and is blast-invalidated on any wildcard
// mutation.
package cache

import (
	"sync"

	"github.com/albertito/fiu/internal/hashmap"
)

// DefaultCapacity is the default number of distinct cache slots.
const DefaultCapacity = 1024

// entry is a cached result. found distinguishes "cached miss" (found=true,
// value=nil) from "never looked up" (absent from the map entirely).
type entry struct {
	value any
	found bool
}

// Cache is a bounded hit-or-miss cache. It owns its own RWMutex,
// taken for the entire duration of Get, independent of any caller lock.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	m        *hashmap.Map
}

// New returns an empty cache with room for capacity distinct keys. A
// capacity of 0 uses DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Cache{capacity: capacity, m: hashmap.New(capacity)}
}

// Get reports whether key has a cached result and, if so, what it is. A
// true ok with a nil value is a cached negative hit.
func (c *Cache) Get(key string) (value any, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, hit := c.m.Get(key)
	if !hit {
		return nil, false
	}

	e, _ := v.(entry)

	return e.value, e.found
}

// Set stores value for key, replacing any result already cached for key.
// It is not direct-mapped: when the cache already holds capacity entries
// and key is not one of them, every cached entry is dropped first.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.m.Len() >= c.capacity {
		if _, hit := c.m.Get(key); !hit {
			// At capacity, evict everything rather than pick a victim
			// key. This keeps the cache O(1) to operate
			// and matches its role as a pure memoization layer: the next
			// miss simply repopulates it.
			c.m = hashmap.New(c.capacity)
		}
	}

	c.m.Set(key, entry{value: value, found: true})
}

// Invalidate empties every cache slot. Called whenever a wildcard mutation
// occurs, before the registry's write lock is released.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.m = hashmap.New(c.capacity)
}
