// Package wtable implements the wildcard-aware namespace that sits on top
// of an exact-match hashmap and a lookup cache: keys ending in "*" are
// matched by literal prefix, everything else is an exact key.
package wtable

import (
	"strings"

	"github.com/albertito/fiu/internal/cache"
	"github.com/albertito/fiu/internal/hashmap"
)

// growSlack is the minimum extra capacity added when the wildcard slice
// grows, expressed as "at least 30% plus one free slot".
const growSlack = 0.30

// wildEntry is one entry in the wildcard array.
type wildEntry struct {
	key    string // full key, including trailing "*"
	prefix string // key without its trailing "*"
	value  any
	live   bool
}

// Table is the unified key -> value namespace exposed to the registry.
//
// It is not safe for concurrent use on its own; callers (internal/registry)
// hold a RWMutex around Get/Set/Del. The embedded Cache takes its own R/W
// lock, nested inside the caller's lock.
type Table struct {
	exact *hashmap.Map
	cache *cache.Cache

	wild    []wildEntry
	wildLen int // number of live entries, for shrink accounting
}

// New returns an empty wildcard table.
func New() *Table {
	return &Table{
		exact: hashmap.New(0),
		cache: cache.New(0),
	}
}

// isWild reports whether key denotes a wildcard entry.
func isWild(key string) bool {
	return strings.HasSuffix(key, "*")
}

// Get resolves key: exact match first, then the cache, then a linear
// wildcard scan (populating the cache with whatever is found, including a
// negative result).
func (t *Table) Get(key string) (any, bool) {
	if v, ok := t.exact.Get(key); ok {
		return v, true
	}

	if v, cached := t.cache.Get(key); cached {
		return v, v != nil
	}

	for i := range t.wild {
		e := &t.wild[i]
		if !e.live {
			continue
		}

		if strings.HasPrefix(key, e.prefix) {
			t.cache.Set(key, e.value)

			return e.value, true
		}
	}

	t.cache.Set(key, nil)

	return nil, false
}

// Set inserts or replaces the value for key.
func (t *Table) Set(key string, value any) {
	if isWild(key) {
		t.setWild(key, value)

		return
	}

	t.exact.Set(key, value)
}

// Del removes key.
func (t *Table) Del(key string) bool {
	if isWild(key) {
		return t.delWild(key)
	}

	return t.exact.Del(key)
}

func (t *Table) setWild(key string, value any) {
	prefix := strings.TrimSuffix(key, "*")

	for i := range t.wild {
		e := &t.wild[i]
		if e.live && e.key == key {
			e.value = value
			t.cache.Invalidate()

			return
		}
	}

	for i := range t.wild {
		e := &t.wild[i]
		if !e.live {
			*e = wildEntry{key: key, prefix: prefix, value: value, live: true}
			t.wildLen++
			t.cache.Invalidate()

			return
		}
	}

	t.growWild()
	t.wild = append(t.wild, wildEntry{key: key, prefix: prefix, value: value, live: true})
	t.wildLen++
	t.cache.Invalidate()
}

// growWild pre-grows the backing slice when only one free slot remains, by
// at least 30%+1, so a burst of inserts doesn't reallocate on every one.
func (t *Table) growWild() {
	free := cap(t.wild) - len(t.wild)

	for _, e := range t.wild {
		if !e.live {
			free++
		}
	}

	if free > 1 {
		return
	}

	extra := int(float64(len(t.wild))*growSlack) + 1
	grown := make([]wildEntry, len(t.wild), len(t.wild)+extra)
	copy(grown, t.wild)
	t.wild = grown
}

func (t *Table) delWild(key string) bool {
	for i := range t.wild {
		e := &t.wild[i]
		if e.live && e.key == key {
			*e = wildEntry{}
			t.wildLen--
			t.cache.Invalidate()
			t.maybeShrinkWild()

			return true
		}
	}

	return false
}

// maybeShrinkWild compacts the wildcard slice when occupancy drops below
// 60%.
func (t *Table) maybeShrinkWild() {
	if len(t.wild) == 0 {
		return
	}

	if float64(t.wildLen)/float64(len(t.wild)) >= 0.60 {
		return
	}

	compact := make([]wildEntry, 0, t.wildLen)

	for _, e := range t.wild {
		if e.live {
			compact = append(compact, e)
		}
	}

	t.wild = compact
}

// Entries calls visitExact for every live exact entry, then visitWild for
// every live wildcard entry, for introspection.
func (t *Table) Entries(visitExact func(key string, value any), visitWild func(key string, value any)) {
	t.exact.Range(visitExact)

	for _, e := range t.wild {
		if e.live {
			visitWild(e.key, e.value)
		}
	}
}
