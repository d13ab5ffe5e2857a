// Package hashmap implements the exact-key string-keyed map that backs the
// registry's wildcard table: open addressing, linear probing, and a
// three-state slot so negative lookups terminate at the first never-used
// slot without a second pass.
package hashmap

// slotState tracks the lifecycle of a single table slot.
type slotState uint8

const (
	slotNever slotState = iota
	slotInUse
	slotRemoved
)

type slot struct {
	key   string
	value any
	state slotState
}

// minSize is the smallest table size auto-resize will ever pick.
const minSize = 10

// usableFloor is the minimum fraction of never-used slots the table
// maintains after every mutation (spec: "auto-resize ... usable < 0.30").
const usableFloor = 0.30

// Map is an open-addressing string-keyed map with linear probing.
//
// It is not safe for concurrent use; callers (internal/cache,
// internal/wtable) provide their own locking.
type Map struct {
	slots   []slot
	inUse   int
	removed int
}

// New returns an empty map sized for at least capacity entries.
func New(capacity int) *Map {
	size := minSize
	if capacity > 0 {
		size = capacity
	}

	return &Map{slots: make([]slot, size)}
}

// Len reports the number of live (in-use) entries.
func (m *Map) Len() int { return m.inUse }

// Get returns the value stored under key, if any.
func (m *Map) Get(key string) (any, bool) {
	idx := m.probe(key)
	if idx < 0 {
		return nil, false
	}

	return m.slots[idx].value, true
}

// Set inserts or replaces the value for key.
func (m *Map) Set(key string, value any) {
	size := len(m.slots)
	h := hash(key)

	for i := 0; i < size; i++ {
		idx := int((h + uint32(i)) % uint32(size))
		s := &m.slots[idx]

		switch s.state {
		case slotNever:
			m.insertAt(idx, key, value)

			return
		case slotRemoved:
			// REMOVED slots are never reused on insert (spec invariant);
			// keep probing past them since the key might still be
			// further down the chain, IN_USE.
		case slotInUse:
			if s.key == key {
				s.value = value

				return
			}
		}
	}

	// table is full of IN_USE/REMOVED with no NEVER slot and no match;
	// this only happens if resize policy failed to keep headroom.
	m.grow(2 * (m.inUse + 1))
	m.Set(key, value)
}

// insertAt writes a brand-new entry into a NEVER slot and runs the
// resize policy.
func (m *Map) insertAt(idx int, key string, value any) {
	m.slots[idx] = slot{key: key, value: value, state: slotInUse}
	m.inUse++
	m.maybeResize()
}

// Range calls fn for every live entry, in slot order. fn must not mutate
// the map.
func (m *Map) Range(fn func(key string, value any)) {
	for _, s := range m.slots {
		if s.state == slotInUse {
			fn(s.key, s.value)
		}
	}
}

// Del removes key, if present.
func (m *Map) Del(key string) bool {
	idx := m.probe(key)
	if idx < 0 {
		return false
	}

	m.slots[idx] = slot{state: slotRemoved}
	m.inUse--
	m.removed++
	m.maybeResize()

	return true
}

// probe returns the slot index holding key, or -1 if absent. Probing stops
// at the first NEVER slot, which is why REMOVED slots are never reused on
// insert: it keeps this miss path a single linear scan.
func (m *Map) probe(key string) int {
	size := len(m.slots)
	if size == 0 {
		return -1
	}

	h := hash(key)

	for i := 0; i < size; i++ {
		idx := int((h + uint32(i)) % uint32(size))
		s := &m.slots[idx]

		switch s.state {
		case slotNever:
			return -1
		case slotInUse:
			if s.key == key {
				return idx
			}
		case slotRemoved:
			// skip, chain may continue
		}
	}

	return -1
}

// maybeResize applies the auto-resize policy.
func (m *Map) maybeResize() {
	size := len(m.slots)
	if size == 0 {
		return
	}

	usable := 1 - float64(m.inUse+m.removed)/float64(size)
	if usable < usableFloor {
		target := 2 * m.inUse
		if target < minSize {
			target = minSize
		}

		m.grow(target)

		return
	}

	if size > minSize && float64(m.inUse)/float64(size) < usableFloor {
		target := 2 * m.inUse
		if target < minSize {
			target = minSize
		}

		m.grow(target)
	}
}

// grow reallocates the table at newSize and rehashes every live entry. The
// old table stays untouched until the new one is fully populated, so a
// failed resize never poisons the map.
func (m *Map) grow(newSize int) {
	if newSize < minSize {
		newSize = minSize
	}

	fresh := &Map{slots: make([]slot, newSize)}

	for _, s := range m.slots {
		if s.state == slotInUse {
			fresh.insertPlain(s.key, s.value)
		}
	}

	m.slots = fresh.slots
	m.inUse = fresh.inUse
	m.removed = 0
}

// insertPlain inserts into a table known to have room, without triggering
// the resize policy recursively. Used only by grow while rebuilding.
func (m *Map) insertPlain(key string, value any) {
	size := len(m.slots)
	h := hash(key)

	for i := 0; i < size; i++ {
		idx := int((h + uint32(i)) % uint32(size))
		if m.slots[idx].state == slotNever {
			m.slots[idx] = slot{key: key, value: value, state: slotInUse}
			m.inUse++

			return
		}
	}
}

// hash mixes key bytes into a 32-bit value (MurmurHash2, fixed seed).
func hash(key string) uint32 {
	const (
		seed = 0x9747b28c
		m    = 0x5bd1e995
		r    = 24
	)

	data := []byte(key)
	length := uint32(len(data))

	h := seed ^ length

	for len(data) >= 4 {
		k := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24

		k *= m
		k ^= k >> r
		k *= m

		h *= m
		h ^= k

		data = data[4:]
	}

	switch len(data) {
	case 3:
		h ^= uint32(data[2]) << 16

		fallthrough
	case 2:
		h ^= uint32(data[1]) << 8

		fallthrough
	case 1:
		h ^= uint32(data[0])
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15

	return h
}
