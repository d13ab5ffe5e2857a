// Package prng implements the linear congruential generator used by the
// PROB decision method. It is deliberately not math/rand: the exact
// recurrence is specified so draws are reproducible across
// implementations. Nothing reseeds it automatically on fork; a child calls
// ReseedFromClock (via Registry.ReseedForChild) to diverge from its parent.
package prng

import (
	"sync"
	"time"
)

const (
	lcgMul = 1103515245
	lcgAdd = 12345
)

// PRNG is a non-cryptographic generator. The zero value is not ready for
// use; call New or Seed first.
//
// Concurrent draws are serialized by a plain mutex guarding the state
// word, which also keeps Go's race detector quiet when several goroutines
// draw at once.
type PRNG struct {
	mu    sync.Mutex
	state uint32
}

// New returns a PRNG seeded from the wall clock's microsecond component.
func New() *PRNG {
	p := &PRNG{}
	p.Seed(uint32(time.Now().UnixMicro()))

	return p
}

// Seed resets the generator state directly. Exposed for deterministic
// tests; production callers should use New or ReseedFromClock.
func (p *PRNG) Seed(seed uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = seed
}

// ReseedFromClock reseeds from the current wall clock, used after a fork
// to avoid seed (and therefore sequence) reuse between parent and child.
func (p *PRNG) ReseedFromClock() {
	p.Seed(uint32(time.Now().UnixMicro()))
}

// Float64 returns the next draw in [0, 1).
func (p *PRNG) Float64() float64 {
	p.mu.Lock()
	p.state = lcgMul*p.state + lcgAdd
	x := p.state
	p.mu.Unlock()

	return float64(x) / (1 << 32)
}
