package registry

import (
	"sync"

	"github.com/albertito/fiu/internal/stackpred"
)

// Flags is a bitset of point attributes. Currently only Onetime is
// defined.
type Flags uint32

// Onetime marks a point that fires at most once over its lifetime.
const Onetime Flags = 1 << 0

// Method selects how a point decides whether to fail.
type Method uint8

const (
	// Always fails unconditionally.
	Always Method = iota
	// Prob fails with a configured probability (or unconditionally, if
	// Probability is the sentinel AlwaysProbability).
	Prob
	// External defers the decision to a caller-supplied predicate.
	External
	// Stack fails only if a target function appears on the call stack.
	Stack
)

// AlwaysProbability is the sentinel probability value ("-1") that behaves
// identically to Always, preserved for command-line ergonomics.
const AlwaysProbability = -1.0

// ExternalFunc is the external-predicate callback for Method External. It
// receives the point's current failnum/failinfo/flags by pointer and may
// mutate them in place; those mutations are visible for this invocation
// and persist in the point. It returns true to fail.
//
// The callback is borrowed, not owned: the caller must keep it (and
// whatever it closes over) alive for as long as the point is enabled.
type ExternalFunc func(name string, failnum *int, failinfo *any, flags *Flags) bool

// Point is a single point of failure: identity, decision method, and
// one-shot arming state.
type Point struct {
	Name string

	Failnum  int
	Failinfo any
	Flags    Flags

	Method      Method
	Probability float64 // Method == Prob
	External    ExternalFunc
	Stack       stackpred.Target // Method == Stack

	// mu is taken only when Flags has Onetime set, strictly nested inside
	// the registry's read lock, and never held across a call that could
	// re-enter the registry.
	mu         sync.Mutex
	failedOnce bool
}
