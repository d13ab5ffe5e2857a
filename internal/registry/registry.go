// Package registry implements the process-wide point-of-failure table
// and the decision engine that evaluates fiu_fail against it.
package registry

import (
	"errors"
	"sync"

	"github.com/albertito/fiu/internal/prng"
	"github.com/albertito/fiu/internal/stackpred"
	"github.com/albertito/fiu/internal/wtable"
)

// ErrNotFound is returned by Disable when the named point does not exist.
var ErrNotFound = errors.New("fiu: point not found")

// ErrInvalidArgument is returned when an enable* call is given an
// out-of-range option.
var ErrInvalidArgument = errors.New("fiu: invalid argument")

// ErrCapabilityUnavailable is returned by EnableStackByName when the
// backtrace capability does not work on this platform.
var ErrCapabilityUnavailable = errors.New("fiu: backtrace capability unavailable")

// Registry is one process-wide (or test-scoped) point-of-failure table.
// The zero value is not ready for use; call New.
type Registry struct {
	mu    sync.RWMutex
	table *wtable.Table
	prng  *prng.PRNG

	initMu      sync.Mutex
	initialized bool

	backtraceOK     bool
	backtraceProbed bool
}

// New returns a ready-to-Init registry.
func New() *Registry {
	return &Registry{}
}

// Init is idempotent and safe to call from multiple goroutines: only the
// first call creates the wildcard table and seeds the PRNG.
func (r *Registry) Init() error {
	_, leave := enterAPI()
	defer leave()

	r.initMu.Lock()
	defer r.initMu.Unlock()

	if r.initialized {
		return nil
	}

	r.mu.Lock()
	r.table = wtable.New()
	r.prng = prng.New()
	r.mu.Unlock()

	r.initialized = true

	return nil
}

// ReseedForChild reseeds the PRNG from the wall clock. Go has no native
// fork(); call this explicitly after syscall.ForkExec/os.StartProcess in a
// child process that inherited this Registry's memory image without an
// intervening exec.
func (r *Registry) ReseedForChild() {
	r.mu.RLock()
	p := r.prng
	r.mu.RUnlock()

	if p != nil {
		p.ReseedFromClock()
	}
}

// enterAPI marks entry into any API function for the reentrancy counter:
// it increments on entry, and callers must invoke the returned func on
// every return path (typically via defer) to decrement it again.
func enterAPI() (ls *localState, leave func()) {
	ls = getLocalState()
	ls.rec++

	return ls, func() { ls.rec-- }
}

// PinReentrancy increments the calling goroutine's reentrancy counter and
// returns a func that decrements it. internal/fifo's worker goroutine calls
// this once and holds the returned func for its entire lifetime, so any
// Fail call the worker makes (directly, or via a wrapped libc-equivalent)
// short-circuits to 0 instead of re-entering the registry — the worker
// must stay invisible to it.
func PinReentrancy() (leave func()) {
	_, leave = enterAPI()

	return leave
}

// Fail implements the decision engine's entry point.
func (r *Registry) Fail(name string) int {
	ls, leave := enterAPI()
	defer leave()

	if ls.rec > 1 {
		// Reentrant call from inside an interposed libc-equivalent;
		// short-circuit without touching the registry lock at all.
		return 0
	}

	r.mu.RLock()

	v, found := r.table.Get(name)
	if !found {
		r.mu.RUnlock()

		return 0
	}

	pf, _ := v.(*Point)

	shouldFail, failnum, failinfo := r.evaluate(pf)

	r.mu.RUnlock()

	if !shouldFail {
		return 0
	}

	ls.lastFailinfo = failinfo

	return failnum
}

// FailInfo returns the calling goroutine's last-failinfo slot. Its value
// is undefined if no failure has occurred on this goroutine.
func (r *Registry) FailInfo() any {
	_, leave := enterAPI()
	defer leave()

	return getLocalState().lastFailinfo
}

// evaluate runs one point's method and, for Onetime points, its one-shot
// arming, while the registry's read lock is held by the caller. It
// captures failnum/failinfo into locals before returning so a concurrent
// Disable freeing the point cannot race the caller's use of the result.
func (r *Registry) evaluate(pf *Point) (shouldFail bool, failnum int, failinfo any) {
	onetime := pf.Flags&Onetime != 0

	if onetime {
		pf.mu.Lock()
		defer pf.mu.Unlock()

		if pf.failedOnce {
			return false, 0, nil
		}
	}

	switch pf.Method {
	case Always:
		shouldFail = true
	case Prob:
		if pf.Probability == AlwaysProbability {
			shouldFail = true
		} else {
			shouldFail = pf.Probability > r.prng.Float64()
		}
	case External:
		if pf.External != nil {
			shouldFail = pf.External(pf.Name, &pf.Failnum, &pf.Failinfo, &pf.Flags)
		}
	case Stack:
		frames, ok := stackpred.Capture(2)
		shouldFail = ok && stackpred.Evaluate(pf.Stack, frames)
	}

	if !shouldFail {
		return false, 0, nil
	}

	if onetime {
		pf.failedOnce = true
	}

	return true, pf.Failnum, pf.Failinfo
}

// insert installs pf into the table under the write lock.
func (r *Registry) insert(pf *Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.table.Set(pf.Name, pf)
}

// Enable installs an ALWAYS point.
func (r *Registry) Enable(name string, failnum int, failinfo any, flags Flags) error {
	_, leave := enterAPI()
	defer leave()

	if name == "" {
		return ErrInvalidArgument
	}

	r.insert(&Point{Name: name, Failnum: failnum, Failinfo: failinfo, Flags: flags, Method: Always})

	return nil
}

// EnableRandom installs a PROB point.
func (r *Registry) EnableRandom(name string, failnum int, failinfo any, flags Flags, probability float64) error {
	_, leave := enterAPI()
	defer leave()

	if name == "" {
		return ErrInvalidArgument
	}

	if probability != AlwaysProbability && (probability < 0 || probability > 1) {
		return ErrInvalidArgument
	}

	r.insert(&Point{
		Name: name, Failnum: failnum, Failinfo: failinfo, Flags: flags,
		Method: Prob, Probability: probability,
	})

	return nil
}

// EnableExternal installs an EXTERNAL point. The callback is borrowed; see
// ExternalFunc's doc comment.
func (r *Registry) EnableExternal(name string, failnum int, failinfo any, flags Flags, callback ExternalFunc) error {
	_, leave := enterAPI()
	defer leave()

	if name == "" || callback == nil {
		return ErrInvalidArgument
	}

	r.insert(&Point{
		Name: name, Failnum: failnum, Failinfo: failinfo, Flags: flags,
		Method: External, External: callback,
	})

	return nil
}

// EnableStackByName installs a STACK point that fires when funcName
// appears anywhere on the current call stack. posInStack must be -1
// (stack-frame matching at a specific depth is out of scope); any other
// value is ErrInvalidArgument.
func (r *Registry) EnableStackByName(name string, failnum int, failinfo any, flags Flags, funcName string, posInStack int) error {
	_, leave := enterAPI()
	defer leave()

	if name == "" || funcName == "" {
		return ErrInvalidArgument
	}

	if posInStack != stackpred.AnyPosition {
		return ErrInvalidArgument
	}

	if !r.probeBacktrace() {
		return ErrCapabilityUnavailable
	}

	frames, ok := stackpred.Capture(1)
	if !ok {
		return ErrCapabilityUnavailable
	}

	addr, ok := stackpred.SymbolAddress(frames, funcName)
	if !ok {
		return ErrCapabilityUnavailable
	}

	start, end, ok := stackpred.SymbolRange(addr)
	if !ok {
		return ErrCapabilityUnavailable
	}

	r.insert(&Point{
		Name: name, Failnum: failnum, Failinfo: failinfo, Flags: flags,
		Method: Stack,
		Stack:  stackpred.Target{Start: start, End: end, HasEnd: true, Pos: stackpred.AnyPosition},
	})

	return nil
}

// probeBacktrace verifies the backtrace capability works, once, and
// caches the result.
func (r *Registry) probeBacktrace() bool {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	if r.backtraceProbed {
		return r.backtraceOK
	}

	_, ok := stackpred.Capture(1)
	r.backtraceOK = ok
	r.backtraceProbed = true

	return ok
}

// Disable removes name from the registry.
func (r *Registry) Disable(name string) error {
	_, leave := enterAPI()
	defer leave()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.table.Del(name) {
		return ErrNotFound
	}

	return nil
}

// PointInfo is a snapshot of one enabled point, for introspection.
type PointInfo struct {
	Name    string
	Failnum int
	Method  Method
	Flags   Flags
}

// Points returns a snapshot of every currently-enabled point.
func (r *Registry) Points() []PointInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []PointInfo

	visit := func(key string, value any) {
		pf, _ := value.(*Point)
		if pf == nil {
			return
		}

		out = append(out, PointInfo{Name: pf.Name, Failnum: pf.Failnum, Method: pf.Method, Flags: pf.Flags})
	}

	r.table.Entries(visit, visit)

	return out
}
