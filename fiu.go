package fiu

import (
	"sync"

	"github.com/albertito/fiu/internal/fifo"
	"github.com/albertito/fiu/internal/rc"
	"github.com/albertito/fiu/internal/registry"
)

// Fiu is one fault-injection instance: a registry of points of failure plus
// an optional control channel. The zero value is not ready for use; call
// New.
//
// Fiu is an explicit value, not ambient package-level state, so a test
// suite can run several independent instances concurrently; see Default
// for the single-global-instance convenience most callers want instead.
type Fiu struct {
	reg *registry.Registry

	fifoMu sync.Mutex
	server *fifo.Server
}

// New returns an uninitialized Fiu. Call Init before Fail/Enable/Disable.
func New() *Fiu {
	return &Fiu{reg: registry.New()}
}

// Init prepares the registry for use. Idempotent and safe to call from
// multiple goroutines.
func (f *Fiu) Init() error {
	return f.reg.Init()
}

// Fail evaluates the named point of failure and returns its failnum, or 0
// if the point isn't enabled, hasn't fired, or the call is a reentrant
// call from inside the library itself.
func (f *Fiu) Fail(name string) int {
	return f.reg.Fail(name)
}

// FailInfo returns the calling goroutine's failinfo from its most recent
// non-zero Fail. Its value is undefined if Fail hasn't returned non-zero
// on this goroutine yet.
func (f *Fiu) FailInfo() any {
	return f.reg.FailInfo()
}

// Enable installs an unconditional (ALWAYS) point of failure.
func (f *Fiu) Enable(name string, failnum int, failinfo any, flags registry.Flags) error {
	return f.reg.Enable(name, failnum, failinfo, flags)
}

// EnableRandom installs a point that fails with the given probability
// (registry.AlwaysProbability behaves like Enable).
func (f *Fiu) EnableRandom(name string, failnum int, failinfo any, flags registry.Flags, probability float64) error {
	return f.reg.EnableRandom(name, failnum, failinfo, flags, probability)
}

// EnableExternal installs a point whose firing decision is delegated to
// callback on every Fail. The callback is borrowed: it must remain valid
// for as long as the point stays enabled.
func (f *Fiu) EnableExternal(name string, failnum int, failinfo any, flags registry.Flags, callback registry.ExternalFunc) error {
	return f.reg.EnableExternal(name, failnum, failinfo, flags, callback)
}

// EnableStackByName installs a point that fires when funcName appears
// anywhere on the caller's stack. posInStack must be -1
// (registry.AnyPosition's underlying value); matching at a specific stack
// depth is out of scope.
func (f *Fiu) EnableStackByName(name string, failnum int, failinfo any, flags registry.Flags, funcName string, posInStack int) error {
	return f.reg.EnableStackByName(name, failnum, failinfo, flags, funcName, posInStack)
}

// Disable removes name from the registry.
func (f *Fiu) Disable(name string) error {
	return f.reg.Disable(name)
}

// Points returns a snapshot of every currently-enabled point, for
// diagnostics.
func (f *Fiu) Points() []registry.PointInfo {
	return f.reg.Points()
}

// ReseedForChild reseeds the PRNG from the wall clock. Go has no native
// fork(); call this in a child process that inherited this Fiu's memory
// image across syscall.ForkExec/os.StartProcess without an intervening
// exec.
func (f *Fiu) ReseedForChild() {
	f.reg.ReseedForChild()
}
