// Package stackpred implements the STACK decision method's capability
// boundary: three small functions that capture a call stack and resolve
// symbol addresses/ranges, and the match predicate that sits on top of
// them. These stay deliberately abstract so a platform without working
// backtraces degrades gracefully; Go's runtime.Callers/CallersFrames are
// the concrete backing here.
package stackpred

import "runtime"

// MaxFrames bounds how many return addresses Capture collects.
const MaxFrames = 100

// Target describes what a STACK method is looking for in the call stack.
type Target struct {
	// Start and End bound an address range considered "inside the
	// target". End is ignored (SymbolRange is consulted instead) when
	// HasEnd is false.
	Start  uintptr
	End    uintptr
	HasEnd bool

	// Pos is the required frame index, or -1 to match any depth.
	// Matching at a specific depth other than "any" is out of scope for
	// callers: Registry.EnableStackByName rejects it, but Evaluate still honors a
	// non-(-1) Pos for completeness/tests.
	Pos int
}

// AnyPosition is the sentinel meaning "match at any stack depth".
const AnyPosition = -1

// Capture collects up to MaxFrames return addresses from the calling
// goroutine's stack, skipping skip leading frames (in addition to
// Capture's own frame). ok is false if the runtime reported nothing
// (the Go runtime's backtrace capability is effectively always available,
// but the signature mirrors the abstract capability boundary this
// package models).
func Capture(skip int) (frames []uintptr, ok bool) {
	pcs := make([]uintptr, MaxFrames)

	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil, false
	}

	return pcs[:n], true
}

// SymbolAddress resolves a function name to its entry address. Go has no
// public symbol-table-by-name lookup, so this walks the call stack of every
// captured frame via runtime.FuncForPC and compares fully-qualified names;
// this only works for functions that appear somewhere in frames already
// captured by Capture, which matches this library's only use (stack-depth
// fault injection, not general symbolization).
func SymbolAddress(frames []uintptr, name string) (addr uintptr, ok bool) {
	for _, pc := range frames {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		if fn.Name() == name {
			return fn.Entry(), true
		}
	}

	return 0, false
}

// SymbolRange returns the [start, end) address range of the function
// containing addr, if known.
func SymbolRange(addr uintptr) (start, end uintptr, ok bool) {
	fn := runtime.FuncForPC(addr)
	if fn == nil {
		return 0, 0, false
	}

	entry := fn.Entry()

	// runtime.Func does not expose a function's end address directly;
	// approximate it by scanning forward for the next symbol boundary.
	// This is a heuristic best-effort range, sufficient for the
	// inside-the-target test below (which only needs "this PC belongs to
	// this function"), not for general disassembly.
	next := entry + 1

	for off := uintptr(1); off < 1<<20; off++ {
		candidate := entry + off
		if f := runtime.FuncForPC(candidate); f == nil || f.Entry() != entry {
			next = candidate

			break
		}
	}

	return entry, next, true
}

// Evaluate implements the STACK method's match rule: a
// frame is "inside the target" if its address falls in [Start, End] (when
// HasEnd) or if SymbolRange(addr) resolves to the same entry as Start.
// Evaluate fails (returns true) iff any captured frame is inside the
// target and either Pos is AnyPosition or equals that frame's index.
func Evaluate(target Target, frames []uintptr) bool {
	for i, pc := range frames {
		if !insideTarget(target, pc) {
			continue
		}

		if target.Pos == AnyPosition || target.Pos == i {
			return true
		}
	}

	return false
}

func insideTarget(target Target, addr uintptr) bool {
	if target.HasEnd {
		return target.Start <= addr && addr <= target.End
	}

	start, _, ok := SymbolRange(addr)

	return ok && start == target.Start
}
