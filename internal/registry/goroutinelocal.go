package registry

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// localState is the per-goroutine equivalent of per-thread state: a
// reentrancy counter and the last-failinfo slot read by FailInfo.
//
// Go has no native thread-local storage, and every API entry point here
// runs on a single goroutine for the duration of a call, so a map keyed by
// goroutine ID stands in for it. Entries are never removed: goroutine IDs
// are reused by the runtime once a goroutine exits, so the map's
// steady-state size tracks live-plus-recently-live goroutine count rather
// than growing without bound in practice.
type localState struct {
	rec          int
	lastFailinfo any
}

var goroutineStates sync.Map // map[uint64]*localState

// currentGoroutineID parses the running goroutine's numeric ID out of
// runtime.Stack's header line ("goroutine 123 [running]:"). This is the
// standard workaround for Go's lack of a public goroutine-ID API.
// getLocalState calls it on every lookup, since the ID is the key into
// goroutineStates.
func currentGoroutineID() uint64 {
	buf := make([]byte, 64)

	n := runtime.Stack(buf, false)
	buf = buf[:n]

	fields := bytes.Fields(buf)
	if len(fields) < 2 {
		return 0
	}

	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)

	return id
}

// getLocalState returns (creating if necessary) the calling goroutine's
// local state.
func getLocalState() *localState {
	id := currentGoroutineID()

	if v, ok := goroutineStates.Load(id); ok {
		return v.(*localState)
	}

	ls := &localState{}

	actual, _ := goroutineStates.LoadOrStore(id, ls)

	return actual.(*localState)
}
