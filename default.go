package fiu

import "sync"

var (
	defaultOnce sync.Once
	defaultFiu  *Fiu
)

// Default returns a process-wide, lazily-initialized Fiu, for callers that
// want the single-global-registry ergonomics of the original API (e.g.
// top-level fiu.Fail(name) helpers) rather than threading an explicit
// *Fiu through their call graph.
func Default() *Fiu {
	defaultOnce.Do(func() {
		defaultFiu = New()
		_ = defaultFiu.Init()
	})

	return defaultFiu
}

// Fail is a shorthand for Default().Fail(name).
func Fail(name string) int {
	return Default().Fail(name)
}

// FailInfo is a shorthand for Default().FailInfo().
func FailInfo() any {
	return Default().FailInfo()
}
