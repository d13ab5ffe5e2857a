package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompleter_PrefixMatch(t *testing.T) {
	r := &repl{}

	require.ElementsMatch(t, []string{"enable", "enable_random", "enable_stack_by_name"}, r.completer("ena"))
	require.Equal(t, []string{"disable"}, r.completer("dis"))
	require.Empty(t, r.completer("zzz"))
}

func TestExpandHome_LeavesAbsolutePathsAlone(t *testing.T) {
	require.Equal(t, "/tmp/history", expandHome("/tmp/history"))
}

func TestExpandHome_ExpandsTilde(t *testing.T) {
	expanded := expandHome("~/.cache/fiu/history")
	require.NotEqual(t, "~/.cache/fiu/history", expanded)
	require.Contains(t, expanded, ".cache/fiu/history")
}
