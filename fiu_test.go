package fiu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/albertito/fiu/internal/registry"
)

func newReady(t *testing.T) *Fiu {
	t.Helper()

	f := New()
	require.NoError(t, f.Init())

	return f
}

func TestEnableThenFail(t *testing.T) {
	f := newReady(t)

	require.NoError(t, f.Enable("io/read", 42, nil, 0))
	require.Equal(t, 42, f.Fail("io/read"))
}

func TestDisable(t *testing.T) {
	f := newReady(t)

	require.NoError(t, f.Enable("io/read", 42, nil, 0))
	require.NoError(t, f.Disable("io/read"))
	require.Equal(t, 0, f.Fail("io/read"))
}

func TestRCString_EnableThenFail(t *testing.T) {
	f := newReady(t)

	reply, err := f.RCString("enable name=io/read,failnum=9")
	require.NoError(t, err)
	require.Equal(t, 0, reply)

	require.Equal(t, 9, f.Fail("io/read"))
}

func TestRCString_ParseErrorReturned(t *testing.T) {
	f := newReady(t)

	_, err := f.RCString("not a command")
	require.Error(t, err)
}

func TestRCString_List(t *testing.T) {
	f := newReady(t)
	require.NoError(t, f.Enable("a", 1, nil, 0))
	require.NoError(t, f.Enable("b", 1, nil, 0))

	reply, err := f.RCString("list")
	require.NoError(t, err)
	require.Equal(t, 2, reply)
}

func TestDefault_IsLazyAndShared(t *testing.T) {
	require.NoError(t, Default().Enable("default/point", 3, nil, 0))
	require.Equal(t, 3, Fail("default/point"))
	require.NoError(t, Default().Disable("default/point"))
}

func TestEnableExternal_ViaFiu(t *testing.T) {
	f := newReady(t)

	require.NoError(t, f.EnableExternal("cb", 1, nil, 0, func(name string, failnum *int, failinfo *any, flags *registry.Flags) bool {
		return true
	}))

	require.Equal(t, 1, f.Fail("cb"))
}
