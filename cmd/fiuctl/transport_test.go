package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/albertito/fiu"
)

func TestLocalTransport_SendRoundTrip(t *testing.T) {
	f := fiu.New()
	require.NoError(t, f.Init())

	t.Cleanup(func() { _ = f })

	lt := &localTransport{f: f}

	reply, err := lt.Send("enable name=io/read,failnum=5")
	require.NoError(t, err)
	require.Equal(t, "0", reply)

	require.Equal(t, 5, f.Fail("io/read"))
}

func TestLocalTransport_SendParseErrorPropagates(t *testing.T) {
	f := fiu.New()
	require.NoError(t, f.Init())

	lt := &localTransport{f: f}

	_, err := lt.Send("not a real command")
	require.Error(t, err)
}
