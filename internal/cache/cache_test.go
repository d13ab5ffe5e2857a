package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache_MissThenSetThenHit(t *testing.T) {
	c := New(4)

	_, ok := c.Get("k")
	require.False(t, ok)

	c.Set("k", 42)

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestCache_NegativeHit(t *testing.T) {
	c := New(4)

	c.Set("missing", nil)

	v, ok := c.Get("missing")
	require.True(t, ok, "a cached nil must still report ok=true")
	require.Nil(t, v)
}

func TestCache_InvalidateClearsEverything(t *testing.T) {
	c := New(4)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate()

	_, ok := c.Get("a")
	require.False(t, ok)

	_, ok = c.Get("b")
	require.False(t, ok)
}

func TestCache_ConcurrentReadersDoNotRace(t *testing.T) {
	c := New(16)
	c.Set("x", 1)

	done := make(chan struct{})

	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()

			for range 1000 {
				c.Get("x")
			}
		}()
	}

	for range 8 {
		<-done
	}
}
