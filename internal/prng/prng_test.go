package prng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPRNG_DeterministicFromSeed(t *testing.T) {
	a := &PRNG{}
	a.Seed(1)

	b := &PRNG{}
	b.Seed(1)

	for range 32 {
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestPRNG_DifferentSeedsDiverge(t *testing.T) {
	a := &PRNG{}
	a.Seed(1)

	b := &PRNG{}
	b.Seed(2)

	disagree := 0

	for range 32 {
		if a.Float64() != b.Float64() {
			disagree++
		}
	}

	require.Greater(t, disagree, 30)
}

func TestPRNG_DrawsAreWithinUnitInterval(t *testing.T) {
	p := New()

	for range 10000 {
		v := p.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestPRNG_EmpiricalRateNearTarget(t *testing.T) {
	p := &PRNG{}
	p.Seed(12345)

	const (
		trials = 1_000_000
		target = 0.25
	)

	hits := 0

	for range trials {
		if target > p.Float64() {
			hits++
		}
	}

	rate := float64(hits) / trials
	require.InDelta(t, target, rate, 0.01)
}

func TestPRNG_ReseedFromClockChangesSequence(t *testing.T) {
	p := &PRNG{}
	p.Seed(42)

	first := p.Float64()

	p.ReseedFromClock()

	// Vanishingly unlikely to collide with the microsecond-seeded draw.
	second := p.Float64()
	require.NotEqual(t, first, second)
}
