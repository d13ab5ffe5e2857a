package stackpred

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func innerFrame() []uintptr {
	frames, ok := Capture(0)
	if !ok {
		return nil
	}

	return frames
}

func TestCapture_ReturnsFrames(t *testing.T) {
	frames := innerFrame()
	require.NotEmpty(t, frames)
}

func TestSymbolAddress_ResolvesCallingTestFunction(t *testing.T) {
	frames := innerFrame()
	require.NotEmpty(t, frames)

	addr, ok := SymbolAddress(frames, "github.com/albertito/fiu/internal/stackpred.TestSymbolAddress_ResolvesCallingTestFunction")
	require.True(t, ok)
	require.NotZero(t, addr)
}

func TestEvaluate_AnyPositionMatchesTargetAnywhereInStack(t *testing.T) {
	frames := innerFrame()
	require.NotEmpty(t, frames)

	start, end, ok := SymbolRange(frames[0])
	require.True(t, ok)

	target := Target{Start: start, End: end, HasEnd: true, Pos: AnyPosition}
	require.True(t, Evaluate(target, frames))
}

func TestEvaluate_NoMatchForUnrelatedAddress(t *testing.T) {
	frames := innerFrame()
	require.NotEmpty(t, frames)

	target := Target{Start: 1, End: 2, HasEnd: true, Pos: AnyPosition}
	require.False(t, Evaluate(target, frames))
}

func TestEvaluate_SpecificPositionMustMatchThatFrame(t *testing.T) {
	frames := innerFrame()
	require.GreaterOrEqual(t, len(frames), 2)

	start, end, ok := SymbolRange(frames[0])
	require.True(t, ok)

	// frame 0 is inside the target, but we ask for a different position.
	target := Target{Start: start, End: end, HasEnd: true, Pos: 5}
	require.False(t, Evaluate(target, frames))
}
