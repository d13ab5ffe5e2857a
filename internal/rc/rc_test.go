package rc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/albertito/fiu/internal/registry"
)

func TestParse_Enable(t *testing.T) {
	cmd, err := Parse("enable name=io/read,failnum=5,onetime")
	require.NoError(t, err)

	want := Command{
		Kind: Enable, Name: "io/read", Failnum: 5,
		Probability: defaultProbability, PosInStack: defaultPosInStack,
		Onetime: true,
	}

	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_EnableRandomDefaultsProbability(t *testing.T) {
	cmd, err := Parse("enable_random name=p")
	require.NoError(t, err)
	require.InDelta(t, -1.0, cmd.Probability, 0)
}

func TestParse_EnableStackByName(t *testing.T) {
	cmd, err := Parse("enable_stack_by_name name=s,func_name=main.main,pos_in_stack=-1")
	require.NoError(t, err)
	require.Equal(t, "main.main", cmd.FuncName)
	require.Equal(t, -1, cmd.PosInStack)
}

func TestParse_Disable(t *testing.T) {
	cmd, err := Parse("disable name=io/read")
	require.NoError(t, err)
	require.Equal(t, Disable, cmd.Kind)
	require.Equal(t, "io/read", cmd.Name)
}

func TestParse_List(t *testing.T) {
	cmd, err := Parse("list")
	require.NoError(t, err)
	require.Equal(t, List, cmd.Kind)
}

func TestParse_FailinfoParsedAsUnsignedDecimal(t *testing.T) {
	cmd, err := Parse("enable name=p,failinfo=18446744073709551615")
	require.NoError(t, err)
	require.True(t, cmd.HasFailinfo)
	require.Equal(t, uint64(18446744073709551615), cmd.Failinfo)
}

func TestParse_UnknownCommand(t *testing.T) {
	_, err := Parse("frobnicate name=x")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParse_MissingName(t *testing.T) {
	_, err := Parse("enable failnum=1")
	require.Error(t, err)
}

func TestParse_UnknownOption(t *testing.T) {
	_, err := Parse("enable name=x,bogus=1")
	require.Error(t, err)
}

func TestParse_MalformedOption(t *testing.T) {
	_, err := Parse("enable name=x,failnum")
	require.Error(t, err)
}

func TestParse_InvalidNumericOption(t *testing.T) {
	_, err := Parse("enable name=x,failnum=notanumber")
	require.Error(t, err)
}

func TestParse_TrimsWhitespace(t *testing.T) {
	cmd, err := Parse("  enable name=x, failnum=2  \n")
	require.NoError(t, err)
	require.Equal(t, "x", cmd.Name)
	require.Equal(t, 2, cmd.Failnum)
}

type stubAPI struct {
	enableErr error
	points    []registry.PointInfo
}

func (s *stubAPI) Enable(name string, failnum int, failinfo any, flags registry.Flags) error {
	return s.enableErr
}

func (s *stubAPI) EnableRandom(name string, failnum int, failinfo any, flags registry.Flags, probability float64) error {
	return s.enableErr
}

func (s *stubAPI) EnableStackByName(name string, failnum int, failinfo any, flags registry.Flags, funcName string, posInStack int) error {
	return s.enableErr
}

func (s *stubAPI) Disable(name string) error {
	return s.enableErr
}

func (s *stubAPI) Points() []registry.PointInfo {
	return s.points
}

func TestDispatch_SuccessReturnsZero(t *testing.T) {
	cmd, err := Parse("enable name=x")
	require.NoError(t, err)

	require.Equal(t, 0, Dispatch(cmd, &stubAPI{}))
}

func TestDispatch_ErrorReturnsNegativeOne(t *testing.T) {
	cmd, err := Parse("disable name=x")
	require.NoError(t, err)

	require.Equal(t, -1, Dispatch(cmd, &stubAPI{enableErr: registry.ErrNotFound}))
}

func TestDispatch_ListReturnsPointCount(t *testing.T) {
	cmd, err := Parse("list")
	require.NoError(t, err)

	api := &stubAPI{points: []registry.PointInfo{{Name: "a"}, {Name: "b"}}}
	require.Equal(t, 2, Dispatch(cmd, api))
}
