package rc

import "github.com/albertito/fiu/internal/registry"

// API is the subset of (*fiu.Fiu) that Dispatch needs. It is declared here,
// rather than importing package fiu directly, to avoid an import cycle:
// fiu.RCString calls into rc.Dispatch, and rc.Dispatch calls back into the
// Fiu value that owns it.
type API interface {
	Enable(name string, failnum int, failinfo any, flags registry.Flags) error
	EnableRandom(name string, failnum int, failinfo any, flags registry.Flags, probability float64) error
	EnableStackByName(name string, failnum int, failinfo any, flags registry.Flags, funcName string, posInStack int) error
	Disable(name string) error
	Points() []registry.PointInfo
}

// Dispatch calls the API method matching cmd.Kind and returns the integer
// reply the control channel writes back to its caller. Errors map to -1;
// List never errors and its "value" is its point count, since the control
// channel's reply line is a single integer. RCString returns the same
// count; neither path reports the names of the listed points.
func Dispatch(cmd Command, api API) int {
	var flags registry.Flags
	if cmd.Onetime {
		flags |= registry.Onetime
	}

	var failinfo any
	if cmd.HasFailinfo {
		failinfo = cmd.Failinfo
	}

	switch cmd.Kind {
	case Disable:
		if err := api.Disable(cmd.Name); err != nil {
			return -1
		}

		return 0
	case Enable:
		if err := api.Enable(cmd.Name, cmd.Failnum, failinfo, flags); err != nil {
			return -1
		}

		return 0
	case EnableRandom:
		if err := api.EnableRandom(cmd.Name, cmd.Failnum, failinfo, flags, cmd.Probability); err != nil {
			return -1
		}

		return 0
	case EnableStackByName:
		if err := api.EnableStackByName(cmd.Name, cmd.Failnum, failinfo, flags, cmd.FuncName, cmd.PosInStack); err != nil {
			return -1
		}

		return 0
	case List:
		return len(api.Points())
	default:
		return -1
	}
}
