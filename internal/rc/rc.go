// Package rc parses and dispatches the control protocol: the line-oriented
// text commands accepted over the FIFO control channel.
//
// Parsing is a pure function from a line to a typed Command, with no I/O,
// so the control protocol can be tested and fuzzed independently of
// internal/fifo.
package rc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a malformed control-protocol line, with enough detail
// to produce a useful reply without the caller re-parsing the line itself.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rc: %s: %q", e.Reason, e.Line)
}

// ErrUnknownCommand is wrapped into a ParseError reason when the leading
// token of a line isn't one of the recognized commands.
var ErrUnknownCommand = errors.New("unknown command")

// Kind identifies which API call a Command maps to.
type Kind int

const (
	// Disable maps to (*fiu.Fiu).Disable.
	Disable Kind = iota
	// Enable maps to (*fiu.Fiu).Enable.
	Enable
	// EnableRandom maps to (*fiu.Fiu).EnableRandom.
	EnableRandom
	// EnableStackByName maps to (*fiu.Fiu).EnableStackByName.
	EnableStackByName
	// List maps to (*fiu.Fiu).Points, an additive introspection command.
	List
)

// Command is one parsed control-protocol request.
type Command struct {
	Kind Kind

	Name        string
	Failnum     int
	Failinfo    uint64
	HasFailinfo bool
	Probability float64
	FuncName    string
	PosInStack  int
	Onetime     bool
}

// defaults matching the control protocol's option table.
const (
	defaultFailnum     = 1
	defaultProbability = -1.0
	defaultPosInStack  = -1
)

// Parse turns a single protocol line into a Command. Unknown options or
// malformed values are reported as a *ParseError.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)

	fields := strings.SplitN(line, " ", 2)
	word := fields[0]

	kind, ok := kindForWord(word)
	if !ok {
		return Command{}, &ParseError{Line: line, Reason: ErrUnknownCommand.Error()}
	}

	cmd := Command{
		Kind:        kind,
		Failnum:     defaultFailnum,
		Probability: defaultProbability,
		PosInStack:  defaultPosInStack,
	}

	if kind == List {
		return cmd, nil
	}

	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return Command{}, &ParseError{Line: line, Reason: "missing options"}
	}

	for _, opt := range strings.Split(fields[1], ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}

		if err := applyOption(&cmd, opt); err != nil {
			return Command{}, &ParseError{Line: line, Reason: err.Error()}
		}
	}

	if cmd.Name == "" {
		return Command{}, &ParseError{Line: line, Reason: "missing required option: name"}
	}

	return cmd, nil
}

func kindForWord(word string) (Kind, bool) {
	switch word {
	case "disable":
		return Disable, true
	case "enable":
		return Enable, true
	case "enable_random":
		return EnableRandom, true
	case "enable_stack_by_name":
		return EnableStackByName, true
	case "list":
		return List, true
	default:
		return 0, false
	}
}

func applyOption(cmd *Command, opt string) error {
	if opt == "onetime" {
		cmd.Onetime = true
		return nil
	}

	key, value, found := strings.Cut(opt, "=")
	if !found {
		return fmt.Errorf("malformed option %q", opt)
	}

	switch key {
	case "name":
		cmd.Name = value
	case "failnum":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid failnum %q", value)
		}

		cmd.Failnum = n
	case "failinfo":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid failinfo %q", value)
		}

		cmd.Failinfo = n
		cmd.HasFailinfo = true
	case "probability":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid probability %q", value)
		}

		cmd.Probability = f
	case "func_name":
		cmd.FuncName = value
	case "pos_in_stack":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid pos_in_stack %q", value)
		}

		cmd.PosInStack = n
	default:
		return fmt.Errorf("unknown option %q", key)
	}

	return nil
}
