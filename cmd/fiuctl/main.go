// fiuctl is an interactive control-channel client for fiu: it connects to
// a running process's control channel FIFO pair (or, with --local, starts
// an embedded one) and drives the control protocol from a readline-style
// REPL.
//
// Usage:
//
//	fiuctl --basename=/tmp/fiu-ctrl --pid=1234   Connect to a running process
//	fiuctl --local                                Start and drive an embedded instance
//
// Commands (in REPL):
//
//	enable name=<n>[,failnum=<i>][,onetime]
//	enable_random name=<n>[,probability=<f>]
//	enable_stack_by_name name=<n>,func_name=<f>[,pos_in_stack=-1]
//	disable name=<n>
//	list
//	help
//	exit / quit / q
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/albertito/fiu/internal/fconfig"
	"github.com/albertito/fiu/internal/flog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fiuctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		basename    string
		pid         int
		local       bool
		configPath  string
		historyPath string
	)

	flags := pflag.NewFlagSet("fiuctl", pflag.ContinueOnError)
	flags.StringVar(&basename, "basename", "", "control channel FIFO basename (without -<pid>.in/.out)")
	flags.IntVar(&pid, "pid", 0, "pid suffix of the target process's control channel")
	flags.BoolVar(&local, "local", false, "start and drive an embedded fiu instance instead of connecting")
	flags.StringVar(&configPath, "config", "", "explicit config file path (default: .fiu.json in the working directory)")
	flags.StringVar(&historyPath, "history", "", "REPL history file (default from config)")

	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fiuctl [--basename=<path> --pid=<n> | --local]")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cliOverride := fconfig.Config{FIFOBasename: basename, HistoryFile: historyPath}

	cfg, err := fconfig.Load(workDir, configPath, cliOverride, os.Environ())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := flog.New(os.Stderr)

	if local {
		return runLocal(cfg, log)
	}

	if pid == 0 {
		flags.Usage()
		return errors.New("--pid is required unless --local is given")
	}

	return runConnect(cfg, cfg.FIFOBasename, pid)
}
