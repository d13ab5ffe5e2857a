package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"

	"github.com/albertito/fiu/internal/fconfig"
)

var commands = []string{
	"enable", "enable_random", "enable_stack_by_name", "disable", "list",
	"help", "exit", "quit", "q",
}

// repl is fiuctl's interactive command loop: peterh/liner for line
// editing and history, one command per line, a tab completer over the
// known verbs.
type repl struct {
	t           transport
	historyPath string
	liner       *liner.State
}

func newREPL(t transport, cfg fconfig.Config) *repl {
	return &repl{t: t, historyPath: expandHome(cfg.HistoryFile)}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(r.historyPath); err == nil {
		_, _ = r.liner.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Println("fiuctl - control protocol REPL. Type 'help' for commands.")

	for {
		line, err := r.liner.Prompt("fiuctl> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || err == io.EOF {
				fmt.Println("\nbye")
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		if r.dispatchLocal(line) {
			continue
		}

		reply, err := r.t.Send(line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		fmt.Println(reply)
	}

	r.saveHistory()

	return nil
}

// dispatchLocal handles REPL-only verbs (help/exit) that aren't part of
// the control protocol. Returns true if it handled the line.
func (r *repl) dispatchLocal(line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "help", "?":
		r.printHelp()
		return true
	case "exit", "quit", "q":
		r.saveHistory()
		fmt.Println("bye")
		os.Exit(0)

		return true
	default:
		return false
	}
}

func (r *repl) saveHistory() {
	if r.historyPath == "" {
		return
	}

	var buf strings.Builder
	if _, err := r.liner.WriteHistory(&buf); err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(r.historyPath), 0o700); err != nil {
		return
	}

	_ = atomic.WriteFile(r.historyPath, strings.NewReader(buf.String()))
}

func (r *repl) completer(line string) []string {
	var out []string

	lower := strings.ToLower(line)

	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}

	return out
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  enable name=<n>[,failnum=<i>][,failinfo=<u>][,onetime]")
	fmt.Println("  enable_random name=<n>[,probability=<f>][,failnum=<i>][,onetime]")
	fmt.Println("  enable_stack_by_name name=<n>,func_name=<f>[,pos_in_stack=-1]")
	fmt.Println("  disable name=<n>")
	fmt.Println("  list")
	fmt.Println()
	fmt.Println("REPL-only:")
	fmt.Println("  help / ?")
	fmt.Println("  exit / quit / q")
}
