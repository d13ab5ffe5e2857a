package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/albertito/fiu"
	"github.com/albertito/fiu/internal/fconfig"
	"github.com/albertito/fiu/internal/flog"
)

// transport is the REPL's view of wherever control-protocol lines go:
// either an embedded Fiu (local mode) or a connected control channel
// (connect mode).
type transport interface {
	Send(line string) (reply string, err error)
	Close() error
}

// localTransport drives an embedded *fiu.Fiu directly through RCString,
// with no FIFO I/O at all.
type localTransport struct {
	f *fiu.Fiu
	c *fiu.ControlChannel
}

func runLocal(cfg fconfig.Config, log flog.Logger) error {
	f := fiu.New()
	if err := f.Init(); err != nil {
		return fmt.Errorf("initializing embedded instance: %w", err)
	}

	channel, err := f.RCFifoWithLogger(cfg.FIFOBasename, log)
	if err != nil {
		return fmt.Errorf("starting embedded control channel: %w", err)
	}

	fmt.Printf("embedded control channel listening on %s / %s\n", channel.InPath(), channel.OutPath())

	t := &localTransport{f: f, c: channel}
	defer t.Close()

	return newREPL(t, cfg).run()
}

func (t *localTransport) Send(line string) (string, error) {
	result, err := t.f.RCString(line)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", result), nil
}

func (t *localTransport) Close() error {
	t.c.Stop()
	return nil
}

// fifoTransport is a client of a control channel owned by another process:
// it writes request lines to <basename>-<pid>.in and reads reply lines
// from <basename>-<pid>.out.
type fifoTransport struct {
	in  *os.File
	out *bufio.Scanner
	raw *os.File
}

func runConnect(cfg fconfig.Config, basename string, pid int) error {
	t, err := dialFIFO(basename, pid)
	if err != nil {
		return err
	}
	defer t.Close()

	fmt.Printf("connected to %s-%d\n", basename, pid)

	return newREPL(t, cfg).run()
}

func dialFIFO(basename string, pid int) (*fifoTransport, error) {
	inPath := fmt.Sprintf("%s-%d.in", basename, pid)
	outPath := fmt.Sprintf("%s-%d.out", basename, pid)

	in, err := os.OpenFile(inPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", inPath, err)
	}

	out, err := os.OpenFile(outPath, os.O_RDONLY, 0)
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("opening %s: %w", outPath, err)
	}

	return &fifoTransport{in: in, out: bufio.NewScanner(out), raw: out}, nil
}

func (t *fifoTransport) Send(line string) (string, error) {
	if _, err := fmt.Fprintln(t.in, line); err != nil {
		return "", err
	}

	if !t.out.Scan() {
		if err := t.out.Err(); err != nil {
			return "", err
		}

		return "", errors.New("control channel closed")
	}

	return t.out.Text(), nil
}

func (t *fifoTransport) Close() error {
	_ = t.in.Close()
	return t.raw.Close()
}
