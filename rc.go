package fiu

import (
	"fmt"

	"github.com/albertito/fiu/internal/fifo"
	"github.com/albertito/fiu/internal/flog"
	"github.com/albertito/fiu/internal/rc"
)

// RCString parses and dispatches a single control-protocol line without
// any control-channel I/O, returning the integer reply the matching API
// call produced. Idiomatic Go replaces the original's out-pointer
// error-message parameter with a returned error.
func (f *Fiu) RCString(line string) (result int, err error) {
	cmd, err := rc.Parse(line)
	if err != nil {
		return 0, fmt.Errorf("fiu: %w", err)
	}

	return rc.Dispatch(cmd, f), nil
}

// RCFifo creates the named-pipe control channel rooted at basename and
// starts its worker goroutine. Call Stop on the returned handle to unlink
// the pipes; they are not removed when the process exits without Stop.
func (f *Fiu) RCFifo(basename string) (*ControlChannel, error) {
	return f.RCFifoWithLogger(basename, nil)
}

// RCFifoWithLogger is RCFifo with an explicit logger for the worker's
// bounded-retry I/O error reporting; pass nil for flog.Discard().
func (f *Fiu) RCFifoWithLogger(basename string, log flog.Logger) (*ControlChannel, error) {
	f.fifoMu.Lock()
	defer f.fifoMu.Unlock()

	srv := fifo.NewServer(basename, f, log)
	if err := srv.Start(); err != nil {
		return nil, fmt.Errorf("fiu: starting control channel: %w", err)
	}

	f.server = srv

	return &ControlChannel{srv: srv}, nil
}

// ControlChannel is a handle to a running control channel, returned by
// RCFifo.
type ControlChannel struct {
	srv *fifo.Server
}

// InPath and OutPath are the control channel's named pipe paths.
func (c *ControlChannel) InPath() string  { return c.srv.InPath() }
func (c *ControlChannel) OutPath() string { return c.srv.OutPath() }

// Stop unlinks both pipes and waits for the worker goroutine to exit.
func (c *ControlChannel) Stop() {
	c.srv.Stop()
}

// ReopenForChild stops and recreates the control channel under the
// calling process's own pid, for a child that inherited this handle's
// memory image across a fork-without-exec.
func (c *ControlChannel) ReopenForChild() error {
	return c.srv.ReopenForChild()
}
