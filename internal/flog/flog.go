// Package flog is the small structured-logging wrapper used by the FIFO
// control-channel worker. It wraps
// github.com/rs/zerolog behind a leveled-logger interface narrow enough
// that tests can swap in a buffer or a no-op implementation.
package flog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the leveled-logging surface the rest of the module depends on.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
	With(component string) Logger
}

type zlogger struct {
	z zerolog.Logger
}

// New returns a Logger writing to w in zerolog's console-friendly format
// when w is a terminal, or compact JSON otherwise. fiuctl passes
// os.Stderr.
func New(w io.Writer) Logger {
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		w = zerolog.ConsoleWriter{Out: f}
	}

	return &zlogger{z: zerolog.New(w).With().Timestamp().Logger()}
}

// Discard returns a Logger that drops every record, for tests that don't
// care about log output but must supply a Logger.
func Discard() Logger {
	return &zlogger{z: zerolog.Nop()}
}

func (l *zlogger) Debug(msg string, fields map[string]any) {
	logEvent(l.z.Debug(), msg, fields)
}

func (l *zlogger) Info(msg string, fields map[string]any) {
	logEvent(l.z.Info(), msg, fields)
}

func (l *zlogger) Warn(msg string, fields map[string]any) {
	logEvent(l.z.Warn(), msg, fields)
}

func (l *zlogger) Error(msg string, err error, fields map[string]any) {
	logEvent(l.z.Error().Err(err), msg, fields)
}

func (l *zlogger) With(component string) Logger {
	return &zlogger{z: l.z.With().Str("component", component).Logger()}
}

func logEvent(ev *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}

	ev.Msg(msg)
}
