// Package fifo implements the control channel: a pair of named pipes
// that a worker goroutine reads control-protocol lines from and writes
// decimal replies to.
package fifo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/albertito/fiu/internal/flog"
	"github.com/albertito/fiu/internal/rc"
	"github.com/albertito/fiu/internal/registry"
)

// maxConsecutiveErrors bounds the worker's reopen retries on I/O errors
// other than a clean close.
const maxConsecutiveErrors = 10

// openPollInterval is how often openWriteEnd retries a non-blocking open
// while waiting for a reader to show up, so it can notice s.stop closing.
const openPollInterval = 20 * time.Millisecond

// errStopped is returned by the open helpers when they give up because
// s.stop closed while they were waiting.
var errStopped = errors.New("fifo: stop requested")

// Server owns one basename's pair of named pipes and the worker goroutine
// reading/dispatching/replying on them.
type Server struct {
	basename string
	pid      int
	inPath   string
	outPath  string

	api rc.API
	log flog.Logger

	stop chan struct{}
	done chan struct{}
}

// NewServer returns a Server that will dispatch parsed commands to api and
// log via log (use flog.Discard() if logging isn't wanted).
func NewServer(basename string, api rc.API, log flog.Logger) *Server {
	if log == nil {
		log = flog.Discard()
	}

	pid := os.Getpid()

	return &Server{
		basename: basename,
		pid:      pid,
		inPath:   fmt.Sprintf("%s-%d.in", basename, pid),
		outPath:  fmt.Sprintf("%s-%d.out", basename, pid),
		api:      api,
		log:      log.With("fifo"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// InPath and OutPath are the named pipe paths this server creates, for
// callers (cmd/fiuctl) that need to connect to them.
func (s *Server) InPath() string  { return s.inPath }
func (s *Server) OutPath() string { return s.outPath }

// Start creates both named pipes (mode 0600) and spawns the worker
// goroutine. It does not block waiting for a client to connect.
func (s *Server) Start() error {
	if err := makeFifo(s.inPath); err != nil {
		return fmt.Errorf("fifo: creating %s: %w", s.inPath, err)
	}

	if err := makeFifo(s.outPath); err != nil {
		return fmt.Errorf("fifo: creating %s: %w", s.outPath, err)
	}

	go s.run()

	return nil
}

// Stop unlinks both pipes and waits for the worker to exit.
//
// Closing s.stop first is what lets the worker notice while no client is
// connected: it is then waiting inside openPipes, which polls s.stop (see
// openWriteEnd) rather than blocking in a plain open() that unlinking
// can't wake up. While a client is connected the worker is blocked in a
// read of the input pipe, which closing s.stop does not interrupt, so Stop
// returns only once that client has closed its end.
func (s *Server) Stop() {
	close(s.stop)
	_ = os.Remove(s.inPath)
	_ = os.Remove(s.outPath)
	<-s.done
}

// ReopenForChild stops the running worker and recreates both
// pipes under the calling process's own pid, for a child that inherited
// this Server's memory image across a fork-without-exec. Exposed as an
// explicit call rather than an atfork registration, since Go has no
// native fork().
func (s *Server) ReopenForChild() error {
	s.Stop()

	s.pid = os.Getpid()
	s.inPath = fmt.Sprintf("%s-%d.in", s.basename, s.pid)
	s.outPath = fmt.Sprintf("%s-%d.out", s.basename, s.pid)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	return s.Start()
}

func makeFifo(path string) error {
	if err := unix.Mkfifo(path, 0o600); err != nil {
		if os.IsExist(err) {
			if rmErr := os.Remove(path); rmErr != nil {
				return rmErr
			}

			return unix.Mkfifo(path, 0o600)
		}

		return err
	}

	return nil
}

// run is the worker loop: invisible to the registry for its entire
// lifetime, it opens both pipes, reads lines, dispatches, writes replies,
// and reopens on EOF/broken-pipe, giving up after maxConsecutiveErrors
// consecutive non-EOF errors.
func (s *Server) run() {
	leave := registry.PinReentrancy()
	defer leave()
	defer close(s.done)

	errCount := 0

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		in, out, err := s.openPipes()
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
			}

			errCount++
			s.log.Error("opening control pipes", err, map[string]any{"attempt": errCount})

			if errCount >= maxConsecutiveErrors {
				s.log.Error("giving up after repeated errors", err, nil)
				return
			}

			continue
		}

		clean := s.serve(in, out)

		_ = in.Close()
		_ = out.Close()

		if clean {
			errCount = 0
		} else {
			errCount++
			if errCount >= maxConsecutiveErrors {
				s.log.Error("giving up after repeated errors", nil, nil)
				return
			}
		}

		select {
		case <-s.stop:
			return
		default:
		}
	}
}

func (s *Server) openPipes() (*os.File, *os.File, error) {
	in, err := openReadEnd(s.inPath)
	if err != nil {
		return nil, nil, err
	}

	out, err := openWriteEnd(s.outPath, s.stop)
	if err != nil {
		_ = in.Close()
		return nil, nil, err
	}

	return in, out, nil
}

// openReadEnd opens path for reading. A plain open(O_RDONLY) on a FIFO
// blocks until a writer connects, and unlinking the path does not wake a
// goroutine already parked in that syscall — a later mkfifo at the same
// path is a different inode. Opening O_NONBLOCK sidesteps the wait
// entirely: per POSIX, a non-blocking open for read-only always returns
// immediately regardless of whether a writer is present. The descriptor
// is then switched back to blocking mode so line reads behave normally.
func openReadEnd(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	if err := unix.SetNonblock(fd, false); err != nil {
		_ = unix.Close(fd)
		return nil, &os.PathError{Op: "fcntl", Path: path, Err: err}
	}

	return os.NewFile(uintptr(fd), path), nil
}

// openWriteEnd opens path for writing, waiting for a reader to connect.
// Unlike the read side, there's no NONBLOCK trick that makes this return
// immediately: POSIX has a non-blocking write-only open fail with ENXIO
// when no reader is present yet. So this polls, retrying on ENXIO, and
// checks stop between attempts instead of blocking in a single open()
// call that Stop would have no way to interrupt.
func openWriteEnd(path string, stop <-chan struct{}) (*os.File, error) {
	for {
		select {
		case <-stop:
			return nil, errStopped
		default:
		}

		fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			if err := unix.SetNonblock(fd, false); err != nil {
				_ = unix.Close(fd)
				return nil, &os.PathError{Op: "fcntl", Path: path, Err: err}
			}

			return os.NewFile(uintptr(fd), path), nil
		}

		if !errors.Is(err, unix.ENXIO) {
			return nil, &os.PathError{Op: "open", Path: path, Err: err}
		}

		select {
		case <-stop:
			return nil, errStopped
		case <-time.After(openPollInterval):
		}
	}
}

// serve runs the read-dispatch-reply loop over one open pair of pipes.
// It returns true for a clean EOF/broken-pipe close, false for any other
// read error.
func (s *Server) serve(in, out *os.File) bool {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		reply := handleLine(scanner.Text(), s.api)

		if _, err := fmt.Fprintf(out, "%d\n", reply); err != nil {
			if errors.Is(err, unix.EPIPE) {
				return true
			}

			s.log.Error("writing control reply", err, nil)
			return false
		}
	}

	return scanner.Err() == nil
}

// handleLine parses and dispatches one control-protocol line, returning
// the integer reply (-1 on parse error, per rc.Dispatch's error mapping).
func handleLine(line string, api rc.API) int {
	cmd, err := rc.Parse(line)
	if err != nil {
		return -1
	}

	return rc.Dispatch(cmd, api)
}
