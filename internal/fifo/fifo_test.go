package fifo

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/albertito/fiu/internal/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.New()
	require.NoError(t, r.Init())

	return r
}

func TestHandleLine_DispatchesParsedCommand(t *testing.T) {
	r := newTestRegistry(t)

	require.Equal(t, 0, handleLine("enable name=io/read,failnum=5", r))
	require.Equal(t, 5, r.Fail("io/read"))
}

func TestHandleLine_ParseErrorReturnsNegativeOne(t *testing.T) {
	r := newTestRegistry(t)

	require.Equal(t, -1, handleLine("bogus command", r))
}

func TestServer_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	basename := filepath.Join(dir, "ctrl")

	r := newTestRegistry(t)

	srv := NewServer(basename, r, nil)
	require.NoError(t, srv.Start())

	defer srv.Stop()

	clientDone := make(chan error, 1)

	var reply string

	go func() {
		out, err := os.OpenFile(srv.InPath(), os.O_WRONLY, 0)
		if err != nil {
			clientDone <- err
			return
		}
		defer out.Close()

		in, err := os.OpenFile(srv.OutPath(), os.O_RDONLY, 0)
		if err != nil {
			clientDone <- err
			return
		}
		defer in.Close()

		if _, err := out.WriteString("enable name=io/read,failnum=7\n"); err != nil {
			clientDone <- err
			return
		}

		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			clientDone <- errors.New("no reply")
			return
		}

		reply = scanner.Text()
		clientDone <- nil
	}()

	select {
	case err := <-clientDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for control channel round trip")
	}

	require.Equal(t, "0", reply)
	require.Equal(t, 7, r.Fail("io/read"))
}
