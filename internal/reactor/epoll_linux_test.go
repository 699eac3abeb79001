//go:build linux

package reactor_test

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tokarak/gopppd/internal/reactor"
)

func pipeFDs(t *testing.T) (r, w int) {
	t.Helper()

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestEpollReactor_RegisterRead_FiresOnWrite(t *testing.T) {
	rx, tx := pipeFDs(t)

	r, err := reactor.NewEpollReactor()
	if err != nil {
		t.Fatalf("NewEpollReactor: %v", err)
	}
	defer r.Close()

	var mu sync.Mutex
	fired := false
	done := make(chan struct{})

	if err := r.RegisterRead(rx, func() {
		mu.Lock()
		if !fired {
			fired = true
			close(done)
		}
		mu.Unlock()
	}); err != nil {
		t.Fatalf("RegisterRead: %v", err)
	}

	if _, err := unix.Write(tx, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for readiness callback")
	}
}

func TestEpollReactor_Unregister_StopsDelivery(t *testing.T) {
	rx, tx := pipeFDs(t)

	r, err := reactor.NewEpollReactor()
	if err != nil {
		t.Fatalf("NewEpollReactor: %v", err)
	}
	defer r.Close()

	var mu sync.Mutex
	calls := 0

	if err := r.RegisterRead(rx, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("RegisterRead: %v", err)
	}

	if err := r.Unregister(rx); err != nil {
		t.Fatalf("Unregister: %v", err)
	}

	if _, err := unix.Write(tx, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	got := calls
	mu.Unlock()

	if got != 0 {
		t.Fatalf("calls = %d, want 0 after Unregister", got)
	}
}

func TestEpollReactor_UnregisterUnknownFD_IsNoop(t *testing.T) {
	r, err := reactor.NewEpollReactor()
	if err != nil {
		t.Fatalf("NewEpollReactor: %v", err)
	}
	defer r.Close()

	if err := r.Unregister(999999); err != nil {
		t.Fatalf("Unregister on unknown fd: %v", err)
	}
}

func TestEpollReactor_RegisterTwice_UsesModNotAdd(t *testing.T) {
	rx, tx := pipeFDs(t)

	r, err := reactor.NewEpollReactor()
	if err != nil {
		t.Fatalf("NewEpollReactor: %v", err)
	}
	defer r.Close()

	if err := r.RegisterRead(rx, func() {}); err != nil {
		t.Fatalf("first RegisterRead: %v", err)
	}

	var mu sync.Mutex
	fired := false
	done := make(chan struct{})

	if err := r.RegisterRead(rx, func() {
		mu.Lock()
		if !fired {
			fired = true
			close(done)
		}
		mu.Unlock()
	}); err != nil {
		t.Fatalf("second RegisterRead: %v", err)
	}

	if _, err := unix.Write(tx, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for updated callback")
	}
}

func TestEpollReactor_CloseIsIdempotentAndStopsLoop(t *testing.T) {
	r, err := reactor.NewEpollReactor()
	if err != nil {
		t.Fatalf("NewEpollReactor: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
