//go:build linux

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/tokarak/gopppd/internal/ppp"
)

// EpollReactor implements ppp.Reactor with a single epoll(7) instance
// shared by every registered fd. One goroutine runs epoll_wait in a
// loop and dispatches each readiness event to its registered callback;
// the callback itself runs inline on that goroutine (Session's demux
// loop included), so a callback that blocks delays every other
// registered fd.
type EpollReactor struct {
	epfd int

	mu        sync.RWMutex
	callbacks map[int]func()

	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewEpollReactor creates an epoll instance and starts its event loop on
// a background goroutine.
func NewEpollReactor() (*EpollReactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	r := &EpollReactor{
		epfd:      epfd,
		callbacks: make(map[int]func()),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	go r.loop()

	return r, nil
}

// RegisterRead arranges for onReadable to be invoked whenever fd
// becomes readable, edge-triggered is deliberately avoided: level
// triggering means a handler that doesn't fully drain fd on one
// callback just gets called again on the next epoll_wait, which is
// the behavior the demux loop (internal/ppp/demux.go) relies on.
func (r *EpollReactor) RegisterRead(fd int, onReadable func()) error {
	r.mu.Lock()
	_, exists := r.callbacks[fd]
	r.callbacks[fd] = onReadable
	r.mu.Unlock()

	ev := &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}

	op := unix.EPOLL_CTL_ADD
	if exists {
		op = unix.EPOLL_CTL_MOD
	}

	if err := unix.EpollCtl(r.epfd, op, fd, ev); err != nil {
		r.mu.Lock()
		if !exists {
			delete(r.callbacks, fd)
		}
		r.mu.Unlock()
		return fmt.Errorf("epoll_ctl(fd=%d): %w", fd, err)
	}

	return nil
}

// Unregister stops delivering readiness notifications for fd.
// Unregistering an fd that was never registered, or was already
// unregistered, is a no-op — matching the session teardown path where
// Unregister is called defensively during both soft and hard close.
func (r *EpollReactor) Unregister(fd int) error {
	r.mu.Lock()
	_, exists := r.callbacks[fd]
	delete(r.callbacks, fd)
	r.mu.Unlock()

	if !exists {
		return nil
	}

	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		if err == unix.ENOENT || err == unix.EBADF {
			return nil
		}
		return fmt.Errorf("epoll_ctl del(fd=%d): %w", fd, err)
	}

	return nil
}

// Close stops the event loop and releases the epoll fd. It blocks
// until the loop goroutine has exited.
func (r *EpollReactor) Close() error {
	var closeErr error

	r.closeOnce.Do(func() {
		close(r.stopCh)
		<-r.doneCh
		closeErr = unix.Close(r.epfd)
	})

	return closeErr
}

const maxEpollEvents = 64

func (r *EpollReactor) loop() {
	defer close(r.doneCh)

	events := make([]unix.EpollEvent, maxEpollEvents)

	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		n, err := unix.EpollWait(r.epfd, events, epollWaitTimeoutMS)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)

			r.mu.RLock()
			cb, ok := r.callbacks[fd]
			r.mu.RUnlock()

			if ok {
				cb()
			}
		}
	}
}

// epollWaitTimeoutMS bounds each epoll_wait call so the loop goroutine
// notices Close promptly even with no fds ready.
const epollWaitTimeoutMS = 250

var _ ppp.Reactor = (*EpollReactor)(nil)
