//go:build !linux

package reactor

import "github.com/tokarak/gopppd/internal/ppp"

// EpollReactor is unavailable on non-Linux platforms; every method
// reports ppp.ErrUnsupported so the rest of the tree still links.
type EpollReactor struct{}

// NewEpollReactor always fails on non-Linux platforms.
func NewEpollReactor() (*EpollReactor, error) {
	return nil, ppp.ErrUnsupported
}

func (r *EpollReactor) RegisterRead(fd int, onReadable func()) error { return ppp.ErrUnsupported }
func (r *EpollReactor) Unregister(fd int) error                      { return ppp.ErrUnsupported }
func (r *EpollReactor) Close() error                                 { return ppp.ErrUnsupported }
