//go:build !linux

package kernel

import "github.com/tokarak/gopppd/internal/ppp"

// LinuxMultiplexor is unavailable on non-Linux platforms; every method
// reports ppp.ErrUnsupported so the rest of the tree still links.
type LinuxMultiplexor struct{}

// NewMultiplexor returns a stub ppp.Multiplexor that always fails.
func NewMultiplexor() *LinuxMultiplexor { return &LinuxMultiplexor{} }

func (m *LinuxMultiplexor) Open() (int, error)                        { return 0, ppp.ErrUnsupported }
func (m *LinuxMultiplexor) GetChannel(int) (int, error)                { return 0, ppp.ErrUnsupported }
func (m *LinuxMultiplexor) AttachChannel(int, int) error                { return ppp.ErrUnsupported }
func (m *LinuxMultiplexor) NewUnit(int) (int, error)                   { return 0, ppp.ErrUnsupported }
func (m *LinuxMultiplexor) Connect(int, int) error                     { return ppp.ErrUnsupported }
func (m *LinuxMultiplexor) SetNonblocking(int) error                   { return ppp.ErrUnsupported }
func (m *LinuxMultiplexor) SetCloseOnExec(int) error                   { return ppp.ErrUnsupported }
func (m *LinuxMultiplexor) Read(int, []byte) (int, error)              { return 0, ppp.ErrUnsupported }
func (m *LinuxMultiplexor) Write(int, []byte) (int, error)             { return 0, ppp.ErrUnsupported }
func (m *LinuxMultiplexor) Close(int) error                            { return ppp.ErrUnsupported }

var _ ppp.Multiplexor = (*LinuxMultiplexor)(nil)
