//go:build linux

package kernel

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/tokarak/gopppd/internal/ppp"
)

// Linux ioctl numbering, mirroring <linux/ioctl.h>'s _IOC family. The
// x/sys/unix package exposes IoctlSetInt/IoctlGetInt for simple cases
// but PPPIOCNEWUNIT is read-write on the same int, so the request
// numbers are built by hand here and issued via unix.Syscall directly.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	pppIOCType = 't'
	sizeofInt  = 4
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

func iow(typ, nr, size uintptr) uintptr  { return ioc(iocWrite, typ, nr, size) }
func ior(typ, nr, size uintptr) uintptr  { return ioc(iocRead, typ, nr, size) }
func iowr(typ, nr, size uintptr) uintptr { return ioc(iocWrite|iocRead, typ, nr, size) }

// PPPIOC* request numbers, from <linux/ppp-ioctl.h>.
var (
	pppIOCGChan    = ior(pppIOCType, 55, sizeofInt)
	pppIOCAttChan  = iow(pppIOCType, 56, sizeofInt)
	pppIOCConnect  = iow(pppIOCType, 58, sizeofInt)
	pppIOCNewUnit  = iowr(pppIOCType, 62, sizeofInt)
)

// devPPP is the multiplexor character device every channel and unit
// descriptor is opened against.
const devPPP = "/dev/ppp"

// LinuxMultiplexor implements ppp.Multiplexor against /dev/ppp.
type LinuxMultiplexor struct{}

// NewMultiplexor returns the Linux /dev/ppp implementation of
// ppp.Multiplexor.
func NewMultiplexor() *LinuxMultiplexor { return &LinuxMultiplexor{} }

// Open opens a fresh handle to the multiplexor device.
func (m *LinuxMultiplexor) Open() (int, error) {
	fd, err := unix.Open(devPPP, unix.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", devPPP, err)
	}
	return fd, nil
}

// GetChannel resolves the PPP channel index bound to a transport fd via
// PPPIOCGCHAN.
func (m *LinuxMultiplexor) GetChannel(transportFD int) (int, error) {
	var idx int
	if err := ioctlPtr(transportFD, pppIOCGChan, unsafe.Pointer(&idx)); err != nil {
		return 0, fmt.Errorf("PPPIOCGCHAN: %w", err)
	}
	return idx, nil
}

// AttachChannel binds fd (freshly opened against /dev/ppp) to the
// channel index chanIdx via PPPIOCATTCHAN.
func (m *LinuxMultiplexor) AttachChannel(fd, chanIdx int) error {
	idx := chanIdx
	if err := ioctlPtr(fd, pppIOCAttChan, unsafe.Pointer(&idx)); err != nil {
		return fmt.Errorf("PPPIOCATTCHAN: %w", err)
	}
	return nil
}

// NewUnit requests a fresh kernel PPP network-interface unit on fd via
// PPPIOCNEWUNIT. -1 requests the next free unit index; the kernel
// writes back the assigned index into the same integer.
func (m *LinuxMultiplexor) NewUnit(fd int) (int, error) {
	idx := -1
	if err := ioctlPtr(fd, pppIOCNewUnit, unsafe.Pointer(&idx)); err != nil {
		return 0, fmt.Errorf("PPPIOCNEWUNIT: %w", err)
	}
	return idx, nil
}

// Connect wires a channel fd to a unit index via PPPIOCCONNECT.
func (m *LinuxMultiplexor) Connect(chanFD, unitIdx int) error {
	idx := unitIdx
	if err := ioctlPtr(chanFD, pppIOCConnect, unsafe.Pointer(&idx)); err != nil {
		return fmt.Errorf("PPPIOCCONNECT: %w", err)
	}
	return nil
}

// SetNonblocking puts fd into non-blocking mode.
func (m *LinuxMultiplexor) SetNonblocking(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("set nonblocking: %w", err)
	}
	return nil
}

// SetCloseOnExec sets the close-on-exec flag on fd.
func (m *LinuxMultiplexor) SetCloseOnExec(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("set close-on-exec: %w", err)
	}
	return nil
}

// Read performs a single non-blocking read from fd, reporting
// ppp.ErrWouldBlock when no data is currently available.
func (m *LinuxMultiplexor) Read(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, fmt.Errorf("read %s: %w", devPPP, ppp.ErrWouldBlock)
		}
		return 0, fmt.Errorf("read: %w", err)
	}
	return n, nil
}

// Write performs a single write to fd.
func (m *LinuxMultiplexor) Write(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}
	return n, nil
}

// Close closes fd.
func (m *LinuxMultiplexor) Close(fd int) error {
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

var _ ppp.Multiplexor = (*LinuxMultiplexor)(nil)

// ioctlPtr issues a single ioctl(2) call carrying a pointer argument.
// x/sys/unix's IoctlSetInt/IoctlGetInt cover write-only and read-only
// requests respectively; PPPIOCNEWUNIT is read-write on the same int,
// so the raw syscall is used uniformly for every PPPIOC* request here.
func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
