package ppp

import "fmt"

// TermReason identifies why a session was terminated. Values follow the
// RFC 2866 Section 5.10 Acct-Terminate-Cause vocabulary so they can be
// surfaced directly in accounting/notification records.
type TermReason uint8

// Termination causes. Only the subset actually produced by the core or
// commonly requested by external callers is enumerated; the core itself
// only ever produces NASError (channel EOF, layer start failure).
const (
	TermUnspecified    TermReason = 0
	TermUserRequest    TermReason = 1
	TermLostCarrier    TermReason = 2
	TermIdleTimeout    TermReason = 4
	TermSessionTimeout TermReason = 5
	TermAdminReset     TermReason = 6
	TermNASError       TermReason = 9
	TermNASRequest     TermReason = 10
)

// String renders the termination cause for logs and events.
func (r TermReason) String() string {
	switch r {
	case TermUnspecified:
		return "unspecified"
	case TermUserRequest:
		return "user-request"
	case TermLostCarrier:
		return "lost-carrier"
	case TermIdleTimeout:
		return "idle-timeout"
	case TermSessionTimeout:
		return "session-timeout"
	case TermAdminReset:
		return "admin-reset"
	case TermNASError:
		return "nas-error"
	case TermNASRequest:
		return "nas-request"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// Multiplexor is the kernel PPP multiplexor collaborator ("/dev/ppp" or
// equivalent). Session.Establish calls it directly; a concrete Linux
// implementation lives in internal/kernel.
type Multiplexor interface {
	// Open returns a fresh fd to the multiplexor device.
	Open() (int, error)

	// GetChannel returns the PPP channel index associated with a
	// transport-provided fd.
	GetChannel(transportFD int) (chanIdx int, err error)

	// AttachChannel turns a fresh multiplexor fd into the channel
	// endpoint bound to chanIdx.
	AttachChannel(fd, chanIdx int) error

	// NewUnit requests a fresh kernel PPP unit on fd and returns its
	// allocated index.
	NewUnit(fd int) (unitIdx int, err error)

	// Connect wires the channel fd to the unit index.
	Connect(chanFD, unitIdx int) error

	// SetNonblocking puts fd into non-blocking mode.
	SetNonblocking(fd int) error

	// SetCloseOnExec sets the close-on-exec flag on fd.
	SetCloseOnExec(fd int) error

	// Read performs a single non-blocking read from fd. Implementations
	// return an error satisfying errors.Is(err, ErrWouldBlock) when no
	// data is currently available.
	Read(fd int, buf []byte) (int, error)

	// Write performs a single write to fd.
	Write(fd int, buf []byte) (int, error)

	// Close closes fd.
	Close(fd int) error
}

// Reactor is the I/O readiness collaborator. The core only ever asks it
// to report read-readiness on a descriptor and to stop doing so; the
// reactor's own dispatch/threading model is out of scope for this
// package.
type Reactor interface {
	// RegisterRead arranges for onReadable to be invoked (on some
	// worker, serially with respect to other callbacks for the same
	// session) whenever fd becomes readable.
	RegisterRead(fd int, onReadable func()) error

	// Unregister stops delivering readiness notifications for fd.
	Unregister(fd int) error
}

// Notifier announces session lifecycle transitions to the outside
// world. The core does not depend on delivery succeeding.
type Notifier interface {
	Starting(sessionID, ifName string)
	Active(sessionID, ifName string)
	PreFinished(sessionID, ifName string)
	Finished(sessionID, ifName string, reason TermReason)
}

// MetricsReporter receives observability events from the core. All
// methods must be safe for concurrent use and must not block.
type MetricsReporter interface {
	UnitCacheHit()
	UnitCacheMiss()
	UnitCacheSize(n int)
	SessionEstablished()
	SessionTerminated(reason TermReason)
	TierAdvanced(tier Tier)
	FrameDemuxed(onChannel bool)
	FrameDropped(reason string)
	ProtocolRejectSent(proto uint16)
}

// SessionController is the external session record: it carries
// lifecycle state (STARTING, ACTIVE, ...) across the session's life and
// learns of transitions via these callbacks. Manager is the default
// implementation used by the daemon.
type SessionController interface {
	SessionStarting(s *Session)
	SessionActive(s *Session)
	SessionFinished(s *Session, reason TermReason)
}
