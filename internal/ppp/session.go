package ppp

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// State is the external session lifecycle state.
type State uint32

const (
	StateNew State = iota
	StateStarting
	StateActive
	StateFinishing
	StateFinished
)

// String renders the state for logs.
func (st State) String() string {
	switch st {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateFinishing:
		return "finishing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// closedFD is the sentinel value for a descriptor field once its
// underlying fd has been closed. The demux loop's reentrancy check
// observes this value.
const closedFD = -1

// Session holds one PPP connection: its channel and unit descriptors,
// the read buffer, handler registries and layer pipeline. It is created
// by an external transport controller, driven through Establish into
// an active lifetime under reactor callbacks, and torn down via
// Terminate.
//
// All fields except the atomics state (read concurrently for Manager
// snapshots) and verbose (set by config reload via SetVerbose) are
// intended to be touched only from the reactor worker serializing this
// session's callbacks; the package does not add locking beyond that.
type Session struct {
	id  string
	mru int

	transportFD int
	chanFD      int
	unitFD      int
	chanIdx     int
	unitIdx     int
	ifName      string
	buf         []byte

	chanHandlers *handlerList
	unitHandlers *handlerList

	registry  *LayerRegistry
	unitCache *UnitCache
	mux       Multiplexor
	reactor   Reactor
	pipeline  *Pipeline

	controller        SessionController
	notifier          Notifier
	metrics           MetricsReporter
	protocolRejectTag func(tag uint16)

	logger *slog.Logger

	state      atomic.Uint32
	verbose    atomic.Bool
	termReason TermReason
}

// SessionOption configures optional Session collaborators at
// construction time.
type SessionOption func(*Session)

// WithNotifier sets the lifecycle-event notifier. Defaults to
// NoopNotifier.
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) { s.notifier = n }
}

// WithMetrics sets the metrics reporter. Defaults to NoopMetrics.
func WithMetrics(m MetricsReporter) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithLogger overrides the session's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithProtocolRejectSender sets the external LCP helper invoked when
// the demux finds no handler for an inbound protocol tag. Without one
// configured, unknown protocols are silently dropped (only the
// unknown-protocol drop metric records them).
func WithProtocolRejectSender(send func(tag uint16)) SessionOption {
	return func(s *Session) { s.protocolRejectTag = send }
}

// WithVerbose sets the session's initial verbose-logging flag. See
// SetVerbose.
func WithVerbose(v bool) SessionOption {
	return func(s *Session) { s.verbose.Store(v) }
}

// NewSession constructs a Session over a transport-provided channel fd.
// Establish must be called before the session does anything useful.
func NewSession(
	id string,
	transportFD int,
	mru int,
	mux Multiplexor,
	reactor Reactor,
	registry *LayerRegistry,
	unitCache *UnitCache,
	controller SessionController,
	opts ...SessionOption,
) *Session {
	s := &Session{
		id:           id,
		mru:          mru,
		transportFD:  transportFD,
		chanFD:       closedFD,
		unitFD:       closedFD,
		chanHandlers: newHandlerList(),
		unitHandlers: newHandlerList(),
		registry:     registry,
		unitCache:    unitCache,
		mux:          mux,
		reactor:      reactor,
		controller:   controller,
		notifier:     NoopNotifier{},
		metrics:      NoopMetrics{},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(slog.String("component", "ppp.session"), slog.String("session_id", id))

	return s
}

// ID returns the session's identifier (assigned by the caller, not the
// kernel).
func (s *Session) ID() string { return s.id }

// IfName returns the kernel interface name ("pppN") once Establish has
// allocated a unit. Empty before that.
func (s *Session) IfName() string { return s.ifName }

// State returns the current lifecycle state. Safe for concurrent use.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(uint32(st)) }

// TermReason returns the reason passed to the Terminate call that began
// teardown, or TermUnspecified if the session is still active.
func (s *Session) TermReason() TermReason { return s.termReason }

// SetVerbose toggles per-frame demux logging. Safe for concurrent use
// so a config reload (SIGHUP) can flip it on an already-running
// session without routing through the reactor worker.
func (s *Session) SetVerbose(v bool) { s.verbose.Store(v) }

// Verbose reports the current verbose-logging flag.
func (s *Session) Verbose() bool { return s.verbose.Load() }

// Buf returns the session's shared read buffer, sliced to n bytes. Recv
// handlers must treat it as borrowed for the duration of their call.
func (s *Session) Buf(n int) []byte { return s.buf[:n] }

// Establish brings the session from a fresh transport fd to an
// attached kernel unit with the first pipeline tier starting. See
// spec §4.5 for the exact step sequence; on any failure, descriptors
// opened so far are closed and the error is returned without emitting
// any lifecycle event.
func (s *Session) Establish() error {
	if s.state.Load() != uint32(StateNew) {
		return ErrAlreadyEstablished
	}

	chanIdx, err := s.mux.GetChannel(s.transportFD)
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	s.chanIdx = chanIdx

	chanFD, err := s.mux.Open()
	if err != nil {
		return fmt.Errorf("open multiplexor for channel: %w", err)
	}
	if err := s.mux.SetCloseOnExec(chanFD); err != nil {
		s.mux.Close(chanFD) //nolint:errcheck // best-effort cleanup on an already-failing path.
		return fmt.Errorf("set close-on-exec on channel fd: %w", err)
	}
	if err := s.mux.AttachChannel(chanFD, chanIdx); err != nil {
		s.mux.Close(chanFD) //nolint:errcheck
		return fmt.Errorf("attach channel: %w", err)
	}
	s.chanFD = chanFD

	unitFD, unitIdx, err := s.acquireUnit()
	if err != nil {
		s.mux.Close(s.chanFD) //nolint:errcheck
		s.chanFD = closedFD
		return err
	}
	s.unitFD = unitFD
	s.unitIdx = unitIdx

	if err := s.mux.Connect(s.chanFD, s.unitIdx); err != nil {
		s.closeAcquiredOnError()
		return fmt.Errorf("connect channel to unit: %w", err)
	}

	if err := s.mux.SetNonblocking(s.chanFD); err != nil {
		s.closeAcquiredOnError()
		return fmt.Errorf("set channel non-blocking: %w", err)
	}

	s.ifName = fmt.Sprintf("ppp%d", s.unitIdx)

	pipeline, err := newPipeline(s.registry, s)
	if err != nil {
		s.closeAcquiredOnError()
		return err
	}
	s.pipeline = pipeline

	s.buf = acquireBuffer(s.mru)

	if err := s.reactor.RegisterRead(s.chanFD, s.handleChanReadable); err != nil {
		s.closeAcquiredOnError()
		return fmt.Errorf("register channel fd with reactor: %w", err)
	}
	if err := s.reactor.RegisterRead(s.unitFD, s.handleUnitReadable); err != nil {
		s.reactor.Unregister(s.chanFD) //nolint:errcheck
		s.closeAcquiredOnError()
		return fmt.Errorf("register unit fd with reactor: %w", err)
	}

	s.setState(StateStarting)
	s.notifier.Starting(s.id, s.ifName)
	s.controller.SessionStarting(s)

	s.pipeline.startFirst() //nolint:errcheck // failure already drives termination via Pipeline.startTier.

	return nil
}

// acquireUnit takes a unit from the UnitCache if one is available,
// otherwise allocates a fresh kernel unit.
func (s *Session) acquireUnit() (fd, idx int, err error) {
	if fd, idx, ok := s.unitCache.TryTake(); ok {
		s.metrics.UnitCacheHit()
		return fd, idx, nil
	}
	s.metrics.UnitCacheMiss()

	fd, err = s.mux.Open()
	if err != nil {
		return 0, 0, fmt.Errorf("open multiplexor for unit: %w", err)
	}
	if err := s.mux.SetCloseOnExec(fd); err != nil {
		s.mux.Close(fd) //nolint:errcheck
		return 0, 0, fmt.Errorf("set close-on-exec on unit fd: %w", err)
	}
	idx, err = s.mux.NewUnit(fd)
	if err != nil {
		s.mux.Close(fd) //nolint:errcheck
		return 0, 0, fmt.Errorf("allocate new unit: %w", err)
	}
	if err := s.mux.SetNonblocking(fd); err != nil {
		s.mux.Close(fd) //nolint:errcheck
		return 0, 0, fmt.Errorf("set unit non-blocking: %w", err)
	}

	return fd, idx, nil
}

// closeAcquiredOnError closes whatever descriptors Establish had
// already opened, for use on a failure path after the unit has been
// acquired.
func (s *Session) closeAcquiredOnError() {
	if s.chanFD != closedFD {
		s.mux.Close(s.chanFD) //nolint:errcheck
		s.chanFD = closedFD
	}
	if s.unitFD != closedFD {
		s.mux.Close(s.unitFD) //nolint:errcheck
		s.unitFD = closedFD
	}
}

// activate transitions the session to ACTIVE once the last pipeline
// tier completes.
func (s *Session) activate() {
	s.setState(StateActive)
	s.notifier.Active(s.id, s.ifName)
	s.controller.SessionActive(s)
	s.metrics.SessionEstablished()
}

// Terminate requests session teardown. hard=true tears down
// immediately regardless of layer state; hard=false drains any
// starting layers first. Idempotent once the descriptors are already
// closed.
func (s *Session) Terminate(reason TermReason, hard bool) {
	if s.chanFD == closedFD && s.unitFD == closedFD {
		return
	}

	if s.termReason == TermUnspecified {
		s.termReason = reason
	}
	s.setState(StateFinishing)

	s.pipeline.terminate(hard)
}

// destablish is the teardown half of Terminate: fires pre-finished,
// unregisters reactor callbacks, returns or closes the unit fd, closes
// the channel and original transport fds, frees the pipeline and
// buffer, then fires finished.
func (s *Session) destablish() {
	s.notifier.PreFinished(s.id, s.ifName)

	s.reactor.Unregister(s.chanFD) //nolint:errcheck
	s.reactor.Unregister(s.unitFD) //nolint:errcheck

	if !s.unitCache.TryReturn(s.unitFD, s.unitIdx) {
		s.mux.Close(s.unitFD) //nolint:errcheck
	}
	s.metrics.UnitCacheSize(s.unitCache.Len())

	s.mux.Close(s.chanFD)      //nolint:errcheck
	s.mux.Close(s.transportFD) //nolint:errcheck

	s.chanFD = closedFD
	s.unitFD = closedFD

	if s.pipeline != nil {
		s.pipeline.freeLayers()
	}

	releaseBuffer(s.buf)
	s.buf = nil

	s.setState(StateFinished)
	s.notifier.Finished(s.id, s.ifName, s.termReason)
	s.controller.SessionFinished(s, s.termReason)
	s.metrics.SessionTerminated(s.termReason)
}

// ChanSend writes data on the channel descriptor. Best-effort: short
// writes are logged but returned as-is, with no retry.
func (s *Session) ChanSend(data []byte) (int, error) {
	return s.send(s.chanFD, data)
}

// UnitSend writes data on the unit descriptor. Best-effort: short
// writes are logged but returned as-is, with no retry.
func (s *Session) UnitSend(data []byte) (int, error) {
	return s.send(s.unitFD, data)
}

func (s *Session) send(fd int, data []byte) (int, error) {
	if fd == closedFD {
		return 0, ErrSessionClosed
	}

	n, err := s.mux.Write(fd, data)
	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}
	if n < len(data) {
		s.logger.Warn("short write", slog.Int("wrote", n), slog.Int("requested", len(data)))
	}
	return n, nil
}

// RegisterChanHandler places reg on the channel handler list.
func (s *Session) RegisterChanHandler(reg *HandlerRegistration) {
	s.chanHandlers.register(reg)
}

// RegisterUnitHandler places reg on the unit handler list.
func (s *Session) RegisterUnitHandler(reg *HandlerRegistration) {
	s.unitHandlers.register(reg)
}

// UnregisterHandler removes reg from whichever handler list holds it.
func (s *Session) UnregisterHandler(reg *HandlerRegistration) {
	if s.chanHandlers.unregister(reg) {
		return
	}
	s.unitHandlers.unregister(reg)
}

// RecvProtoRej is invoked by the external LCP implementation when it
// demultiplexes a Protocol-Reject frame naming tag. The matching
// registration's RecvProtoRej callback, if any, is invoked; tags not
// found on either list are silently ignored.
func (s *Session) RecvProtoRej(tag uint16) {
	if reg := s.chanHandlers.find(tag); reg != nil {
		if reg.RecvProtoRej != nil {
			reg.RecvProtoRej()
		}
		return
	}
	if reg := s.unitHandlers.find(tag); reg != nil && reg.RecvProtoRej != nil {
		reg.RecvProtoRej()
	}
}

// FindLayerData returns the LayerData instantiated for factory in this
// session's pipeline, if any.
func (s *Session) FindLayerData(factory LayerFactory) (*LayerData, bool) {
	if s.pipeline == nil {
		return nil, false
	}
	return s.pipeline.findLayerData(factory)
}

// LayerStarted is called by an external layer FSM once it has finished
// negotiation successfully.
func (s *Session) LayerStarted(ld *LayerData) {
	s.pipeline.onLayerStarted(ld, false)
}

// LayerPassive is called by an external layer FSM that agrees to let
// the session advance without its own successful negotiation.
func (s *Session) LayerPassive(ld *LayerData) {
	s.pipeline.onLayerStarted(ld, true)
}

// LayerFinished is called by an external layer FSM once it has wound
// down in response to Finish.
func (s *Session) LayerFinished(ld *LayerData) {
	s.pipeline.onLayerFinished(ld)
}
