package ppp

import (
	"fmt"
	"log/slog"
	"sync"
)

// Manager tracks the set of live sessions for a daemon: it is the
// default SessionController implementation, learning of lifecycle
// transitions and removing sessions from its registry once they
// finish. Manager is the collaborator cmd/pppd's control surface and
// cmd/pppctl operate against; it supplements the external,
// out-of-scope "ap_session list" accel-pppd relies on.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	mux       Multiplexor
	reactor   Reactor
	registry  *LayerRegistry
	unitCache *UnitCache
	notifier  Notifier
	metrics   MetricsReporter
	logger    *slog.Logger
	verbose   bool
}

// ManagerOption configures optional Manager collaborators.
type ManagerOption func(*Manager)

// WithManagerNotifier sets the lifecycle notifier propagated to every
// session the Manager establishes.
func WithManagerNotifier(n Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

// WithManagerMetrics sets the metrics reporter propagated to every
// session the Manager establishes.
func WithManagerMetrics(r MetricsReporter) ManagerOption {
	return func(m *Manager) { m.metrics = r }
}

// WithManagerLogger overrides the Manager's logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithManagerVerbose sets the initial per-session verbose-logging flag
// propagated to every session the Manager establishes. See SetVerbose
// to change it after construction.
func WithManagerVerbose(v bool) ManagerOption {
	return func(m *Manager) { m.verbose = v }
}

// NewManager creates a Manager driving sessions through mux/reactor
// against the given layer registry and unit cache.
func NewManager(mux Multiplexor, reactor Reactor, registry *LayerRegistry, unitCache *UnitCache, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		mux:       mux,
		reactor:   reactor,
		registry:  registry,
		unitCache: unitCache,
		notifier:  NoopNotifier{},
		metrics:   NoopMetrics{},
		logger:    slog.Default().With(slog.String("component", "ppp.manager")),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Establish creates a Session over transportFD, registers it under id,
// and calls Establish on it. On failure the session is not registered.
func (m *Manager) Establish(id string, transportFD, mru int, opts ...SessionOption) (*Session, error) {
	m.mu.Lock()
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("establish %s: %w", id, ErrSessionExists)
	}
	m.mu.Unlock()

	m.mu.RLock()
	verbose := m.verbose
	m.mu.RUnlock()

	allOpts := append([]SessionOption{
		WithNotifier(m.notifier),
		WithMetrics(m.metrics),
		WithVerbose(verbose),
	}, opts...)

	s := NewSession(id, transportFD, mru, m.mux, m.reactor, m.registry, m.unitCache, m, allOpts...)

	if err := s.Establish(); err != nil {
		return nil, fmt.Errorf("establish %s: %w", id, err)
	}

	// A session whose first tier failed to start may already have
	// finished inside Establish; SessionFinished has run for it, so it is
	// not registered.
	m.mu.Lock()
	if s.State() != StateFinished {
		m.sessions[id] = s
	}
	m.mu.Unlock()

	return s, nil
}

// Get returns the session registered under id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Terminate terminates the session registered under id.
func (m *Manager) Terminate(id string, reason TermReason, hard bool) error {
	s, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("terminate %s: %w", id, ErrSessionNotFound)
	}
	s.Terminate(reason, hard)
	return nil
}

// SessionSnapshot is a point-in-time, read-only view of a session for
// listing/monitoring purposes.
type SessionSnapshot struct {
	ID     string
	IfName string
	State  State
}

// Sessions returns a snapshot of every currently registered session.
func (m *Manager) Sessions() []SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SessionSnapshot, 0, len(m.sessions))
	for id, s := range m.sessions {
		out = append(out, SessionSnapshot{ID: id, IfName: s.IfName(), State: s.State()})
	}
	return out
}

// SetVerbose updates the verbose-logging flag on every currently
// registered session and on every session established afterward.
// Intended for use from a config-reload path (e.g. SIGHUP).
func (m *Manager) SetVerbose(v bool) {
	m.mu.Lock()
	m.verbose = v
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.SetVerbose(v)
	}
}

// SetUnitCacheBound live-resizes the shared UnitCache, closing any
// units evicted by a shrink. Intended for use from a config-reload
// path (e.g. SIGHUP); unlike SetVerbose this does not need to touch
// individual sessions since the cache is shared.
func (m *Manager) SetUnitCacheBound(bound int) {
	for _, fd := range m.unitCache.SetBound(bound) {
		if err := m.mux.Close(fd); err != nil {
			m.logger.Warn("failed to close unit cache entry evicted by resize",
				slog.Int("fd", fd), slog.String("error", err.Error()))
		}
	}
	m.metrics.UnitCacheSize(m.unitCache.Len())
}

// SessionStarting implements SessionController.
func (m *Manager) SessionStarting(s *Session) {
	m.logger.Info("session starting", slog.String("session_id", s.ID()), slog.String("ifname", s.IfName()))
}

// SessionActive implements SessionController.
func (m *Manager) SessionActive(s *Session) {
	m.logger.Info("session active", slog.String("session_id", s.ID()), slog.String("ifname", s.IfName()))
}

// SessionFinished implements SessionController: removes the session
// from the registry.
func (m *Manager) SessionFinished(s *Session, reason TermReason) {
	m.mu.Lock()
	delete(m.sessions, s.ID())
	m.mu.Unlock()

	m.logger.Info("session finished",
		slog.String("session_id", s.ID()),
		slog.String("reason", reason.String()),
	)
}

var _ SessionController = (*Manager)(nil)
