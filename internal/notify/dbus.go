package notify

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/tokarak/gopppd/internal/ppp"
)

// interfaceName is the D-Bus interface under which every session
// lifecycle signal is emitted.
const interfaceName = "org.gopppd.Session1"

// objectPath is fixed: gopppd emits one stream of session signals per
// daemon instance, not one object per session, so subscribers filter
// by the sessionID argument instead of by path.
const objectPath = dbus.ObjectPath("/org/gopppd/Session1")

// DBusNotifier implements ppp.Notifier by emitting signals on the
// system bus. A failed or absent bus connection degrades to logging
// only — the core never depends on notification delivery.
type DBusNotifier struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewDBusNotifier connects to the system bus and returns a Notifier
// backed by it. If the system bus is unreachable, a notifier that only
// logs is returned along with the dial error so callers can decide
// whether to treat it as fatal.
func NewDBusNotifier(logger *slog.Logger) (*DBusNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return &DBusNotifier{logger: logger}, fmt.Errorf("connect system bus: %w", err)
	}

	return &DBusNotifier{conn: conn, logger: logger}, nil
}

// Close releases the underlying bus connection, if one was opened.
func (n *DBusNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Close(); err != nil {
		return fmt.Errorf("close system bus: %w", err)
	}
	return nil
}

func (n *DBusNotifier) emit(member string, args ...any) {
	n.logger.Debug("session signal", "member", member, "args", args)

	if n.conn == nil {
		return
	}

	if err := n.conn.Emit(objectPath, interfaceName+"."+member, args...); err != nil {
		n.logger.Warn("emit session signal failed", "member", member, "error", err)
	}
}

// Starting emits StateChanged with state "starting".
func (n *DBusNotifier) Starting(sessionID, ifName string) {
	n.emit("StateChanged", sessionID, ifName, "starting")
}

// Active emits StateChanged with state "active".
func (n *DBusNotifier) Active(sessionID, ifName string) {
	n.emit("StateChanged", sessionID, ifName, "active")
}

// PreFinished emits StateChanged with state "preFinished".
func (n *DBusNotifier) PreFinished(sessionID, ifName string) {
	n.emit("StateChanged", sessionID, ifName, "preFinished")
}

// Finished emits Terminated with the numeric termination reason.
func (n *DBusNotifier) Finished(sessionID, ifName string, reason ppp.TermReason) {
	n.emit("Terminated", sessionID, ifName, uint8(reason), reason.String())
}

var _ ppp.Notifier = (*DBusNotifier)(nil)
