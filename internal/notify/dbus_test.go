package notify_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/tokarak/gopppd/internal/notify"
	"github.com/tokarak/gopppd/internal/ppp"
)

// degraded builds a notifier with no live bus connection, exercising
// the logging-only fallback path without requiring a system bus.
func degraded(buf *bytes.Buffer) *notify.DBusNotifier {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	n, _ := notify.NewDBusNotifier(logger)
	return n
}

func TestDBusNotifier_DegradedMode_LogsInsteadOfEmitting(t *testing.T) {
	var buf bytes.Buffer
	n := degraded(&buf)

	n.Starting("sess-1", "ppp0")

	out := buf.String()
	if !strings.Contains(out, "sess-1") || !strings.Contains(out, "starting") {
		t.Fatalf("expected log to mention session id and state, got: %s", out)
	}
}

func TestDBusNotifier_Active(t *testing.T) {
	var buf bytes.Buffer
	n := degraded(&buf)

	n.Active("sess-2", "ppp1")

	if !strings.Contains(buf.String(), "active") {
		t.Fatalf("expected log to mention active state, got: %s", buf.String())
	}
}

func TestDBusNotifier_PreFinished(t *testing.T) {
	var buf bytes.Buffer
	n := degraded(&buf)

	n.PreFinished("sess-3", "ppp2")

	if !strings.Contains(buf.String(), "preFinished") {
		t.Fatalf("expected log to mention preFinished state, got: %s", buf.String())
	}
}

func TestDBusNotifier_Finished_IncludesReason(t *testing.T) {
	var buf bytes.Buffer
	n := degraded(&buf)

	n.Finished("sess-4", "ppp3", ppp.TermAdminReset)

	out := buf.String()
	if !strings.Contains(out, "sess-4") {
		t.Fatalf("expected log to mention session id, got: %s", out)
	}
}

func TestDBusNotifier_Close_NilConnIsNoop(t *testing.T) {
	var buf bytes.Buffer
	n := degraded(&buf)

	if err := n.Close(); err != nil {
		t.Fatalf("Close on degraded notifier: %v", err)
	}
}

func TestDBusNotifier_NilLoggerDefaultsToSlogDefault(t *testing.T) {
	n, _ := notify.NewDBusNotifier(nil)
	// Must not panic when emitting through the default logger.
	n.Starting("sess-5", "ppp4")
}
