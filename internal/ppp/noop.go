package ppp

// NoopNotifier discards all lifecycle announcements. Used when no
// notification backend (e.g. internal/notify's D-Bus notifier) is
// configured.
type NoopNotifier struct{}

func (NoopNotifier) Starting(string, string)                 {}
func (NoopNotifier) Active(string, string)                   {}
func (NoopNotifier) PreFinished(string, string)               {}
func (NoopNotifier) Finished(string, string, TermReason) {}

// NoopMetrics discards all metrics events.
type NoopMetrics struct{}

func (NoopMetrics) UnitCacheHit()                  {}
func (NoopMetrics) UnitCacheMiss()                 {}
func (NoopMetrics) UnitCacheSize(int)              {}
func (NoopMetrics) SessionEstablished()            {}
func (NoopMetrics) SessionTerminated(TermReason)   {}
func (NoopMetrics) TierAdvanced(Tier)              {}
func (NoopMetrics) FrameDemuxed(bool)              {}
func (NoopMetrics) FrameDropped(string)            {}
func (NoopMetrics) ProtocolRejectSent(uint16)       {}

// NoopController discards all session lifecycle callbacks. Useful for
// tests that exercise Session directly without a Manager.
type NoopController struct{}

func (NoopController) SessionStarting(*Session)               {}
func (NoopController) SessionActive(*Session)                 {}
func (NoopController) SessionFinished(*Session, TermReason) {}

var (
	_ Notifier          = NoopNotifier{}
	_ MetricsReporter   = NoopMetrics{}
	_ SessionController = NoopController{}
)
