// Package metrics implements ppp.MetricsReporter against Prometheus,
// following the teacher's NewCollector(reg)/newMetrics() split: vector
// construction is separable from registration so tests can build a
// Collector against an isolated prometheus.Registry.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tokarak/gopppd/internal/ppp"
)

const namespace = "gopppd"

// Label names.
const (
	labelReason    = "reason"
	labelTier      = "tier"
	labelDirection = "direction"
	labelDropCause = "cause"
	labelProto     = "proto"
)

// Collector holds every gopppd Prometheus metric and implements
// ppp.MetricsReporter so it can be wired directly into ppp.Manager via
// WithManagerMetrics.
type Collector struct {
	// UnitCacheHits counts Session.Establish calls that reused a cached
	// kernel unit instead of allocating a new one.
	UnitCacheHits prometheus.Counter

	// UnitCacheMisses counts Session.Establish calls that had to
	// allocate a fresh kernel unit.
	UnitCacheMisses prometheus.Counter

	// UnitCacheSizeGauge tracks the current number of released units
	// sitting in the cache.
	UnitCacheSizeGauge prometheus.Gauge

	// SessionsActive tracks the number of sessions currently in
	// StateActive or later (decremented once a session finishes).
	SessionsActive prometheus.Gauge

	// SessionsTerminated counts session teardowns, labeled by
	// TermReason.
	SessionsTerminated *prometheus.CounterVec

	// TierAdvances counts layer-pipeline tier completions, labeled by
	// tier name.
	TierAdvances *prometheus.CounterVec

	// FramesDemuxed counts frames successfully dispatched by
	// FrameDemux, labeled by which descriptor they arrived on.
	FramesDemuxed *prometheus.CounterVec

	// FramesDropped counts frames the demux loop discarded without
	// dispatch, labeled by cause (short-read, channel-eof,
	// unknown-protocol).
	FramesDropped *prometheus.CounterVec

	// ProtocolRejects counts outbound LCP Protocol-Reject frames sent in
	// response to an unrecognized protocol tag, labeled by the rejected
	// protocol number.
	ProtocolRejects *prometheus.CounterVec
}

// NewCollector creates a Collector with every metric registered against
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.UnitCacheHits,
		c.UnitCacheMisses,
		c.UnitCacheSizeGauge,
		c.SessionsActive,
		c.SessionsTerminated,
		c.TierAdvances,
		c.FramesDemuxed,
		c.FramesDropped,
		c.ProtocolRejects,
	)

	return c
}

// newMetrics creates all Prometheus metrics without registering them.
func newMetrics() *Collector {
	return &Collector{
		UnitCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "unit_cache",
			Name:      "hits_total",
			Help:      "Session.Establish calls that reused a cached kernel PPP unit.",
		}),

		UnitCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "unit_cache",
			Name:      "misses_total",
			Help:      "Session.Establish calls that allocated a fresh kernel PPP unit.",
		}),

		UnitCacheSizeGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "unit_cache",
			Name:      "size",
			Help:      "Number of released kernel PPP units currently cached for reuse.",
		}),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of sessions currently established.",
		}),

		SessionsTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "terminated_total",
			Help:      "Total sessions torn down, labeled by termination reason.",
		}, []string{labelReason}),

		TierAdvances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tier_advances_total",
			Help:      "Total layer pipeline tier completions, labeled by tier.",
		}, []string{labelTier}),

		FramesDemuxed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "demux",
			Name:      "frames_total",
			Help:      "Total frames dispatched by the demux loop, labeled by descriptor.",
		}, []string{labelDirection}),

		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "demux",
			Name:      "frames_dropped_total",
			Help:      "Total frames discarded by the demux loop, labeled by cause.",
		}, []string{labelDropCause}),

		ProtocolRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lcp",
			Name:      "protocol_rejects_total",
			Help:      "Total outbound Protocol-Reject frames sent, labeled by rejected protocol.",
		}, []string{labelProto}),
	}
}

// -------------------------------------------------------------------------
// ppp.MetricsReporter
// -------------------------------------------------------------------------

// UnitCacheHit implements ppp.MetricsReporter.
func (c *Collector) UnitCacheHit() { c.UnitCacheHits.Inc() }

// UnitCacheMiss implements ppp.MetricsReporter.
func (c *Collector) UnitCacheMiss() { c.UnitCacheMisses.Inc() }

// UnitCacheSize implements ppp.MetricsReporter.
func (c *Collector) UnitCacheSize(n int) { c.UnitCacheSizeGauge.Set(float64(n)) }

// SessionEstablished implements ppp.MetricsReporter.
func (c *Collector) SessionEstablished() { c.SessionsActive.Inc() }

// SessionTerminated implements ppp.MetricsReporter.
func (c *Collector) SessionTerminated(reason ppp.TermReason) {
	c.SessionsActive.Dec()
	c.SessionsTerminated.WithLabelValues(reason.String()).Inc()
}

// TierAdvanced implements ppp.MetricsReporter.
func (c *Collector) TierAdvanced(tier ppp.Tier) {
	c.TierAdvances.WithLabelValues(tierName(tier)).Inc()
}

// FrameDemuxed implements ppp.MetricsReporter.
func (c *Collector) FrameDemuxed(isChannel bool) {
	c.FramesDemuxed.WithLabelValues(direction(isChannel)).Inc()
}

// FrameDropped implements ppp.MetricsReporter.
func (c *Collector) FrameDropped(cause string) {
	c.FramesDropped.WithLabelValues(cause).Inc()
}

// ProtocolRejectSent implements ppp.MetricsReporter.
func (c *Collector) ProtocolRejectSent(proto uint16) {
	c.ProtocolRejects.WithLabelValues(strconv.FormatUint(uint64(proto), 16)).Inc()
}

func tierName(tier ppp.Tier) string {
	switch tier {
	case ppp.TierLCP:
		return "lcp"
	case ppp.TierAuth:
		return "auth"
	case ppp.TierNCP:
		return "ncp"
	default:
		return "unknown"
	}
}

func direction(isChannel bool) string {
	if isChannel {
		return "channel"
	}
	return "unit"
}

var _ ppp.MetricsReporter = (*Collector)(nil)
