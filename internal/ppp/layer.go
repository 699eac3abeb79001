package ppp

import "fmt"

// Tier is the execution tier a layer factory belongs to. Tiers are
// activated in ascending order; factories within a tier start together.
type Tier int

// Fixed tier assignment, keyed by layer name. lcp starts alone, then
// auth, then the network control protocols run concurrently.
const (
	TierLCP  Tier = 0
	TierAuth Tier = 1
	TierNCP  Tier = 2
)

// tierForName derives the fixed tier number for one of the five
// recognized layer names. Any other name is rejected.
func tierForName(name string) (Tier, error) {
	switch name {
	case "lcp":
		return TierLCP, nil
	case "auth":
		return TierAuth, nil
	case "ccp", "ipcp", "ipv6cp":
		return TierNCP, nil
	default:
		return 0, fmt.Errorf("layer %q: %w", name, ErrUnknownLayer)
	}
}

// LayerFactory is a process-wide registered entity identified by name.
// The core only invokes these four entry points; the layer's own
// negotiation logic is entirely external.
type LayerFactory interface {
	// Name returns one of "lcp", "auth", "ccp", "ipcp", "ipv6cp".
	Name() string

	// Init is called once per session during pipeline construction. It
	// returns an opaque payload (stored on the resulting LayerData and
	// handed back to Start/Finish/Free) and whether this layer is
	// optional for its tier's completion rule.
	Init(s *Session) (payload any, optional bool)

	// Start begins negotiation for this layer. A non-nil error aborts
	// the session (soft NAS_ERROR termination).
	Start(ld *LayerData) error

	// Finish requests that an in-progress layer wind down. The layer
	// implementation must eventually call Session.LayerFinished(ld).
	Finish(ld *LayerData)

	// Free releases any resources the factory allocated in Init. Called
	// once per session during pipeline teardown.
	Free(ld *LayerData)
}

// LayerData is the per-session, per-factory pipeline entry. It is
// allocated by the pipeline during construction and is the handle
// passed to every LayerFactory method and to
// LayerStarted/LayerPassive/LayerFinished.
//
// The four flags and the tier/session back-references are owned by the
// pipeline; Payload is owned by the factory.
type LayerData struct {
	factory LayerFactory

	// Payload is the opaque per-layer state returned by the factory's
	// Init call.
	Payload any

	optional bool
	starting bool
	started  bool
	passive  bool
	finished bool

	tier    *pipelineTier
	session *Session
}

// Factory returns the LayerFactory that produced this LayerData.
func (ld *LayerData) Factory() LayerFactory { return ld.factory }

// Session returns the owning Session.
func (ld *LayerData) Session() *Session { return ld.session }

// Started reports whether LayerStarted has been observed for this
// entry.
func (ld *LayerData) Started() bool { return ld.started }

// Passive reports whether LayerPassive has been observed for this
// entry.
func (ld *LayerData) Passive() bool { return ld.passive }

// Finished reports whether LayerFinished has been observed for this
// entry.
func (ld *LayerData) Finished() bool { return ld.finished }

// Starting reports whether this entry's Start has been called and it
// has not yet finished.
func (ld *LayerData) Starting() bool { return ld.starting }

// Optional reports whether this entry was marked optional at Init.
func (ld *LayerData) Optional() bool { return ld.optional }
