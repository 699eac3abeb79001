// Package nulllayer provides a placeholder ppp.LayerFactory that
// completes immediately without negotiating anything. Real LCP, auth
// and NCP negotiation are explicitly out of scope for the session core
// (the core is the pipe, not a musician); this package exists only so
// cmd/pppd has at least one registered layer per tier and can drive a
// session end to end for local testing and demos.
package nulllayer

import "github.com/tokarak/gopppd/internal/ppp"

// Factory is a ppp.LayerFactory that calls LayerStarted synchronously
// from Start, and LayerFinished synchronously from Finish. It never
// rejects, never negotiates options, and carries no per-session state.
type Factory struct {
	name string
}

// New returns a Factory registered under one of the five fixed layer
// names ("lcp", "auth", "ccp", "ipcp", "ipv6cp").
func New(name string) *Factory {
	return &Factory{name: name}
}

func (f *Factory) Name() string { return f.name }

// Init reports this layer as non-optional: the tier it belongs to only
// completes once this placeholder has started, matching the behavior a
// real, mandatory layer would have.
func (f *Factory) Init(*ppp.Session) (payload any, optional bool) {
	return nil, false
}

// Start immediately reports this layer as started.
func (f *Factory) Start(ld *ppp.LayerData) error {
	ld.Session().LayerStarted(ld)
	return nil
}

// Finish immediately reports this layer as finished.
func (f *Factory) Finish(ld *ppp.LayerData) {
	ld.Session().LayerFinished(ld)
}

// Free releases nothing; Factory carries no per-session payload.
func (f *Factory) Free(*ppp.LayerData) {}

var _ ppp.LayerFactory = (*Factory)(nil)
