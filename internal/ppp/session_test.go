package ppp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokarak/gopppd/internal/ppp"
)

func TestEstablish_SingleLCPLayer_ActivatesSessionImmediately(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	lcp := &fakeLayer{name: "lcp", autoStarted: true}
	require.NoError(t, registry.Register("lcp", lcp))

	mux := newFakeMux()
	reactor := newFakeReactor()
	ctrl := &recordingController{}
	unitCache := ppp.NewUnitCache(0)

	s := ppp.NewSession("s1", 1, 1500, mux, reactor, registry, unitCache, ctrl)
	require.NoError(t, s.Establish())

	assert.Equal(t, ppp.StateActive, s.State())
	assert.Equal(t, 1, lcp.starts)

	starting, active, finished, _ := ctrl.snapshot()
	assert.Equal(t, 1, starting)
	assert.Equal(t, 1, active)
	assert.Equal(t, 0, finished)
}

func TestEstablish_ThreeTierHappyPath_CascadesToActive(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	lcp := &fakeLayer{name: "lcp", autoStarted: true}
	auth := &fakeLayer{name: "auth", autoStarted: true}
	ipcp := &fakeLayer{name: "ipcp", autoStarted: true}
	require.NoError(t, registry.Register("lcp", lcp))
	require.NoError(t, registry.Register("auth", auth))
	require.NoError(t, registry.Register("ipcp", ipcp))

	mux := newFakeMux()
	reactor := newFakeReactor()
	ctrl := &recordingController{}
	unitCache := ppp.NewUnitCache(0)

	s := ppp.NewSession("s2", 1, 1500, mux, reactor, registry, unitCache, ctrl)
	require.NoError(t, s.Establish())

	assert.Equal(t, 1, lcp.starts)
	assert.Equal(t, 1, auth.starts)
	assert.Equal(t, 1, ipcp.starts)
	assert.Equal(t, ppp.StateActive, s.State())
}

func TestDemux_UnknownProtocol_SendsProtocolReject(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	lcp := &fakeLayer{name: "lcp"}
	require.NoError(t, registry.Register("lcp", lcp))

	mux := newFakeMux()
	reactor := newFakeReactor()
	ctrl := &recordingController{}
	unitCache := ppp.NewUnitCache(0)

	var rejected []uint16
	s := ppp.NewSession("s3", 1, 1500, mux, reactor, registry, unitCache, ctrl,
		ppp.WithProtocolRejectSender(func(tag uint16) { rejected = append(rejected, tag) }),
	)
	require.NoError(t, s.Establish())

	fds := reactor.registeredFDs()
	require.Len(t, fds, 2)
	chanFD := fds[0]

	frame := []byte{0x40, 0x21, 0x01, 0x02, 0x03, 0x04}
	mux.queueRead(chanFD, frame)
	reactor.trigger(chanFD)

	require.Len(t, rejected, 1)
	assert.Equal(t, uint16(0x4021), rejected[0])
	assert.False(t, mux.isClosed(chanFD))
}

func TestDemux_ChannelEOF_TerminatesHardWithNASError(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	lcp := &fakeLayer{name: "lcp", autoStarted: true}
	require.NoError(t, registry.Register("lcp", lcp))

	mux := newFakeMux()
	reactor := newFakeReactor()
	ctrl := &recordingController{}
	unitCache := ppp.NewUnitCache(2)

	s := ppp.NewSession("s4", 1, 1500, mux, reactor, registry, unitCache, ctrl)
	require.NoError(t, s.Establish())
	require.Equal(t, ppp.StateActive, s.State())

	fds := reactor.registeredFDs()
	require.Len(t, fds, 2)
	chanFD := fds[0]

	mux.queueRead(chanFD, nil) // zero-length read => EOF

	reactor.trigger(chanFD)

	assert.Equal(t, ppp.StateFinished, s.State())
	assert.Equal(t, ppp.TermNASError, s.TermReason())
	assert.True(t, mux.isClosed(chanFD))

	_, _, finished, reason := ctrl.snapshot()
	assert.Equal(t, 1, finished)
	assert.Equal(t, ppp.TermNASError, reason)

	// unit fd should have been returned to the cache rather than closed.
	assert.Equal(t, 1, unitCache.Len())
}

func TestUnitCache_ReusedAcrossSequentialSessions(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	require.NoError(t, registry.Register("lcp", &fakeLayer{name: "lcp", autoStarted: true}))

	mux := newFakeMux()
	unitCache := ppp.NewUnitCache(2)

	// Sessions run one at a time, so at most one released unit is ever
	// sitting in the cache: each Establish takes it right back out.
	for i := 1; i <= 3; i++ {
		reactor := newFakeReactor()
		ctrl := &recordingController{}
		s := ppp.NewSession("sess", i, 1500, mux, reactor, registry, unitCache, ctrl)
		require.NoError(t, s.Establish())
		s.Terminate(ppp.TermUserRequest, true)
	}

	assert.Equal(t, 1, unitCache.Len())
}

func TestTerminate_Soft_DrainsStartingLayerBeforeFinishing(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	lcp := &fakeLayer{name: "lcp", autoStarted: true}
	auth := &fakeLayer{name: "auth"} // Start() returns nil but does not call LayerStarted: stays "starting".
	require.NoError(t, registry.Register("lcp", lcp))
	require.NoError(t, registry.Register("auth", auth))

	mux := newFakeMux()
	reactor := newFakeReactor()
	ctrl := &recordingController{}
	unitCache := ppp.NewUnitCache(0)

	s := ppp.NewSession("s6", 1, 1500, mux, reactor, registry, unitCache, ctrl)
	require.NoError(t, s.Establish())

	// lcp activated its tier, which started auth; auth never calls
	// LayerStarted so the session never reaches StateActive.
	assert.Equal(t, ppp.StateStarting, s.State())
	assert.Equal(t, 1, auth.starts)

	s.Terminate(ppp.TermUserRequest, false)

	assert.Equal(t, 1, auth.finishes)
	assert.Equal(t, ppp.StateFinished, s.State())

	_, _, finished, reason := ctrl.snapshot()
	assert.Equal(t, 1, finished)
	assert.Equal(t, ppp.TermUserRequest, reason)
}

func TestTerminate_Hard_IsIdempotent(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	require.NoError(t, registry.Register("lcp", &fakeLayer{name: "lcp", autoStarted: true}))

	mux := newFakeMux()
	reactor := newFakeReactor()
	ctrl := &recordingController{}
	unitCache := ppp.NewUnitCache(0)

	s := ppp.NewSession("s8", 1, 1500, mux, reactor, registry, unitCache, ctrl)
	require.NoError(t, s.Establish())

	s.Terminate(ppp.TermAdminReset, true)
	s.Terminate(ppp.TermAdminReset, true)

	_, _, finished, _ := ctrl.snapshot()
	assert.Equal(t, 1, finished)
}

func TestLayerStarted_CalledTwice_IsIdempotent(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	lcp := &fakeLayer{name: "lcp"}
	require.NoError(t, registry.Register("lcp", lcp))

	mux := newFakeMux()
	reactor := newFakeReactor()
	ctrl := &recordingController{}
	unitCache := ppp.NewUnitCache(0)

	s := ppp.NewSession("s7", 1, 1500, mux, reactor, registry, unitCache, ctrl)
	require.NoError(t, s.Establish())

	ld, ok := s.FindLayerData(lcp)
	require.True(t, ok)

	s.LayerStarted(ld)
	_, active1, _, _ := ctrl.snapshot()
	s.LayerStarted(ld)
	_, active2, _, _ := ctrl.snapshot()

	assert.Equal(t, active1, active2)
	assert.Equal(t, 1, active1)
}

func TestLayerPassive_AfterLayerStarted_IsNoop(t *testing.T) {
	registry := ppp.NewLayerRegistry()
	lcp := &fakeLayer{name: "lcp"}
	require.NoError(t, registry.Register("lcp", lcp))

	mux := newFakeMux()
	reactor := newFakeReactor()
	ctrl := &recordingController{}
	metrics := &fakeMetrics{}
	unitCache := ppp.NewUnitCache(0)

	s := ppp.NewSession("s8", 1, 1500, mux, reactor, registry, unitCache, ctrl, ppp.WithMetrics(metrics))
	require.NoError(t, s.Establish())

	ld, ok := s.FindLayerData(lcp)
	require.True(t, ok)

	s.LayerStarted(ld)
	_, active1, _, _ := ctrl.snapshot()
	advances1 := metrics.snapshot()

	// A layer that already reported started must not also re-trigger
	// the tier-complete cascade when reported passive: ppp.c's
	// ppp_layer_passive guards on d->started exactly like
	// ppp_layer_started does.
	s.LayerPassive(ld)
	_, active2, _, _ := ctrl.snapshot()
	advances2 := metrics.snapshot()

	assert.True(t, ld.Started())
	assert.False(t, ld.Passive())
	assert.Equal(t, active1, active2)
	assert.Equal(t, 1, active1)
	assert.Equal(t, advances1, advances2)
	assert.Equal(t, 1, advances1)
}
