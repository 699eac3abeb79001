package ppp_test

import (
	"fmt"
	"sync"

	"github.com/tokarak/gopppd/internal/ppp"
)

// fakeMux is an in-memory ppp.Multiplexor for tests: no real kernel
// calls, just fd bookkeeping and scripted reads.
type fakeMux struct {
	mu      sync.Mutex
	nextFD  int
	closed  map[int]bool
	writes  map[int][][]byte
	reads   map[int][][]byte
	chanIdx map[int]int
}

func newFakeMux() *fakeMux {
	return &fakeMux{
		closed:  make(map[int]bool),
		writes:  make(map[int][][]byte),
		reads:   make(map[int][][]byte),
		chanIdx: make(map[int]int),
	}
}

func (f *fakeMux) Open() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextFD++
	return f.nextFD, nil
}

func (f *fakeMux) GetChannel(transportFD int) (int, error) {
	return transportFD*100 + 1, nil
}

func (f *fakeMux) AttachChannel(fd, chanIdx int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chanIdx[fd] = chanIdx
	return nil
}

func (f *fakeMux) NewUnit(fd int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextFD++
	return f.nextFD, nil
}

func (f *fakeMux) Connect(chanFD, unitIdx int) error { return nil }
func (f *fakeMux) SetNonblocking(fd int) error       { return nil }
func (f *fakeMux) SetCloseOnExec(fd int) error       { return nil }

func (f *fakeMux) Read(fd int, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := f.reads[fd]
	if len(q) == 0 {
		return 0, fmt.Errorf("fake read: %w", ppp.ErrWouldBlock)
	}
	frame := q[0]
	f.reads[fd] = q[1:]
	n := copy(buf, frame)
	return n, nil
}

func (f *fakeMux) Write(fd int, data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes[fd] = append(f.writes[fd], append([]byte(nil), data...))
	return len(data), nil
}

func (f *fakeMux) Close(fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[fd] = true
	return nil
}

// queueRead schedules frame to be returned by the next Read(fd, ...).
func (f *fakeMux) queueRead(fd int, frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[fd] = append(f.reads[fd], frame)
}

func (f *fakeMux) isClosed(fd int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[fd]
}

// fakeReactor records registrations and lets tests trigger readiness
// callbacks synchronously.
type fakeReactor struct {
	mu           sync.Mutex
	callbacks    map[int]func()
	unregistered map[int]bool
	order        []int
}

func newFakeReactor() *fakeReactor {
	return &fakeReactor{
		callbacks:    make(map[int]func()),
		unregistered: make(map[int]bool),
	}
}

func (r *fakeReactor) RegisterRead(fd int, onReadable func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[fd] = onReadable
	r.order = append(r.order, fd)
	return nil
}

// registeredFDs returns fds in the order RegisterRead was called.
// Session.Establish registers the channel fd before the unit fd.
func (r *fakeReactor) registeredFDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.order...)
}

func (r *fakeReactor) Unregister(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregistered[fd] = true
	delete(r.callbacks, fd)
	return nil
}

func (r *fakeReactor) trigger(fd int) {
	r.mu.Lock()
	cb := r.callbacks[fd]
	r.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// fakeLayer is a scriptable ppp.LayerFactory.
type fakeLayer struct {
	name        string
	optional    bool
	startErr    error
	autoStarted bool // if true, Start calls Session.LayerStarted synchronously.

	starts   int
	finishes int
	frees    int
}

func (f *fakeLayer) Name() string { return f.name }

func (f *fakeLayer) Init(s *ppp.Session) (any, bool) {
	return nil, f.optional
}

func (f *fakeLayer) Start(ld *ppp.LayerData) error {
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	if f.autoStarted {
		ld.Session().LayerStarted(ld)
	}
	return nil
}

func (f *fakeLayer) Finish(ld *ppp.LayerData) {
	f.finishes++
	ld.Session().LayerFinished(ld)
}

func (f *fakeLayer) Free(ld *ppp.LayerData) {
	f.frees++
}

// recordingController counts SessionController callbacks.
type recordingController struct {
	mu        sync.Mutex
	starting  int
	active    int
	finished  int
	lastReason ppp.TermReason
}

func (c *recordingController) SessionStarting(*ppp.Session) {
	c.mu.Lock()
	c.starting++
	c.mu.Unlock()
}

func (c *recordingController) SessionActive(*ppp.Session) {
	c.mu.Lock()
	c.active++
	c.mu.Unlock()
}

func (c *recordingController) SessionFinished(_ *ppp.Session, reason ppp.TermReason) {
	c.mu.Lock()
	c.finished++
	c.lastReason = reason
	c.mu.Unlock()
}

func (c *recordingController) snapshot() (starting, active, finished int, reason ppp.TermReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starting, c.active, c.finished, c.lastReason
}

var _ ppp.SessionController = (*recordingController)(nil)

// fakeMetrics counts MetricsReporter calls relevant to pipeline tests.
type fakeMetrics struct {
	mu           sync.Mutex
	tierAdvances int
}

func (m *fakeMetrics) UnitCacheHit()                    {}
func (m *fakeMetrics) UnitCacheMiss()                   {}
func (m *fakeMetrics) UnitCacheSize(int)                {}
func (m *fakeMetrics) SessionEstablished()              {}
func (m *fakeMetrics) SessionTerminated(ppp.TermReason) {}
func (m *fakeMetrics) FrameDemuxed(bool)                {}
func (m *fakeMetrics) FrameDropped(string)              {}
func (m *fakeMetrics) ProtocolRejectSent(uint16)        {}

func (m *fakeMetrics) TierAdvanced(ppp.Tier) {
	m.mu.Lock()
	m.tierAdvances++
	m.mu.Unlock()
}

func (m *fakeMetrics) snapshot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tierAdvances
}

var _ ppp.MetricsReporter = (*fakeMetrics)(nil)
