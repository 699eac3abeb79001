package ppp

import "sync"

// unitCacheEntry is a released kernel PPP unit waiting for reuse.
type unitCacheEntry struct {
	fd      int
	unitIdx int
}

// UnitCache pools released kernel PPP unit descriptors so repeated
// session establishment can skip the NEW_UNIT ioctl. It is shared
// across every Session produced by a Manager and is the one piece of
// inter-session state in this package that needs locking.
//
// Ordering is not guaranteed to be LIFO or FIFO — any order is
// acceptable per the contract, only at-most-once ownership of a given
// fd matters. TryTake and TryReturn are O(1) (SetBound is linear in the
// number of evicted entries), and no operation performs I/O while
// holding the lock: TryReturn's caller closes the fd itself when the
// cache is full.
type UnitCache struct {
	mu      sync.Mutex
	entries []unitCacheEntry
	bound   int
}

// NewUnitCache creates a UnitCache bounded to hold at most bound
// entries. A bound of 0 disables the cache entirely (TryTake always
// misses, TryReturn always reports "no room").
func NewUnitCache(bound int) *UnitCache {
	if bound < 0 {
		bound = 0
	}
	return &UnitCache{bound: bound}
}

// TryTake pops a cached unit, if any is available. ok is false when the
// cache is empty or disabled.
func (c *UnitCache) TryTake() (fd, unitIdx int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bound == 0 || len(c.entries) == 0 {
		return 0, 0, false
	}

	last := len(c.entries) - 1
	e := c.entries[last]
	c.entries = c.entries[:last]
	return e.fd, e.unitIdx, true
}

// TryReturn offers a released unit back to the cache. It returns false
// if the cache is already at its bound (or disabled); the caller must
// then close fd itself.
func (c *UnitCache) TryReturn(fd, unitIdx int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.bound {
		return false
	}

	c.entries = append(c.entries, unitCacheEntry{fd: fd, unitIdx: unitIdx})
	return true
}

// Len reports the current number of cached units. Intended for metrics
// and tests; callers must not rely on it staying accurate without
// re-checking under concurrent use.
func (c *UnitCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Bound reports the configured capacity.
func (c *UnitCache) Bound() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bound
}

// SetBound live-resizes the cache, e.g. on config reload. If the new
// bound is smaller than the current entry count, the oldest excess
// entries are dropped and their fds returned so the caller can close
// them; SetBound itself never performs I/O while holding the lock,
// matching TryReturn's contract.
func (c *UnitCache) SetBound(bound int) (evictedFDs []int) {
	if bound < 0 {
		bound = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.bound = bound
	if len(c.entries) <= bound {
		return nil
	}

	cut := len(c.entries) - bound
	for _, e := range c.entries[:cut] {
		evictedFDs = append(evictedFDs, e.fd)
	}
	c.entries = c.entries[cut:]
	return evictedFDs
}
