package testutil

import (
	"sync"
	"time"
)

// DeterministicClock yields a strictly increasing sequence of timestamps for
// tests. Every call to Next advances a logical second from a fixed base, so
// records written with it sort identically across runs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	n    int64
}

// NewDeterministicClock creates a clock starting at a fixed UTC base time.
// The first call to Next() returns base + 1s.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{
		base: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Next advances the clock one logical second and returns the new time.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.base.Add(time.Duration(c.n) * time.Second)
}

// Reset rewinds the clock to its base. After Reset(), the next call to
// Next() returns base + 1s again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
