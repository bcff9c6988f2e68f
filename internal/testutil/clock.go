package testutil

import (
	"sync"
	"time"
)

// Epoch is the starting instant of every test clock.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TickingClock is a deterministic clock for watchdog deadlines. Every call
// to Now advances it by a fixed step, so a deadline of n steps expires on
// the n-th poll regardless of machine speed.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type TickingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewTickingClock creates a clock at Epoch advancing by step per reading.
// A zero step makes a frozen clock that only moves through Advance.
func NewTickingClock(step time.Duration) *TickingClock {
	return &TickingClock{now: Epoch, step: step}
}

// Now returns the current instant, then advances the clock by one step.
func (c *TickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *TickingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset returns the clock to Epoch.
func (c *TickingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch
}
