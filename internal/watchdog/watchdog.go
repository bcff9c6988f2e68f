// Package watchdog provides cancellation checks for long-running analysis.
//
// Analysis is single-threaded and synchronous. It polls a Watchdog at fixed
// points and stops with a timeout as soon as Expired reports true.
// Implementations are cheap to poll and never block.
package watchdog

import (
	"context"
	"time"
)

// Watchdog answers whether the analysis budget has run out.
type Watchdog interface {
	Expired() bool
}

// Lazy never expires.
type Lazy struct{}

func (Lazy) Expired() bool { return false }

// Expired has always expired. Useful to check that analysis gives up before
// doing any work.
type Expired struct{}

func (Expired) Expired() bool { return true }

// Deadline expires once the clock passes a fixed instant.
type Deadline struct {
	at  time.Time
	now func() time.Time
}

// NewDeadline returns a Deadline that expires d after now. A non-positive d
// has already expired.
func NewDeadline(d time.Duration) *Deadline {
	return NewDeadlineWithClock(d, time.Now)
}

// NewDeadlineWithClock is NewDeadline with an injectable clock.
func NewDeadlineWithClock(d time.Duration, now func() time.Time) *Deadline {
	return &Deadline{at: now().Add(d), now: now}
}

func (d *Deadline) Expired() bool {
	return !d.now().Before(d.at)
}

// Context expires when its context is done.
type Context struct {
	ctx context.Context
}

// FromContext adapts ctx. Cancelling ctx or reaching its deadline expires the
// watchdog.
func FromContext(ctx context.Context) Context {
	return Context{ctx: ctx}
}

func (c Context) Expired() bool {
	return c.ctx.Err() != nil
}

// StepBudget expires after a fixed number of polls. The poll that exhausts
// the budget reports false; every later poll reports true.
type StepBudget struct {
	remaining int
	polls     int
}

// NewStepBudget allows n polls before expiring.
func NewStepBudget(n int) *StepBudget {
	return &StepBudget{remaining: n}
}

func (s *StepBudget) Expired() bool {
	s.polls++
	if s.remaining <= 0 {
		return true
	}
	s.remaining--
	return false
}

// Polls returns how many times Expired was called.
func (s *StepBudget) Polls() int { return s.polls }

// Any expires as soon as one of its watchdogs does.
type Any []Watchdog

func (a Any) Expired() bool {
	for _, w := range a {
		if w.Expired() {
			return true
		}
	}
	return false
}
