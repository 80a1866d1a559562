package testutil

import (
	"sync"
	"time"
)

// Epoch is the start time used by NewStepClock when none is given.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// StepClock is a deterministic wall clock for tests. Every Now call returns
// the current time and then advances it by a fixed step, so measured
// durations depend only on the number of calls.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
}

// NewStepClock creates a clock starting at Epoch that advances by step.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{start: Epoch, now: Epoch, step: step}
}

// Now returns the current time and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Since returns the time elapsed from t to the clock's current time and
// advances the clock.
func (c *StepClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Calls returns the number of Now or Since calls made so far.
func (c *StepClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step == 0 {
		return 0
	}
	return int64(c.now.Sub(c.start) / c.step)
}

// Reset moves the clock back to its start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
