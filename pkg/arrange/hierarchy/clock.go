package hierarchy

import (
	"sync"
	"time"
)

// Clock supplies the wall-clock readings the refinement budget is measured
// against.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// ManualClock is a Clock that only moves when told to. Each call to Now
// returns the current reading and then advances it by Step, which lets tests
// drive the budget branches deterministically. A zero Step freezes time.
type ManualClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewManualClock returns a ManualClock reading start and advancing by step
// on every call to Now.
func NewManualClock(start time.Time, step time.Duration) *ManualClock {
	return &ManualClock{now: start, Step: step}
}

// Now returns the current reading and advances the clock by Step.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Advance moves the clock forward by d without reading it.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
