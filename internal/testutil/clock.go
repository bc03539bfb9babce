package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time of a StepClock.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// StepClock is a deterministic wall clock for tests.
//
// Each call to Now returns the previous value plus Step, starting at Start.
// With a whole-second Step every timestamp survives the store's
// second-resolution layout unchanged.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewStepClock creates a clock starting at start and advancing by step.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{start: start.UTC(), step: step}
}

// NewClock creates a clock starting at Epoch and advancing one second per call.
func NewClock() *StepClock {
	return NewStepClock(Epoch, time.Second)
}

// Now returns the next timestamp. The first call returns the start time.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *StepClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to its start time.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
