package task

import "sync/atomic"

// Counter is the (total, finished) progress pair for a multi-item transfer.
//
// One worker writes it, any number of pollers read it without locking.
// total == 0 means the amount of work is not yet known and must be shown
// as "starting", never as 0%. Once total is published, finished only grows
// and never exceeds total.
type Counter struct {
	total    atomic.Uint64
	finished atomic.Uint64
}

// SetTotal publishes the total amount of work.
//
// Workers must call this before the first Add so a reader can never
// observe finished > total.
func (c *Counter) SetTotal(n uint64) {
	c.total.Store(n)
}

// AddTotal grows the total for pipelines that discover work incrementally.
func (c *Counter) AddTotal(n uint64) {
	c.total.Add(n)
}

// Add records n finished units of work.
func (c *Counter) Add(n uint64) {
	c.finished.Add(n)
}

// Reset returns both fields to zero, for a counter reused across runs.
func (c *Counter) Reset() {
	c.finished.Store(0)
	c.total.Store(0)
}

// Snapshot returns the current (total, finished) pair.
//
// finished is loaded first so a concurrent writer can only make the
// snapshot look slightly behind, never ahead.
func (c *Counter) Snapshot() (total, finished uint64) {
	finished = c.finished.Load()
	total = c.total.Load()
	return total, finished
}

// Percent returns completion in [0, 1] and whether it is defined.
// It is undefined while total is still zero.
func (c *Counter) Percent() (float64, bool) {
	total, finished := c.Snapshot()
	if total == 0 {
		return 0, false
	}
	return float64(finished) / float64(total), true
}
