package engine

import "sync/atomic"

// Clock hands out association sequence numbers.
//
// Sequence numbers record creation order within one run and are the
// primary sort key of generated output. Wall-clock time is never used.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out, or 0.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
