package engine

import "sync/atomic"

// Clock hands out the logical sequence numbers that order fold records
// within a run. Records are ordered by seq, never by wall time, so a
// replayed journal lists the same calls in the same order.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
