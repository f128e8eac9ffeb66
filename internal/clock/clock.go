// Package clock provides the arena's notion of current time in unix seconds.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns the current unix time in seconds.
type Clock interface {
	Now() int64
}

// System reads the wall clock.
type System struct{}

// Now returns time.Now in unix seconds.
func (System) Now() int64 {
	return time.Now().Unix()
}

// Manual is a settable clock for tests and replays.
type Manual struct {
	now atomic.Int64
}

// NewManual creates a Manual clock starting at start.
func NewManual(start int64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

// Now returns the current manual time.
func (m *Manual) Now() int64 {
	return m.now.Load()
}

// Set moves the clock to t.
func (m *Manual) Set(t int64) {
	m.now.Store(t)
}

// Advance moves the clock forward by d, truncated to whole seconds.
func (m *Manual) Advance(d time.Duration) {
	m.now.Add(int64(d / time.Second))
}
