// Package tracker counts work that is currently in flight.
package tracker

import "sync/atomic"

// Tracker counts running operations using atomics.
// The zero value is ready to use.
type Tracker struct {
	running atomic.Int64
	total   atomic.Int64
}

// Start marks one operation as running and returns the func that ends it.
func (t *Tracker) Start() (done func()) {
	t.running.Add(1)
	t.total.Add(1)
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			t.running.Add(-1)
		}
	}
}

// Running returns the current running count.
func (t *Tracker) Running() int64 { return t.running.Load() }

// Total returns how many operations were ever started.
func (t *Tracker) Total() int64 { return t.total.Load() }
