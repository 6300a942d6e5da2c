// Package pool provides a bounded concurrency semaphore.
package pool

import "context"

// Pool limits how many holders may run at once.
type Pool struct {
	sem chan struct{}
}

// New creates a pool with at least one slot
// and at most 128 slots.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	if size > 128 {
		size = 128
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Acquire reserves one slot in the pool.
// A free slot is taken even if ctx is already done. If the pool is full,
// it blocks until a slot becomes available or the context is canceled.
func (p *Pool) Acquire(ctx context.Context) error {
	if p.TryAcquire() {
		return nil
	}
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire reserves a slot only if one is free right now.
// A single-slot pool used this way rejects a second submission
// while the first is still in flight.
func (p *Pool) TryAcquire() bool {
	select {
	case p.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a previously acquired slot.
func (p *Pool) Release() {
	<-p.sem
}

// InUse reports how many slots are currently held.
func (p *Pool) InUse() int {
	return len(p.sem)
}
