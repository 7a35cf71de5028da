// Package pool provides a bounded concurrency semaphore with an in-flight
// counter. The tracking supervisor uses it to cap how many polls run at once.
package pool

import (
	"context"
	"sync/atomic"
)

// MaxSize is the largest number of slots a Pool will hold.
const MaxSize = 128

// Pool limits concurrent work.
type Pool struct {
	sem     chan struct{}
	running atomic.Int64
}

// New creates a pool with at least one slot and at most MaxSize slots.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	if size > MaxSize {
		size = MaxSize
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Size returns the number of slots.
func (p *Pool) Size() int { return cap(p.sem) }

// Acquire reserves one slot in the pool.
// If the pool is full, it blocks until a slot becomes available
// or the context is canceled.
// It returns ctx.Err() if acquisition is aborted due to cancellation.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		p.running.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot.
func (p *Pool) Release() {
	p.running.Add(-1)
	<-p.sem
}

// Running returns how many slots are held right now.
func (p *Pool) Running() int64 { return p.running.Load() }

// Do runs fn while holding a slot.
func (p *Pool) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := p.Acquire(ctx); err != nil {
		return err
	}
	defer p.Release()
	return fn(ctx)
}
