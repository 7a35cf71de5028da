// Package ratelimit implements the sliding-window request limiter that sits
// in front of every route.
//
// A window keeps, per caller key, the instants of the requests seen during
// the trailing window. Each call prunes expired instants, records the current
// one (even when the call is rejected) and allows the request only while the
// recorded count does not exceed the limit.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit  = 8
	DefaultWindow = 10 * time.Second
)

// Limiter decides whether a request from key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Memory is an in-process Limiter. It is safe for concurrent use.
//
// Keys whose instants have all expired are dropped by a sweep that runs at
// most once per window, so the map holds only callers seen recently.
type Memory struct {
	mu        sync.Mutex
	now       func() time.Time
	records   map[string][]time.Time
	lastSweep time.Time
}

// Option configures a Memory limiter.
type Option func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory returns an empty in-memory limiter.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		now:     time.Now,
		records: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allow implements Limiter. It never returns an error.
func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= window {
		m.sweep(now, window)
	}

	kept := prune(m.records[key], now, window)
	kept = append(kept, now)
	m.records[key] = kept

	return len(kept) <= limit, nil
}

func (m *Memory) sweep(now time.Time, window time.Duration) {
	for k, ts := range m.records {
		if ts = prune(ts, now, window); len(ts) == 0 {
			delete(m.records, k)
			continue
		}
		m.records[k] = ts
	}
	m.lastSweep = now
}

// Keys returns how many caller keys are tracked.
func (m *Memory) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Count returns how many instants are currently recorded for key.
func (m *Memory) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[key])
}

// prune drops instants that fell out of the window. The slice is ordered, so
// the first instant still inside the window marks the cut.
func prune(ts []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(ts) && now.Sub(ts[i]) >= window {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
