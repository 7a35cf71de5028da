// Package latency simulates network delay inside route handlers.
package latency

import (
	"context"
	"math/rand/v2"
	"time"
)

// Step names a handler whose delay can be configured.
type Step string

const (
	StepTrack    Step = "track"
	StepCreate   Step = "create"
	StepGet      Step = "get"
	StepProvider Step = "provider"
)

// Delays holds the base delay per step and an optional random jitter added
// on top of each one.
type Delays struct {
	Track    time.Duration
	Create   time.Duration
	Get      time.Duration
	Provider time.Duration
	Jitter   time.Duration
}

// DefaultDelays mirrors the timings of the hosted API.
func DefaultDelays() Delays {
	return Delays{
		Track:    800 * time.Millisecond,
		Create:   500 * time.Millisecond,
		Get:      300 * time.Millisecond,
		Provider: 200 * time.Millisecond,
	}
}

// Simulator sleeps for the configured delay of a step.
type Simulator struct {
	delays Delays
	rnd    func(n int64) int64
}

// New returns a Simulator. A zero Delays disables all sleeping.
func New(d Delays) *Simulator {
	return &Simulator{delays: d, rnd: rand.Int64N}
}

// For returns the delay for step, jitter included.
func (s *Simulator) For(step Step) time.Duration {
	var d time.Duration
	switch step {
	case StepTrack:
		d = s.delays.Track
	case StepCreate:
		d = s.delays.Create
	case StepGet:
		d = s.delays.Get
	case StepProvider:
		d = s.delays.Provider
	}
	if s.delays.Jitter > 0 {
		d += time.Duration(s.rnd(int64(s.delays.Jitter)))
	}
	return d
}

// Wait sleeps for step's delay or returns early with ctx.Err().
func (s *Simulator) Wait(ctx context.Context, step Step) error {
	if s == nil {
		return nil
	}
	return SleepOrDone(ctx, s.For(step))
}

// SleepOrDone waits for the duration or returns early on context cancellation.
func SleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
