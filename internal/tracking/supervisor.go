package tracking

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iliamunaev/storefront-mock/internal/pool"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("tracking: supervisor closed")

type running struct {
	poller *Poller
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor runs at most one Poller per order id. All pollers share one
// pool, so the number of polls waiting on a response is bounded.
type Supervisor struct {
	api    TrackAPI
	ledger Ledger
	opts   []Option

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	mu      sync.Mutex
	pollers map[string]*running
	closed  bool
}

// NewSupervisor returns a Supervisor whose pollers stop when parent ends.
// maxInFlight bounds concurrent polls; opts apply to every poller.
func NewSupervisor(parent context.Context, api TrackAPI, ledger Ledger, maxInFlight int, opts ...Option) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	g, ctx := errgroup.WithContext(ctx)

	all := append([]Option{WithPool(pool.New(maxInFlight))}, opts...)
	return &Supervisor{
		api:     api,
		ledger:  ledger,
		opts:    all,
		ctx:     ctx,
		cancel:  cancel,
		g:       g,
		pollers: make(map[string]*running),
	}
}

// Start begins tracking orderID. If a poller for it is still running, that
// poller is returned instead of starting a second one.
func (s *Supervisor) Start(orderID string) (*Poller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if r, ok := s.pollers[orderID]; ok {
		select {
		case <-r.done:
		default:
			return r.poller, nil
		}
	}

	ctx, cancel := context.WithCancel(s.ctx)
	r := &running{
		poller: NewPoller(orderID, s.api, s.ledger, s.opts...),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.pollers[orderID] = r

	s.g.Go(func() error {
		defer close(r.done)
		defer cancel()
		return r.poller.Run(ctx)
	})
	return r.poller, nil
}

// Stop tears down the poller for orderID and waits for it to exit. It
// reports whether a poller was found.
func (s *Supervisor) Stop(orderID string) bool {
	s.mu.Lock()
	r, ok := s.pollers[orderID]
	if ok {
		delete(s.pollers, orderID)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	r.cancel()
	<-r.done
	return true
}

// Snapshot returns the state of orderID's poller.
func (s *Supervisor) Snapshot(orderID string) (Snapshot, bool) {
	s.mu.Lock()
	r, ok := s.pollers[orderID]
	s.mu.Unlock()

	if !ok {
		return Snapshot{}, false
	}
	return r.poller.Snapshot(), true
}

// Active returns how many pollers are still running.
func (s *Supervisor) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.pollers {
		select {
		case <-r.done:
		default:
			n++
		}
	}
	return n
}

// Close stops every poller and waits for all of them.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.g.Wait()
}
