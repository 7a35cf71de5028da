// Package tracking keeps an order's local tracking state in step with the
// remote tracking route. A Poller polls one order on an adaptive interval:
// the base interval after a success, doubled (up to a cap) after each
// failure. A Supervisor runs pollers for many orders at once.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliamunaev/storefront-mock/internal/apperr"
	"github.com/iliamunaev/storefront-mock/internal/client"
	"github.com/iliamunaev/storefront-mock/internal/metrics"
	"github.com/iliamunaev/storefront-mock/internal/model"
	"github.com/iliamunaev/storefront-mock/internal/pool"
)

const (
	DefaultBaseInterval = 20 * time.Second
	DefaultMaxInterval  = 300 * time.Second
)

// Banner is shown while the last poll failed.
const Banner = "unable to refresh tracking"

var errUnknownStatus = errors.New("tracking: unknown remote status")

// TrackAPI is the remote side of the poller. *client.Client satisfies it.
type TrackAPI interface {
	Track(ctx context.Context, orderID string, opts ...client.TrackOption) (model.TrackResponse, error)
}

// Ledger is where reconciled stages are written. store.Store satisfies it.
// Update must run fn under the same lock as every other write, so the
// forward-only check sees the stage other writers left behind.
type Ledger interface {
	Get(id string) (model.Order, error)
	Update(id string, fn func(*model.Order) error) (model.Order, error)
}

// Snapshot is the UI-facing tracking state of one order.
type Snapshot struct {
	OrderID string
	Stage   model.TrackingStage
	Rider   model.Rider
	// Banner is non-empty while the most recent poll failed. Stage and
	// Rider keep their last good values meanwhile.
	Banner    string
	Interval  time.Duration
	Failures  int
	Delivered bool
	Polls     int
	LastOK    time.Time
}

// Poller reconciles one order. Run must be called at most once.
type Poller struct {
	id     string
	api    TrackAPI
	ledger Ledger

	baseInterval time.Duration
	maxInterval  time.Duration
	allowCycle   bool
	trackOpts    []client.TrackOption
	after        func(time.Duration) <-chan time.Time
	now          func() time.Time
	inflight     *pool.Pool
	log          *zap.Logger
	metrics      *metrics.Metrics

	mu    sync.Mutex
	state Snapshot
}

type Option func(*Poller)

// WithIntervals sets the base and maximum poll intervals.
func WithIntervals(base, maxInterval time.Duration) Option {
	return func(p *Poller) {
		if base > 0 {
			p.baseInterval = base
		}
		if maxInterval > 0 {
			p.maxInterval = maxInterval
		}
	}
}

// WithCycle lets Advance wrap delivered back to created.
func WithCycle(allow bool) Option {
	return func(p *Poller) { p.allowCycle = allow }
}

// WithTrackOptions adds query options to every poll.
func WithTrackOptions(opts ...client.TrackOption) Option {
	return func(p *Poller) { p.trackOpts = append(p.trackOpts, opts...) }
}

// WithTimer replaces time.After and time.Now, for tests.
func WithTimer(after func(time.Duration) <-chan time.Time, now func() time.Time) Option {
	return func(p *Poller) {
		if after != nil {
			p.after = after
		}
		if now != nil {
			p.now = now
		}
	}
}

// WithPool makes every poll hold a slot of pl while its request is out.
func WithPool(pl *pool.Pool) Option {
	return func(p *Poller) { p.inflight = pl }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// NewPoller returns a Poller for orderID. The initial stage is read from
// ledger when the order exists there.
func NewPoller(orderID string, api TrackAPI, ledger Ledger, opts ...Option) *Poller {
	if api == nil || ledger == nil {
		panic("tracking.NewPoller: nil api or ledger")
	}
	p := &Poller{
		id:     orderID,
		api:    api,
		ledger: ledger,
		after:  time.After,
		now:    time.Now,
		log:    zap.NewNop(),

		baseInterval: DefaultBaseInterval,
		maxInterval:  DefaultMaxInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxInterval < p.baseInterval {
		p.maxInterval = p.baseInterval
	}

	p.state = Snapshot{OrderID: orderID, Stage: model.StageCreated, Interval: p.baseInterval}
	if o, err := ledger.Get(orderID); err == nil && o.Tracking.Valid() {
		p.state.Stage = o.Tracking
	}
	return p
}

// Snapshot returns a copy of the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run polls until ctx is canceled or DELIVERED is observed. Polls are
// strictly sequential. Cancellation is a normal exit and returns nil; a
// response that arrives after cancellation is dropped.
func (p *Poller) Run(ctx context.Context) error {
	for {
		wait := p.Snapshot().Interval

		select {
		case <-ctx.Done():
			return nil
		case <-p.after(wait):
		}

		if done := p.poll(ctx); done {
			return nil
		}
	}
}

// poll performs one request and applies its outcome. It reports whether
// polling should stop.
func (p *Poller) poll(ctx context.Context) bool {
	resp, err := p.request(ctx)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		p.fail(err)
		return false
	}

	stage, ok := MapRemote(resp.Status)
	if !ok {
		p.fail(fmt.Errorf("%w %q", errUnknownStatus, resp.Status))
		return false
	}
	return p.succeed(stage, resp.Rider)
}

func (p *Poller) request(ctx context.Context) (model.TrackResponse, error) {
	if p.inflight == nil {
		return p.api.Track(ctx, p.id, p.trackOpts...)
	}

	var resp model.TrackResponse
	err := p.inflight.Do(ctx, func(ctx context.Context) error {
		p.metrics.PollsInFlight(p.inflight.Running())
		var err error
		resp, err = p.api.Track(ctx, p.id, p.trackOpts...)
		return err
	})
	p.metrics.PollsInFlight(p.inflight.Running())
	return resp, err
}

func (p *Poller) fail(err error) {
	p.mu.Lock()
	p.state.Failures++
	p.state.Polls++
	p.state.Banner = Banner
	next := p.state.Interval * 2
	if next > p.maxInterval {
		next = p.maxInterval
	}
	p.state.Interval = next
	p.mu.Unlock()

	p.log.Warn("tracking.poll.failed",
		zap.String("order_id", p.id),
		zap.String("kind", apperr.Kind(err)),
		zap.Error(err),
		zap.Duration("next_interval", next),
	)
	p.metrics.PollDone(false, next)
}

func (p *Poller) succeed(stage model.TrackingStage, rider *model.Rider) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Delivered is surfaced but never written back through polling. Any
	// other stage is applied only if it is not behind the stored one.
	if stage == model.StageDelivered {
		p.state.Stage = stage
		p.state.Delivered = true
	} else {
		p.reconcile(stage)
	}

	p.state.Rider = mergeRider(p.state.Rider, rider)
	p.state.Banner = ""
	p.state.Failures = 0
	p.state.Interval = p.baseInterval
	p.state.Polls++
	p.state.LastOK = p.now()

	p.log.Info("tracking.poll.ok",
		zap.String("order_id", p.id),
		zap.String("stage", string(p.state.Stage)),
		zap.Bool("delivered", p.state.Delivered),
		zap.Duration("next_interval", p.baseInterval),
	)
	p.metrics.PollDone(true, p.baseInterval)
	return p.state.Delivered
}

// reconcile writes stage unless the stored stage is already past it, and
// adopts whatever the ledger holds afterwards. p.mu must be held.
func (p *Poller) reconcile(stage model.TrackingStage) {
	o, err := p.ledger.Update(p.id, func(o *model.Order) error {
		if !stage.Before(o.Tracking) {
			o.Tracking = stage
		}
		return nil
	})
	if err != nil {
		p.log.Warn("tracking.store.failed", zap.String("order_id", p.id), zap.Error(err))
		if !stage.Before(p.state.Stage) {
			p.state.Stage = stage
		}
		return
	}
	p.state.Stage = o.Tracking
}

// Advance moves the stored stage one step forward without consulting the
// remote side and adopts it locally. Delivered wraps to created only when
// the poller was built WithCycle(true).
func (p *Poller) Advance() (model.TrackingStage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, err := p.ledger.Update(p.id, func(o *model.Order) error {
		o.Tracking = o.Tracking.Next(p.allowCycle)
		return nil
	})
	if err != nil {
		return p.state.Stage, fmt.Errorf("advance %s: %w", p.id, err)
	}
	p.state.Stage = o.Tracking
	return o.Tracking, nil
}
