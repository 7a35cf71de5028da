// Package order implements the order business logic behind the dispatcher:
// creating orders with a computed total and a unique id, reading them back,
// and the manual tracking-stage advance.
package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/iliamunaev/storefront-mock/internal/apperr"
	"github.com/iliamunaev/storefront-mock/internal/model"
	"github.com/iliamunaev/storefront-mock/internal/store"
)

// DefaultETA is used when the caller states no ETA preference.
const DefaultETA = "20 mins"

// maxIDAttempts bounds the id bump loop on same-millisecond collisions.
const maxIDAttempts = 1000

var idPattern = regexp.MustCompile(`^o\d+$`)

// errTotalInvalid rejects an order whose total does not fit in an int64.
var errTotalInvalid = apperr.New(apperr.ErrInvalidInput.Kind(), "items.total.invalid")

// ValidID reports whether id has the o<digits> shape.
func ValidID(id string) bool { return idPattern.MatchString(id) }

// Service orchestrates order operations against a store.
type Service struct {
	store      store.Store
	now        func() time.Time
	log        *zap.Logger
	allowCycle bool
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCycle lets Advance wrap a delivered order back to created.
func WithCycle(allow bool) Option {
	return func(s *Service) { s.allowCycle = allow }
}

// New creates a Service over st.
func New(st store.Store, opts ...Option) *Service {
	if st == nil {
		panic("order.New: nil store")
	}
	s := &Service{
		store: st,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create places a validated order. The id is o<unix-millis>, bumped until
// unused. A repeated clientOrderId fails with apperr.ErrConflict.
func (s *Service) Create(ctx context.Context, req model.CreateOrderRequest) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}

	items := append([]model.OrderItem(nil), req.Items...)
	total, err := model.Total(items)
	if err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", errTotalInvalid)
	}
	o := model.Order{
		Status:   model.StatusOngoing,
		Items:    items,
		Total:    total,
		ETA:      req.ETAPreference,
		Tracking: model.StageCreated,
	}
	if o.ETA == "" {
		o.ETA = DefaultETA
	}

	seq := s.now().UnixMilli()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		o.ID = "o" + strconv.FormatInt(seq, 10)

		err := s.store.Insert(o, req.ClientOrderID)
		switch {
		case err == nil:
			s.log.Info("order.create", zap.String("id", o.ID), zap.Int64("total", o.Total))
			return o.Clone(), nil
		case errors.Is(err, store.ErrDuplicateID):
			seq++
		case errors.Is(err, apperr.ErrConflict):
			return model.Order{}, err
		default:
			s.log.Error("order.create.error", zap.Error(err))
			return model.Order{}, fmt.Errorf("create order: %w", err)
		}
	}

	s.log.Error("order.create.error", zap.String("reason", "id space exhausted"))
	return model.Order{}, fmt.Errorf("create order: %w", store.ErrDuplicateID)
}

// Get returns the order with id. Malformed ids fail with apperr.ErrInvalidID
// without touching the store.
func (s *Service) Get(ctx context.Context, id string) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}
	if !ValidID(id) {
		return model.Order{}, apperr.ErrInvalidID
	}

	o, err := s.store.Get(id)
	if err != nil {
		return model.Order{}, err
	}
	s.log.Info("order.get", zap.String("id", id))
	return o, nil
}

// Advance moves the order one tracking stage forward. Delivered stays
// delivered unless the service was built WithCycle(true).
func (s *Service) Advance(ctx context.Context, id string) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}
	if !ValidID(id) {
		return model.Order{}, apperr.ErrInvalidID
	}

	o, err := s.store.Update(id, func(o *model.Order) error {
		o.Tracking = o.Tracking.Next(s.allowCycle)
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	s.log.Info("order.advance", zap.String("id", id), zap.String("tracking", string(o.Tracking)))
	return o, nil
}
