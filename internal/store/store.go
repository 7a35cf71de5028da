// Package store holds the in-memory order ledger.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/iliamunaev/storefront-mock/internal/apperr"
	"github.com/iliamunaev/storefront-mock/internal/model"
)

var (
	// ErrDuplicateID is returned by Insert when the order id is taken.
	// Callers that generate ids pick another one and retry.
	ErrDuplicateID = errors.New("store: duplicate order id")

	// ErrTotalMismatch is returned by Insert for an order whose total is
	// not the sum of its items.
	ErrTotalMismatch = errors.New("store: total does not match items")

	ErrEmptyOrder = errors.New("store: order has no items")
)

// Store is the order ledger used by the dispatcher and the poller.
type Store interface {
	// Insert adds o. clientOrderID, when non-empty, is remembered so a
	// second order with the same key is rejected with apperr.ErrConflict.
	Insert(o model.Order, clientOrderID string) error
	Get(id string) (model.Order, error)
	SetTrackingStage(id string, stage model.TrackingStage) error
	// Update applies fn to the stored order under the write lock.
	Update(id string, fn func(*model.Order) error) (model.Order, error)
}

// Memory is a Store backed by a map. All methods are safe for concurrent
// use; writes are serialized.
type Memory struct {
	mu     sync.RWMutex
	orders map[string]model.Order
	keys   map[string]string // clientOrderId -> order id
}

type Option func(*Memory)

// WithSeed preloads the demo orders returned by Seed.
func WithSeed() Option {
	return func(m *Memory) {
		for _, o := range Seed() {
			m.orders[o.ID] = o.Clone()
		}
	}
}

// NewMemory returns an empty ledger unless options add data.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		orders: make(map[string]model.Order),
		keys:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Insert(o model.Order, clientOrderID string) error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	if err := checkTotal(o); err != nil {
		return fmt.Errorf("insert %s: %w", o.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if clientOrderID != "" {
		if _, seen := m.keys[clientOrderID]; seen {
			return fmt.Errorf("client order %s: %w", clientOrderID, apperr.ErrConflict)
		}
		if _, taken := m.orders[clientOrderID]; taken {
			return fmt.Errorf("client order %s: %w", clientOrderID, apperr.ErrConflict)
		}
	}
	if _, taken := m.orders[o.ID]; taken {
		return fmt.Errorf("insert %s: %w", o.ID, ErrDuplicateID)
	}

	m.orders[o.ID] = o.Clone()
	if clientOrderID != "" {
		m.keys[clientOrderID] = o.ID
	}
	return nil
}

func (m *Memory) Get(id string) (model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return o.Clone(), nil
}

func (m *Memory) SetTrackingStage(id string, stage model.TrackingStage) error {
	_, err := m.Update(id, func(o *model.Order) error {
		o.Tracking = stage
		return nil
	})
	return err
}

func (m *Memory) Update(id string, fn func(*model.Order) error) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}

	next := o.Clone()
	if err := fn(&next); err != nil {
		return model.Order{}, err
	}
	if next.ID != id {
		return model.Order{}, fmt.Errorf("update %s: id changed to %s", id, next.ID)
	}
	if err := checkTotal(next); err != nil {
		return model.Order{}, fmt.Errorf("update %s: %w", id, err)
	}

	m.orders[id] = next
	return next.Clone(), nil
}

// checkTotal fails with model.ErrTotalOverflow or ErrTotalMismatch.
func checkTotal(o model.Order) error {
	total, err := model.Total(o.Items)
	if err != nil {
		return err
	}
	if o.Total != total {
		return ErrTotalMismatch
	}
	return nil
}

// Len returns the number of stored orders.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}
