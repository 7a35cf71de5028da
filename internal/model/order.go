// Package model defines the request and response payloads used by the API.
// It keeps transport-level types in one place so the dispatcher, the client
// and the tracking poller agree on the wire shape.
package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// TrackingStage is the local lifecycle label for an order's fulfillment.
type TrackingStage string

const (
	StageCreated   TrackingStage = "created"
	StagePreparing TrackingStage = "preparing"
	StageTransit   TrackingStage = "transit"
	StageDelivered TrackingStage = "delivered"
)

var stageOrder = []TrackingStage{StageCreated, StagePreparing, StageTransit, StageDelivered}

// Valid reports whether s is one of the four known stages.
func (s TrackingStage) Valid() bool {
	return s.index() >= 0
}

func (s TrackingStage) index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the stage after s. Delivered is terminal unless cycle is set,
// in which case it wraps to created.
func (s TrackingStage) Next(cycle bool) TrackingStage {
	i := s.index()
	switch {
	case i < 0:
		return StageCreated
	case i == len(stageOrder)-1:
		if cycle {
			return StageCreated
		}
		return s
	default:
		return stageOrder[i+1]
	}
}

// Before reports whether s comes strictly before other in the lifecycle.
func (s TrackingStage) Before(other TrackingStage) bool {
	return s.index() < other.index()
}

// LifecycleStatus separates ongoing orders from historical ones.
type LifecycleStatus string

const (
	StatusOngoing LifecycleStatus = "ongoing"
	StatusPast    LifecycleStatus = "past"
)

// DeliveryMethod is how the customer receives the order.
type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "Delivery"
	DeliveryMethodPickup   DeliveryMethod = "Pickup"
)

// OrderItem is one line of an order. Price is in minor currency units.
type OrderItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
	Store string `json:"store,omitempty"`
}

// Order is a placed purchase held by the order store.
type Order struct {
	ID       string          `json:"id"`
	Status   LifecycleStatus `json:"status"`
	Items    []OrderItem     `json:"items"`
	Total    int64           `json:"total"`
	ETA      string          `json:"eta,omitempty"`
	Tracking TrackingStage   `json:"tracking"`
}

// Clone returns a copy of o that shares no memory with it.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]OrderItem(nil), o.Items...)
	return out
}

// ErrTotalOverflow is returned by Total when a line or the sum of the
// lines does not fit in an int64.
var ErrTotalOverflow = errors.New("model: order total overflows int64")

var (
	minTotal = decimal.NewFromInt(math.MinInt64)
	maxTotal = decimal.NewFromInt(math.MaxInt64)
)

func fits(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(minTotal) && d.LessThanOrEqual(maxTotal)
}

func line(price, qty int64) decimal.Decimal {
	return decimal.NewFromInt(price).Mul(decimal.NewFromInt(qty))
}

// LineFits reports whether price*qty fits in an int64.
func LineFits(price, qty int64) bool { return fits(line(price, qty)) }

// Total sums price*qty over items exactly, or fails with ErrTotalOverflow.
func Total(items []OrderItem) (int64, error) {
	sum := decimal.Zero
	for _, it := range items {
		l := line(it.Price, it.Qty)
		if !fits(l) {
			return 0, fmt.Errorf("item %s: %w", it.ID, ErrTotalOverflow)
		}
		sum = sum.Add(l)
		if !fits(sum) {
			return 0, ErrTotalOverflow
		}
	}
	return sum.IntPart(), nil
}

// CreateOrderRequest is the input payload for POST /order.
type CreateOrderRequest struct {
	ClientOrderID  string         `json:"clientOrderId,omitempty"`
	Items          []OrderItem    `json:"items"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	ETAPreference  string         `json:"etaPreference,omitempty"`
}

// CreateOrderResponse wraps the created order.
type CreateOrderResponse struct {
	Order Order `json:"order"`
}

// ErrorPayload describes an error response.
type ErrorPayload struct {
	Code    string `json:"code"`    // "unauthorized", "not_found", ...
	Message string `json:"message"` // human-readable
}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}
