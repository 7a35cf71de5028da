package order

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/iliamunaev/storefront-mock/internal/apperr"
	"github.com/iliamunaev/storefront-mock/internal/model"
	"github.com/iliamunaev/storefront-mock/internal/store"
)

var fixedNow = time.UnixMilli(1_700_000_000_123)

func clock() time.Time { return fixedNow }

func sampleRequest() model.CreateOrderRequest {
	return model.CreateOrderRequest{
		Items:          []model.OrderItem{{ID: "p9", Name: "Test", Price: 1000, Qty: 2}},
		DeliveryMethod: model.DeliveryMethodDelivery,
	}
}

func TestNewNilStorePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for nil store")
		}
	}()
	New(nil)
}

func TestCreate(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	st := store.NewMemory()
	svc := New(st, WithClock(clock), WithLogger(zap.New(core)))

	o, err := svc.Create(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "o1700000000123", o.ID)
	assert.True(t, ValidID(o.ID))
	assert.Equal(t, int64(2000), o.Total)
	assert.Equal(t, model.StatusOngoing, o.Status)
	assert.Equal(t, model.StageCreated, o.Tracking)
	assert.Equal(t, DefaultETA, o.ETA)

	stored, err := st.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, stored)

	entries := logs.FilterMessage("order.create").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2000), entries[0].ContextMap()["total"])
}

func TestCreateETAPreference(t *testing.T) {
	t.Parallel()

	req := sampleRequest()
	req.ETAPreference = "45 mins"

	o, err := New(store.NewMemory(), WithClock(clock)).Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "45 mins", o.ETA)
}

func TestCreateSameMillisecondGetsUniqueIDs(t *testing.T) {
	t.Parallel()

	svc := New(store.NewMemory(), WithClock(clock))
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		o, err := svc.Create(context.Background(), sampleRequest())
		require.NoError(t, err)
		require.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
	assert.True(t, seen["o1700000000127"])
}

func TestCreateClientOrderIDConflict(t *testing.T) {
	t.Parallel()

	svc := New(store.NewMemory(store.WithSeed()), WithClock(clock))
	req := sampleRequest()
	req.ClientOrderID = "c-77"

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Equal(t, 409, apperr.HTTPStatus(err))

	req.ClientOrderID = "o1"
	_, err = svc.Create(context.Background(), req)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestCreateCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := store.NewMemory()
	_, err := New(st).Create(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, st.Len())
}

func TestCreateTotalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		items := make([]model.OrderItem, n)
		want := new(big.Int)
		for i := range items {
			price := rapid.OneOf(
				rapid.Int64Range(0, 1_000_000),
				rapid.Int64Range(0, math.MaxInt64),
			).Draw(t, "price")
			qty := rapid.OneOf(
				rapid.Int64Range(1, 1_000),
				rapid.Int64Range(1, math.MaxInt64),
			).Draw(t, "qty")
			items[i] = model.OrderItem{ID: "p", Name: "x", Price: price, Qty: qty}
			want.Add(want, new(big.Int).Mul(big.NewInt(price), big.NewInt(qty)))
		}

		o, err := New(store.NewMemory()).Create(context.Background(), model.CreateOrderRequest{
			Items:          items,
			DeliveryMethod: model.DeliveryMethodPickup,
		})
		if !want.IsInt64() {
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("expected invalid input for total %s, got %v", want, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if o.Total != want.Int64() {
			t.Fatalf("expected total %s, got %d", want, o.Total)
		}
	})
}

func TestCreateOverflowingTotal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []model.OrderItem
	}{
		{
			name:  "line",
			items: []model.OrderItem{{ID: "p9", Name: "Test", Price: math.MaxInt64, Qty: 2}},
		},
		{
			name: "sum",
			items: []model.OrderItem{
				{ID: "p1", Name: "A", Price: math.MaxInt64, Qty: 1},
				{ID: "p2", Name: "B", Price: 1, Qty: 1},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := store.NewMemory()
			_, err := New(st).Create(context.Background(), model.CreateOrderRequest{
				Items:          tt.items,
				DeliveryMethod: model.DeliveryMethodDelivery,
			})
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
			assert.Equal(t, 400, apperr.HTTPStatus(err))
			assert.Equal(t, "items.total.invalid", apperr.Message(err))
			assert.Equal(t, 0, st.Len())
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	svc := New(store.NewMemory(store.WithSeed()))

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "seeded", id: "o1"},
		{name: "unknown", id: "o999", wantErr: apperr.ErrNotFound},
		{name: "bad shape", id: "x1", wantErr: apperr.ErrInvalidID},
		{name: "no digits", id: "o", wantErr: apperr.ErrInvalidID},
		{name: "trailing junk", id: "o1a", wantErr: apperr.ErrInvalidID},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o, err := svc.Get(context.Background(), tt.id)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if o.ID != tt.id {
					t.Fatalf("expected %q, got %q", tt.id, o.ID)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cycle bool
		want  []model.TrackingStage
	}{
		{
			name: "stops at delivered",
			want: []model.TrackingStage{model.StageTransit, model.StageDelivered, model.StageDelivered},
		},
		{
			name:  "cycles when allowed",
			cycle: true,
			want:  []model.TrackingStage{model.StageTransit, model.StageDelivered, model.StageCreated},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// o1 starts at preparing.
			svc := New(store.NewMemory(store.WithSeed()), WithCycle(tt.cycle))
			for i, want := range tt.want {
				o, err := svc.Advance(context.Background(), "o1")
				require.NoError(t, err)
				if o.Tracking != want {
					t.Fatalf("step %d: expected %q, got %q", i, want, o.Tracking)
				}
			}
		})
	}
}

func TestAdvanceUnknown(t *testing.T) {
	t.Parallel()

	_, err := New(store.NewMemory()).Advance(context.Background(), "o5")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
