package validate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliamunaev/storefront-mock/internal/apperr"
	"github.com/iliamunaev/storefront-mock/internal/model"
)

func TestCreateValid(t *testing.T) {
	t.Parallel()

	body := `{"clientOrderId":"c-1","items":[{"id":"p9","name":"Test","price":1000,"qty":2,"store":"FoodCourt"}],"deliveryMethod":"Delivery","etaPreference":"30 mins"}`

	req, err := New().Create([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "c-1", req.ClientOrderID)
	assert.Equal(t, model.DeliveryMethodDelivery, req.DeliveryMethod)
	assert.Equal(t, "30 mins", req.ETAPreference)
	require.Len(t, req.Items, 1)
	assert.Equal(t, model.OrderItem{ID: "p9", Name: "Test", Price: 1000, Qty: 2, Store: "FoodCourt"}, req.Items[0])
}

func TestCreateZeroPriceAllowed(t *testing.T) {
	t.Parallel()

	_, err := New().Create([]byte(`{"items":[{"id":"p1","name":"Free","price":0,"qty":1}],"deliveryMethod":"Pickup"}`))
	require.NoError(t, err)
}

func TestCreateLargestLineAllowed(t *testing.T) {
	t.Parallel()

	req, err := New().Create([]byte(`{"items":[{"id":"p1","name":"A","price":9223372036854775807,"qty":1}],"deliveryMethod":"Pickup"}` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), req.Items[0].Price)
}

func TestCreateInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want FieldErrors
	}{
		{
			name: "not json",
			body: `nope`,
			want: FieldErrors{"body.required", "items.required", "deliveryMethod.invalid"},
		},
		{
			name: "array body",
			body: `[1,2]`,
			want: FieldErrors{"body.required", "items.required", "deliveryMethod.invalid"},
		},
		{
			name: "empty items",
			body: `{"items":[],"deliveryMethod":"Delivery"}`,
			want: FieldErrors{"items.required"},
		},
		{
			name: "items not a list",
			body: `{"items":"p1","deliveryMethod":"Delivery"}`,
			want: FieldErrors{"items.required"},
		},
		{
			name: "every item field wrong",
			body: `{"items":[{"id":"","name":"x","price":-1,"qty":0}],"deliveryMethod":"Drone"}`,
			want: FieldErrors{
				"items[0].id_name.required",
				"items[0].price.invalid",
				"items[0].qty.invalid",
				"deliveryMethod.invalid",
			},
		},
		{
			name: "second item bad types",
			body: `{"items":[{"id":"p1","name":"A","price":1,"qty":1},{"id":"p2","name":"B","price":"10","qty":1.5}],"deliveryMethod":"Pickup"}`,
			want: FieldErrors{"items[1].price.invalid", "items[1].qty.invalid"},
		},
		{
			name: "item not an object",
			body: `{"items":[42],"deliveryMethod":"Pickup"}`,
			want: FieldErrors{"items[0].id_name.required", "items[0].price.invalid", "items[0].qty.invalid"},
		},
		{
			name: "line amount overflows",
			body: `{"items":[{"id":"p9","name":"Test","price":9223372036854775807,"qty":2}],"deliveryMethod":"Delivery"}`,
			want: FieldErrors{"items[0].price.invalid"},
		},
		{
			name: "price beyond int64",
			body: `{"items":[{"id":"p9","name":"Test","price":9223372036854775808,"qty":1}],"deliveryMethod":"Delivery"}`,
			want: FieldErrors{"items[0].price.invalid"},
		},
		{
			name: "sum overflows",
			body: `{"items":[{"id":"p1","name":"A","price":9223372036854775807,"qty":1},{"id":"p2","name":"B","price":1,"qty":1}],"deliveryMethod":"Pickup"}`,
			want: FieldErrors{"items.total.invalid"},
		},
		{
			name: "trailing data",
			body: `{"items":[{"id":"p1","name":"A","price":1,"qty":1}],"deliveryMethod":"Pickup"} junk`,
			want: FieldErrors{"body.required", "items.required", "deliveryMethod.invalid"},
		},
		{
			name: "two objects",
			body: `{"items":[{"id":"p1","name":"A","price":1,"qty":1}],"deliveryMethod":"Pickup"}{}`,
			want: FieldErrors{"body.required", "items.required", "deliveryMethod.invalid"},
		},
		{
			name: "missing delivery method",
			body: `{"items":[{"id":"p1","name":"A","price":1,"qty":1}]}`,
			want: FieldErrors{"deliveryMethod.invalid"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New().Create([]byte(tt.body))
			require.Error(t, err)

			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.want, fe)
		})
	}
}

func TestFieldErrorsClassification(t *testing.T) {
	t.Parallel()

	err := error(FieldErrors{"items.required", "deliveryMethod.invalid"})

	assert.Equal(t, "items.required, deliveryMethod.invalid", err.Error())
	assert.Equal(t, "invalid_input", apperr.Kind(err))
	assert.Equal(t, 400, apperr.HTTPStatus(err))
	assert.Equal(t, "items.required, deliveryMethod.invalid", apperr.Message(err))
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}
