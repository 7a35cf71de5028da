// Package validate checks order-creation payloads and reports every
// violation as a dotted field-path code such as "items[0].price.invalid".
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliamunaev/storefront-mock/internal/apperr"
	"github.com/iliamunaev/storefront-mock/internal/model"
)

// FieldErrors lists the codes of every failed check, in payload order.
type FieldErrors []string

func (fe FieldErrors) Error() string { return strings.Join(fe, ", ") }

// Kind classifies FieldErrors as invalid input.
func (fe FieldErrors) Kind() string { return apperr.ErrInvalidInput.Kind() }

// Is lets errors.Is(err, apperr.ErrInvalidInput) match.
func (fe FieldErrors) Is(target error) bool { return apperr.ErrInvalidInput.Is(target) }

// Validator runs the create-order rules. The zero value is not usable;
// construct with New.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the delivery-method rule registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("delivery_method", func(fl validator.FieldLevel) bool {
		switch model.DeliveryMethod(fl.Field().String()) {
		case model.DeliveryMethodDelivery, model.DeliveryMethodPickup:
			return true
		}
		return false
	})
	return &Validator{v: v}
}

// Create validates a raw create-order body. On success it returns the typed
// request; otherwise the error is a FieldErrors holding all violations.
func (val *Validator) Create(body []byte) (model.CreateOrderRequest, error) {
	var (
		req  model.CreateOrderRequest
		errs FieldErrors
	)

	raw, ok := decodeObject(body)
	if !ok {
		errs = append(errs, "body.required")
	}

	items, isList := raw["items"].([]any)
	if !isList || len(items) == 0 {
		errs = append(errs, "items.required")
	}

	for i, it := range items {
		fields, _ := it.(map[string]any)
		item, itemErrs := val.item(i, fields)
		errs = append(errs, itemErrs...)
		req.Items = append(req.Items, item)
	}

	if len(errs) == 0 && len(req.Items) > 0 {
		if _, err := model.Total(req.Items); err != nil {
			errs = append(errs, "items.total.invalid")
		}
	}

	method, _ := raw["deliveryMethod"].(string)
	if val.v.Var(method, "delivery_method") != nil {
		errs = append(errs, "deliveryMethod.invalid")
	}

	if len(errs) > 0 {
		return model.CreateOrderRequest{}, errs
	}

	req.DeliveryMethod = model.DeliveryMethod(method)
	req.ClientOrderID, _ = raw["clientOrderId"].(string)
	req.ETAPreference, _ = raw["etaPreference"].(string)
	return req, nil
}

func (val *Validator) item(idx int, fields map[string]any) (model.OrderItem, FieldErrors) {
	var errs FieldErrors

	id, _ := fields["id"].(string)
	name, _ := fields["name"].(string)
	if val.v.Var(id, "required") != nil || val.v.Var(name, "required") != nil {
		errs = append(errs, fmt.Sprintf("items[%d].id_name.required", idx))
	}

	price, priceOK := integer(fields["price"])
	priceOK = priceOK && val.v.Var(price, "gte=0") == nil

	qty, qtyOK := integer(fields["qty"])
	qtyOK = qtyOK && val.v.Var(qty, "gt=0") == nil

	// A line whose amount overflows is reported against its price.
	if !priceOK || (qtyOK && !model.LineFits(price, qty)) {
		errs = append(errs, fmt.Sprintf("items[%d].price.invalid", idx))
	}
	if !qtyOK {
		errs = append(errs, fmt.Sprintf("items[%d].qty.invalid", idx))
	}

	store, _ := fields["store"].(string)

	return model.OrderItem{ID: id, Name: name, Price: price, Qty: qty, Store: store}, errs
}

// decodeObject parses body as exactly one JSON object, keeping numbers
// exact. Anything after the object makes the body invalid.
func decodeObject(body []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return raw, true
}

// integer accepts JSON numbers without a fractional part.
func integer(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}
