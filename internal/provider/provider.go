// Package provider serves the service-provider catalog: availability,
// pricing and profile records. Availability and pricing are recomputed per
// request from the current status bucket, so they change over time without
// any stored state.
package provider

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliamunaev/storefront-mock/internal/model"
)

const currency = "NGN"

var availabilityCycle = []model.AvailabilityStatus{
	model.AvailabilityAvailable,
	model.AvailabilityBusy,
	model.AvailabilityOffline,
}

var nextWindow = map[model.AvailabilityStatus]string{
	model.AvailabilityBusy:    "~ 45 mins",
	model.AvailabilityOffline: "Tomorrow, 8:00 AM",
}

// surgeWhenBusy is applied to every price while a provider is busy.
var surgeWhenBusy = decimal.RequireFromString("1.2")

type entry struct {
	offset     int64
	basePrice  int64
	variations []model.PriceVariation
	discount   decimal.Decimal
	profile    model.Profile
}

// Catalog answers provider queries. It is read-only after construction and
// safe for concurrent use.
type Catalog struct {
	entries map[string]entry
	bucket  func() int64
	now     func() time.Time
}

type Option func(*Catalog)

// WithClock sets the clock used for updatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// New returns the built-in catalog. bucket reports the current status bucket
// and drives the availability cycle.
func New(bucket func() int64, opts ...Option) *Catalog {
	c := &Catalog{
		entries: builtin(),
		bucket:  bucket,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) lookup(id string) entry {
	if e, ok := c.entries[id]; ok {
		return e
	}
	return fallback()
}

func (c *Catalog) status(e entry) model.AvailabilityStatus {
	n := int64(len(availabilityCycle))
	i := ((c.bucket()+e.offset)%n + n) % n
	return availabilityCycle[i]
}

// Availability reports whether providerID can take work right now.
func (c *Catalog) Availability(providerID string) model.Availability {
	st := c.status(c.lookup(providerID))
	return model.Availability{
		ProviderID: providerID,
		Status:     st,
		UpdatedAt:  c.now().UTC(),
		NextWindow: nextWindow[st],
	}
}

// Pricing returns providerID's current prices. A busy provider carries a
// surge multiplier; a configured discount is applied after surge. Amounts
// are rounded to whole naira.
func (c *Catalog) Pricing(providerID string) model.Pricing {
	e := c.lookup(providerID)

	factor := decimal.NewFromInt(1)
	out := model.Pricing{
		ProviderID: providerID,
		Currency:   currency,
		UpdatedAt:  c.now().UTC(),
	}

	if c.status(e) == model.AvailabilityBusy {
		factor = factor.Mul(surgeWhenBusy)
		surge := surgeWhenBusy.InexactFloat64()
		out.SurgeMultiplier = &surge
	}
	if e.discount.IsPositive() {
		hundred := decimal.NewFromInt(100)
		factor = factor.Mul(hundred.Sub(e.discount).Div(hundred))
		pct := e.discount.InexactFloat64()
		out.DiscountPercent = &pct
	}

	out.BasePrice = apply(e.basePrice, factor)
	out.Variations = make([]model.PriceVariation, 0, len(e.variations))
	for _, v := range e.variations {
		out.Variations = append(out.Variations, model.PriceVariation{
			Name:     v.Name,
			Price:    apply(v.Price, factor),
			Currency: currency,
		})
	}
	return out
}

// Profile returns providerID's profile, or the default profile when the id
// is unknown.
func (c *Catalog) Profile(providerID string) model.Profile {
	e, ok := c.entries[providerID]
	if !ok {
		p := cloneProfile(fallback().profile)
		p.ID = providerID
		return p
	}
	return cloneProfile(e.profile)
}

func apply(price int64, factor decimal.Decimal) int64 {
	return decimal.NewFromInt(price).Mul(factor).Round(0).IntPart()
}

func cloneProfile(p model.Profile) model.Profile {
	out := p
	out.PastJobs = make([]model.PastJob, len(p.PastJobs))
	for i, j := range p.PastJobs {
		j.Responsibilities = append([]string(nil), j.Responsibilities...)
		j.Technologies = append([]string(nil), j.Technologies...)
		out.PastJobs[i] = j
	}
	return out
}
