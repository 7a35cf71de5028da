// Package httptransport implements the route dispatcher of the mock API.
// The same chi router serves a real listener and the in-process Transport.
package httptransport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/iliamunaev/storefront-mock/internal/apperr"
	"github.com/iliamunaev/storefront-mock/internal/auth"
	"github.com/iliamunaev/storefront-mock/internal/courier"
	"github.com/iliamunaev/storefront-mock/internal/latency"
	"github.com/iliamunaev/storefront-mock/internal/metrics"
	"github.com/iliamunaev/storefront-mock/internal/middleware"
	"github.com/iliamunaev/storefront-mock/internal/model"
	"github.com/iliamunaev/storefront-mock/internal/order"
	"github.com/iliamunaev/storefront-mock/internal/provider"
	"github.com/iliamunaev/storefront-mock/internal/ratelimit"
	"github.com/iliamunaev/storefront-mock/internal/status"
	"github.com/iliamunaev/storefront-mock/internal/validate"
)

// APIPrefix is where every API route is mounted.
const APIPrefix = "/api/v1"

// TrackETA is the eta label carried by every tracking response.
const TrackETA = "15-25 mins"

const maxBodyBytes = 1 << 20

type orderService interface {
	Create(ctx context.Context, req model.CreateOrderRequest) (model.Order, error)
	Get(ctx context.Context, id string) (model.Order, error)
	Advance(ctx context.Context, id string) (model.Order, error)
}

// Deps are the collaborators of a Handler. Orders is required; every other
// field has a working default.
type Deps struct {
	Orders    orderService
	Validator *validate.Validator
	Limiter   ratelimit.Limiter
	Status    *status.Generator
	Riders    *courier.Roster
	Catalog   *provider.Catalog
	Latency   *latency.Simulator
	Log       *zap.Logger
	Metrics   *metrics.Metrics

	RateLimit  int
	RateWindow time.Duration
}

// Handler serves the mock API routes.
type Handler struct {
	orders    orderService
	validator *validate.Validator
	limiter   ratelimit.Limiter
	status    *status.Generator
	riders    *courier.Roster
	catalog   *provider.Catalog
	latency   *latency.Simulator
	log       *zap.Logger
	metrics   *metrics.Metrics

	rateLimit  int
	rateWindow time.Duration
}

// New returns a Handler over d.
//
// It panics if d.Orders is nil. Missing collaborators get defaults: an
// in-memory limiter with the 8 per 10s policy, a wall-clock status
// generator, the default rider roster and no simulated latency.
func New(d Deps) *Handler {
	if d.Orders == nil {
		panic("httptransport.New: nil order service")
	}
	h := &Handler{
		orders:     d.Orders,
		validator:  d.Validator,
		limiter:    d.Limiter,
		status:     d.Status,
		riders:     d.Riders,
		catalog:    d.Catalog,
		latency:    d.Latency,
		log:        d.Log,
		metrics:    d.Metrics,
		rateLimit:  d.RateLimit,
		rateWindow: d.RateWindow,
	}
	if h.validator == nil {
		h.validator = validate.New()
	}
	if h.limiter == nil {
		h.limiter = ratelimit.NewMemory()
	}
	if h.status == nil {
		h.status = status.New()
	}
	if h.riders == nil {
		h.riders = courier.NewRoster()
	}
	if h.catalog == nil {
		h.catalog = provider.New(h.status.Bucket)
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.rateLimit <= 0 {
		h.rateLimit = ratelimit.DefaultLimit
	}
	if h.rateWindow <= 0 {
		h.rateWindow = ratelimit.DefaultWindow
	}
	return h
}

// Router returns the full route table.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logging(h.log))
	r.Use(middleware.Metrics(h.metrics))
	r.Use(middleware.Recoverer(h.log, func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, apperr.ErrServer)
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeError(w, errRouteNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { writeError(w, errMethodNotAllowed) })

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/order/track/{id}", h.HandleTrack)

		r.Group(func(r chi.Router) {
			r.Use(h.rateLimited)

			r.Post("/order", h.HandleCreateOrder)
			r.Get("/orders/{id}", h.HandleGetOrder)
			r.Post("/orders/{id}/advance", h.HandleAdvance)

			r.Get("/availability", h.HandleAvailability)
			r.Get("/pricing", h.HandlePricing)
			r.Get("/profile", h.HandleProfile)
		})
	})
	return r
}

// rateLimited rejects callers that exceed the sliding window with 429.
// A limiter backend failure lets the request through.
func (h *Handler) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := auth.CallerKey(r.Header)

		ok, err := h.limiter.Allow(r.Context(), key, h.rateLimit, h.rateWindow)
		if err != nil {
			h.log.Warn("rate.limit.error", zap.String("key", key), zap.Error(err))
			ok = true
		}
		if !ok {
			h.log.Info("rate.limit.hit", zap.String("key", key))
			h.metrics.RateLimited(routePattern(r))
			writeError(w, apperr.ErrTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleCreateOrder places an order.
//
// Order of checks: auth (401), payload (400 with every field code),
// simulated delay, then creation (409 on a repeated clientOrderId).
func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if auth.Classify(r.Header) == auth.Anonymous {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperr.ErrInvalidInput)
		return
	}
	req, err := h.validator.Create(body)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.latency.Wait(r.Context(), latency.StepCreate); err != nil {
		writeError(w, err)
		return
	}

	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.OrderCreated()
	writeJSON(w, http.StatusCreated, model.CreateOrderResponse{Order: o})
}

// HandleGetOrder returns one order.
//
// The forbidden sentinel is rejected before the id shape is checked, and a
// malformed id never reaches the store. ?db=down simulates an outage after
// the delay.
func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	switch auth.Classify(r.Header) {
	case auth.Anonymous:
		writeError(w, apperr.ErrUnauthorized)
		return
	case auth.Forbidden:
		writeError(w, apperr.ErrForbidden)
		return
	}

	id := chi.URLParam(r, "id")
	if !order.ValidID(id) {
		writeError(w, apperr.ErrInvalidID)
		return
	}

	if err := h.latency.Wait(r.Context(), latency.StepGet); err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("db") == "down" {
		writeError(w, apperr.ErrDBUnavailable)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// HandleAdvance moves an order one tracking stage forward.
func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	switch auth.Classify(r.Header) {
	case auth.Anonymous:
		writeError(w, apperr.ErrUnauthorized)
		return
	case auth.Forbidden:
		writeError(w, apperr.ErrForbidden)
		return
	}

	o, err := h.orders.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// HandleTrack reports the live delivery status of an order. ?err=500 and
// ?err=400 fail immediately; ?status= forces a remote status.
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch q.Get("err") {
	case "500":
		writeError(w, apperr.ErrServer)
		return
	case "400":
		writeError(w, apperr.ErrInvalidRequest)
		return
	}

	if err := h.latency.Wait(r.Context(), latency.StepTrack); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	st := h.status.Pick(q.Get("status"))
	writeJSON(w, http.StatusOK, model.TrackResponse{
		Status:  st,
		Rider:   h.riders.RiderFor(st, id),
		OrderID: id,
		ETA:     TrackETA,
	})
}

func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	h.serveProvider(w, r, func(id string) any { return h.catalog.Availability(id) })
}

func (h *Handler) HandlePricing(w http.ResponseWriter, r *http.Request) {
	h.serveProvider(w, r, func(id string) any { return h.catalog.Pricing(id) })
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	h.serveProvider(w, r, func(id string) any { return h.catalog.Profile(id) })
}

// serveProvider runs the checks shared by the provider routes.
func (h *Handler) serveProvider(w http.ResponseWriter, r *http.Request, lookup func(id string) any) {
	q := r.URL.Query()
	if q.Get("err") == "500" {
		writeError(w, apperr.ErrServer)
		return
	}
	id := q.Get("providerId")
	if id == "" {
		writeError(w, errProviderIDRequired)
		return
	}

	if err := h.latency.Wait(r.Context(), latency.StepProvider); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lookup(id))
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
