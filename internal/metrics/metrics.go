// Package metrics defines the Prometheus collectors for the mock API and the
// tracking poller. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront_mock"

type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	rateLimited   *prometheus.CounterVec
	ordersCreated prometheus.Counter
	polls         *prometheus.CounterVec
	pollInterval  prometheus.Histogram
	pollsInFlight prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests handled, by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request latency including simulated delay.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"route", "method"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the sliding-window limiter.",
		}, []string{"route"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders placed.",
		}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_polls_total",
			Help:      "Tracking polls by outcome.",
		}, []string{"outcome"}),
		pollInterval: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tracking_next_interval_seconds",
			Help:      "Interval scheduled after each poll.",
			Buckets:   []float64{20, 40, 80, 160, 300},
		}),
		pollsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracking_polls_in_flight",
			Help:      "Tracking polls currently waiting on a response.",
		}),
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.rateLimited,
		m.ordersCreated,
		m.polls,
		m.pollInterval,
		m.pollsInFlight,
	)
	return m
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// PollDone records one finished poll and the interval scheduled after it.
func (m *Metrics) PollDone(ok bool, next time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.polls.WithLabelValues(outcome).Inc()
	m.pollInterval.Observe(next.Seconds())
}

// PollsInFlight sets the number of outstanding polls.
func (m *Metrics) PollsInFlight(n int64) {
	if m == nil {
		return
	}
	m.pollsInFlight.Set(float64(n))
}
