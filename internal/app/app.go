// Package app wires the mock API together from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliamunaev/storefront-mock/internal/client"
	"github.com/iliamunaev/storefront-mock/internal/config"
	"github.com/iliamunaev/storefront-mock/internal/latency"
	"github.com/iliamunaev/storefront-mock/internal/metrics"
	"github.com/iliamunaev/storefront-mock/internal/order"
	"github.com/iliamunaev/storefront-mock/internal/provider"
	"github.com/iliamunaev/storefront-mock/internal/ratelimit"
	"github.com/iliamunaev/storefront-mock/internal/status"
	"github.com/iliamunaev/storefront-mock/internal/store"
	"github.com/iliamunaev/storefront-mock/internal/tracking"
	httptransport "github.com/iliamunaev/storefront-mock/internal/transport/http"
)

const redisPingTimeout = 2 * time.Second

// inProcessBaseURL is only used to build request URLs; the transport never
// dials it.
const inProcessBaseURL = "http://storefront.mock"

// App is the assembled service. cmd/server serves Router (plus /metrics)
// and uses nothing else. Transport, Client and Tracking are the in-process
// surface for callers that embed the mock instead of dialing it: tests and
// tools that create orders and follow them without a listener. They cost
// nothing until used; no poller runs before Tracking.Start.
type App struct {
	Log      *zap.Logger
	Registry *prometheus.Registry
	Store    *store.Memory
	Orders   *order.Service

	// Router serves the API routes and /health.
	Router http.Handler
	// Transport serves Router in process; Client is bound to it.
	Transport *httptransport.Transport
	Client    *client.Client
	// Tracking polls orders through Client and writes into Store.
	Tracking *tracking.Supervisor

	redis *redis.Client
}

// New builds the application. Tracking pollers live until ctx ends or
// Close is called.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	a := &App{Log: log, Registry: reg}

	limiter, err := a.limiter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gen := status.New(status.WithBucket(cfg.Status.Bucket))
	a.Store = store.NewMemory(store.WithSeed())
	a.Orders = order.New(a.Store,
		order.WithLogger(log.Named("order")),
		order.WithCycle(cfg.Tracking.AllowCycle),
	)

	h := httptransport.New(httptransport.Deps{
		Orders:  a.Orders,
		Limiter: limiter,
		Status:  gen,
		Catalog: provider.New(gen.Bucket),
		Latency: latency.New(latency.Delays{
			Track:    cfg.Latency.Track,
			Create:   cfg.Latency.Create,
			Get:      cfg.Latency.Get,
			Provider: cfg.Latency.Provider,
			Jitter:   cfg.Latency.Jitter,
		}),
		Log:        log.Named("http"),
		Metrics:    m,
		RateLimit:  cfg.RateLimit.Limit,
		RateWindow: cfg.RateLimit.Window,
	})
	a.Router = h.Router()

	a.Transport = httptransport.NewTransport(a.Router)
	a.Client = client.New(inProcessBaseURL,
		client.WithHTTPClient(&http.Client{Transport: a.Transport}),
		client.WithTimeout(cfg.Tracking.RequestTimeout),
	)

	a.Tracking = tracking.NewSupervisor(ctx, a.Client, a.Store, cfg.Tracking.MaxInFlight,
		tracking.WithIntervals(cfg.Tracking.BaseInterval, cfg.Tracking.MaxInterval),
		tracking.WithCycle(cfg.Tracking.AllowCycle),
		tracking.WithLogger(log.Named("tracking")),
		tracking.WithMetrics(m),
	)

	log.Info("app.ready",
		zap.String("rate_limit_backend", cfg.RateLimit.Backend),
		zap.Int("rate_limit", cfg.RateLimit.Limit),
		zap.Duration("rate_window", cfg.RateLimit.Window),
		zap.Duration("status_bucket", cfg.Status.Bucket),
		zap.Bool("allow_cycle", cfg.Tracking.AllowCycle),
	)
	return a, nil
}

func (a *App) limiter(ctx context.Context, cfg config.Config) (ratelimit.Limiter, error) {
	if cfg.RateLimit.Backend != "redis" {
		return ratelimit.NewMemory(), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
	}
	a.redis = rdb
	return ratelimit.NewRedis(rdb), nil
}

// Close stops every tracking poller and releases the redis connection.
func (a *App) Close() error {
	err := a.Tracking.Close()
	if a.redis != nil {
		err = errors.Join(err, a.redis.Close())
	}
	return err
}
