// Command tracker follows one order on a running mock API and prints its
// tracking state after every poll until the order is delivered or the
// process is interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliamunaev/storefront-mock/internal/client"
	"github.com/iliamunaev/storefront-mock/internal/config"
	"github.com/iliamunaev/storefront-mock/internal/logging"
	"github.com/iliamunaev/storefront-mock/internal/model"
	"github.com/iliamunaev/storefront-mock/internal/order"
	"github.com/iliamunaev/storefront-mock/internal/store"
	"github.com/iliamunaev/storefront-mock/internal/tracking"
)

const printEvery = 100 * time.Millisecond

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a config file (yaml or .env)")
	orderID := fs.String("order", "", "order id to follow, e.g. o1")
	token := fs.String("token", "tracker", "bearer token sent to the API")
	force := fs.String("status", "", "ask the API to report this remote status")
	simulate := fs.String("err", "", "ask the API to fail every poll with 500 or 400")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !order.ValidID(*orderID) {
		return fmt.Errorf("-order must look like o<digits>, got %q", *orderID)
	}
	var trackOpts []client.TrackOption
	if *force != "" {
		st := model.RemoteStatus(*force)
		if !st.Valid() {
			return fmt.Errorf("-status %q is not a remote status", *force)
		}
		trackOpts = append(trackOpts, client.ForceStatus(st))
	}
	if *simulate != "" {
		trackOpts = append(trackOpts, client.SimulateError(*simulate))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	api := client.New(cfg.BaseURL,
		client.WithToken(*token),
		client.WithTimeout(cfg.Tracking.RequestTimeout),
	)

	o, err := api.GetOrder(ctx, *orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", *orderID, err)
	}
	ledger := store.NewMemory()
	if err := ledger.Insert(o, ""); err != nil {
		return err
	}

	p := tracking.NewPoller(o.ID, api, ledger,
		tracking.WithIntervals(cfg.Tracking.BaseInterval, cfg.Tracking.MaxInterval),
		tracking.WithCycle(cfg.Tracking.AllowCycle),
		tracking.WithTrackOptions(trackOpts...),
		tracking.WithLogger(log.Named("tracking")),
	)
	log.Info("tracker.start", zap.String("order_id", o.ID), zap.String("base_url", cfg.BaseURL))

	printSnapshot(out, p.Snapshot())

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return p.Run(ctx)
	})
	g.Go(func() error {
		last := 0
		tick := time.NewTicker(printEvery)
		defer tick.Stop()
		for {
			select {
			case <-done:
				if s := p.Snapshot(); s.Polls != last {
					printSnapshot(out, s)
				}
				return nil
			case <-tick.C:
				if s := p.Snapshot(); s.Polls != last {
					printSnapshot(out, s)
					last = s.Polls
				}
			}
		}
	})
	return g.Wait()
}

func printSnapshot(w io.Writer, s tracking.Snapshot) {
	fmt.Fprintf(w, "order=%s stage=%s delivered=%t rider=%q phone=%q next=%s failures=%d",
		s.OrderID, s.Stage, s.Delivered, s.Rider.Name, s.Rider.Phone, s.Interval, s.Failures)
	if s.Banner != "" {
		fmt.Fprintf(w, " banner=%q", s.Banner)
	}
	fmt.Fprintln(w)
}
