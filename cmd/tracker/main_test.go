package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliamunaev/storefront-mock/internal/app"
	"github.com/iliamunaev/storefront-mock/internal/config"
)

// startServer serves a fresh app and points the tracker's config at it.
func startServer(t *testing.T) {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Latency = config.Latency{}

	a, err := app.New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(a.Router)
	t.Cleanup(srv.Close)

	t.Setenv("MOCKAPI_BASE_URL", srv.URL)
	t.Setenv("MOCKAPI_LOG_LEVEL", "error")
	t.Setenv("MOCKAPI_TRACKING_BASE_INTERVAL", "10ms")
	t.Setenv("MOCKAPI_TRACKING_MAX_INTERVAL", "40ms")
}

func TestStopsWhenDelivered(t *testing.T) {
	startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	err := run(ctx, []string{"-order", "o1", "-status", "DELIVERED"}, &out)
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "run should return before the deadline")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "stage=preparing")
	assert.Contains(t, lines[1], "stage=delivered delivered=true")
}

func TestShowsBannerOnFailures(t *testing.T) {
	startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := run(ctx, []string{"-order", "o1", "-err", "500"}, &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, `banner="unable to refresh tracking"`)
	assert.NotContains(t, got, "stage=transit")
}

func TestRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing order", args: nil, want: "-order must look like"},
		{name: "bad order", args: []string{"-order", "x1"}, want: "-order must look like"},
		{name: "bad status", args: []string{"-order", "o1", "-status", "LOST"}, want: "not a remote status"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := run(context.Background(), tt.args, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestUnknownOrder(t *testing.T) {
	startServer(t)

	err := run(context.Background(), []string{"-order", "o999"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load order o999")
}
