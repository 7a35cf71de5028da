package httptransport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// InterceptedRequest is one journal entry of a Transport.
type InterceptedRequest struct {
	Method string
	URL    string
	Time   time.Time
}

// DefaultJournalSize is how many requests a Transport remembers.
const DefaultJournalSize = 256

// Transport is an http.RoundTripper that serves API requests in process
// through a handler instead of the network. Requests outside the API prefix
// go to the fallback transport. The most recent requests are journaled.
type Transport struct {
	handler     http.Handler
	prefix      string
	fallback    http.RoundTripper
	now         func() time.Time
	journalSize int

	mu      sync.Mutex
	journal []InterceptedRequest
}

type TransportOption func(*Transport)

// WithFallback sets the RoundTripper for non-API requests.
func WithFallback(rt http.RoundTripper) TransportOption {
	return func(t *Transport) {
		if rt != nil {
			t.fallback = rt
		}
	}
}

// WithPrefix overrides APIPrefix as the intercepted path prefix.
func WithPrefix(prefix string) TransportOption {
	return func(t *Transport) { t.prefix = prefix }
}

// WithJournalSize keeps the last n requests. Zero or less turns the
// journal off.
func WithJournalSize(n int) TransportOption {
	return func(t *Transport) { t.journalSize = max(n, 0) }
}

// NewTransport returns a Transport serving h.
func NewTransport(h http.Handler, opts ...TransportOption) *Transport {
	t := &Transport{
		handler:     h,
		prefix:      APIPrefix,
		fallback:    http.DefaultTransport,
		now:         time.Now,
		journalSize: DefaultJournalSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper. If the request context ends
// while the handler runs, the context error is returned instead of the
// response, as a network transport would.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.record(req)

	if !strings.HasPrefix(req.URL.Path, t.prefix) {
		return t.fallback.RoundTrip(req)
	}

	ctx := req.Context()
	in := req.Clone(ctx)
	if in.Body == nil {
		in.Body = http.NoBody
	}
	in.RequestURI = req.URL.RequestURI()
	if in.RemoteAddr == "" {
		in.RemoteAddr = "127.0.0.1:0"
	}

	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, in)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

func (t *Transport) record(req *http.Request) {
	if t.journalSize == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.journal) == t.journalSize {
		t.journal = t.journal[1:]
	}
	t.journal = append(t.journal, InterceptedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Time:   t.now(),
	})
}

// Requests returns a copy of the journal, oldest first.
func (t *Transport) Requests() []InterceptedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]InterceptedRequest(nil), t.journal...)
}

// Reset clears the journal.
func (t *Transport) Reset() {
	t.mu.Lock()
	t.journal = nil
	t.mu.Unlock()
}
