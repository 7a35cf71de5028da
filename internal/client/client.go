// Package client is a typed client for the mock API. The tracking poller
// and the tracker CLI both talk to the service through it, over a real
// listener or the in-process transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliamunaev/storefront-mock/internal/model"
)

const apiPrefix = "/api/v1"

// APIError is a non-2xx response. Kind returns the envelope code so
// apperr.Kind classifies it like a local error.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Kind() string { return e.Code }

// Client calls the mock API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	timeout time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient, e.g. with one whose
// Transport is the in-process dispatcher.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds every request. Zero means no client-side bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New returns a Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrackOption adds a query parameter to a tracking request.
type TrackOption func(url.Values)

// ForceStatus asks the service to return the given remote status.
func ForceStatus(s model.RemoteStatus) TrackOption {
	return func(q url.Values) { q.Set("status", string(s)) }
}

// SimulateError asks the service to fail with "500" or "400".
func SimulateError(code string) TrackOption {
	return func(q url.Values) { q.Set("err", code) }
}

// Track fetches the live tracking status of orderID.
func (c *Client) Track(ctx context.Context, orderID string, opts ...TrackOption) (model.TrackResponse, error) {
	q := url.Values{}
	for _, opt := range opts {
		opt(q)
	}
	var out model.TrackResponse
	err := c.do(ctx, http.MethodGet, "/order/track/"+url.PathEscape(orderID), q, nil, &out)
	return out, err
}

// CreateOrder places an order.
func (c *Client) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (model.Order, error) {
	var out model.CreateOrderResponse
	err := c.do(ctx, http.MethodPost, "/order", nil, req, &out)
	return out.Order, err
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, id string) (model.Order, error) {
	var out model.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// Advance moves an order one tracking stage forward.
func (c *Client) Advance(ctx context.Context, id string) (model.Order, error) {
	var out model.Order
	err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(id)+"/advance", nil, nil, &out)
	return out, err
}

func (c *Client) Availability(ctx context.Context, providerID string) (model.Availability, error) {
	var out model.Availability
	err := c.do(ctx, http.MethodGet, "/availability", url.Values{"providerId": {providerID}}, nil, &out)
	return out, err
}

func (c *Client) Pricing(ctx context.Context, providerID string) (model.Pricing, error) {
	var out model.Pricing
	err := c.do(ctx, http.MethodGet, "/pricing", url.Values{"providerId": {providerID}}, nil, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context, providerID string) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, http.MethodGet, "/profile", url.Values{"providerId": {providerID}}, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + apiPrefix + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var env model.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		return apiErr
	}

	apiErr.Code = "server_error"
	if resp.StatusCode < 500 {
		apiErr.Code = "invalid_request"
	}
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
