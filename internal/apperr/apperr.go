// Package apperr classifies errors into the symbolic codes returned in
// error envelopes and maps them to HTTP status codes.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

// Error is a classified domain error. Two Errors match under errors.Is
// when their kinds are equal, so callers may attach their own message.
type Error struct {
	kind string
	msg  string
}

// New returns an Error of the given kind with a human-readable message.
func New(kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Kind() string  { return e.kind }

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.kind == e.kind
}

var (
	ErrUnauthorized    = New("unauthorized", "Missing or invalid token")
	ErrForbidden       = New("forbidden", "Not allowed to access this resource")
	ErrInvalidInput    = New("invalid_input", "Invalid input")
	ErrInvalidID       = New("invalid_id", "ID format must be o<digits>")
	ErrInvalidRequest  = New("invalid_request", "Invalid request")
	ErrNotFound        = New("not_found", "Order not found")
	ErrConflict        = New("conflict", "Order with clientOrderId already exists")
	ErrTooManyRequests = New("too_many_requests", "Rate limit exceeded")
	ErrDBUnavailable   = New("db_unavailable", "Database unavailable")
	ErrServer          = New("server_error", "Unexpected error")
)

// kinder is satisfied by domain errors
// that carry a classification kind.
type kinder interface {
	error
	Kind() string
}

// kindToStatus maps error classification kinds
// to HTTP status codes.
var kindToStatus = map[string]int{
	"unauthorized":       http.StatusUnauthorized,
	"forbidden":          http.StatusForbidden,
	"method_not_allowed": http.StatusMethodNotAllowed,
	"invalid_input":      http.StatusBadRequest,
	"invalid_id":         http.StatusBadRequest,
	"invalid_request":    http.StatusBadRequest,
	"not_found":          http.StatusNotFound,
	"conflict":           http.StatusConflict,
	"too_many_requests":  http.StatusTooManyRequests,
	"db_unavailable":     http.StatusServiceUnavailable,
	"server_error":       http.StatusInternalServerError,
	"timeout":            http.StatusGatewayTimeout,
	"canceled":           http.StatusRequestTimeout,
}

// Kind returns the symbolic code of err.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "server_error"
	}
}

// HTTPStatus returns the status code paired with err's kind.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if s, ok := kindToStatus[Kind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Message returns the client-safe message for err. Wrapping context added
// with fmt.Errorf is dropped; unclassified errors never leak their text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Error()
	}
	switch Kind(err) {
	case "timeout":
		return "Request timed out"
	case "canceled":
		return "Request canceled"
	default:
		return ErrServer.Error()
	}
}
