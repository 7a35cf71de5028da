// Package auth classifies the Authorization header of an inbound request.
// No token is ever verified: the mock only distinguishes missing, forbidden
// and anything else.
package auth

import (
	"net/http"
	"strings"
)

// State is the outcome of classifying a request's credentials.
type State int

const (
	Anonymous State = iota
	Authorized
	Forbidden
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authorized:
		return "authorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// ForbiddenToken is the bearer token that always yields Forbidden.
const ForbiddenToken = "forbidden"

const (
	anonKey      = "anon"
	callerKeyLen = 32
)

// Classify inspects the Authorization header.
func Classify(h http.Header) State {
	v := strings.TrimSpace(h.Get("Authorization"))
	if v == "" {
		return Anonymous
	}
	if v == "Bearer "+ForbiddenToken {
		return Forbidden
	}
	return Authorized
}

// CallerKey is the rate-limit key for a request: the first 32 characters of
// its Authorization header, or "anon" when there is none.
func CallerKey(h http.Header) string {
	v := h.Get("Authorization")
	if v == "" {
		return anonKey
	}
	if len(v) > callerKeyLen {
		return v[:callerKeyLen]
	}
	return v
}
