package auth

import (
	"net/http"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   State
	}{
		{name: "missing", header: "", want: Anonymous},
		{name: "blank", header: "   ", want: Anonymous},
		{name: "bearer", header: "Bearer abc", want: Authorized},
		{name: "forbidden", header: "Bearer forbidden", want: Forbidden},
		{name: "other scheme", header: "Basic Zm9vOmJhcg==", want: Authorized},
		{name: "forbidden without scheme", header: "forbidden", want: Authorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			if got := Classify(h); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCallerKey(t *testing.T) {
	t.Parallel()

	long := "Bearer " + strings.Repeat("x", 64)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "anonymous", header: "", want: "anon"},
		{name: "short", header: "Bearer abc", want: "Bearer abc"},
		{name: "truncated", header: long, want: long[:32]},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			if got := CallerKey(h); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
