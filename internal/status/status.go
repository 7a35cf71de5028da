// Package status derives the live-looking delivery status served by the
// tracking route. The value depends only on which fixed-length time bucket
// the clock falls in, so repeated polls inside one bucket agree and the
// status advances on its own as time passes.
package status

import (
	"time"

	"github.com/iliamunaev/storefront-mock/internal/model"
)

// DefaultBucket is the length of one status bucket.
const DefaultBucket = 20 * time.Second

// Generator picks remote statuses from an injectable clock.
type Generator struct {
	now    func() time.Time
	bucket time.Duration
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithBucket sets the bucket length; non-positive values are ignored.
func WithBucket(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.bucket = d
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now, bucket: DefaultBucket}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Bucket returns the index of the current bucket since the Unix epoch.
func (g *Generator) Bucket() int64 {
	return g.now().UnixNano() / int64(g.bucket)
}

// Pick returns override when it names a valid remote status, otherwise the
// status for the current bucket, cycling CREATED, PREPARING,
// OUT_FOR_DELIVERY, DELIVERED.
func (g *Generator) Pick(override string) model.RemoteStatus {
	if s := model.RemoteStatus(override); s.Valid() {
		return s
	}
	n := int64(len(model.RemoteStatuses))
	return model.RemoteStatuses[((g.Bucket()%n)+n)%n]
}
