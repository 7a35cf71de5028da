// Package courier holds the rider roster attached to tracking responses.
package courier

import (
	"hash/fnv"

	"github.com/iliamunaev/storefront-mock/internal/model"
)

// Roster hands out riders for orders that are out for delivery.
type Roster struct {
	riders []model.Rider
}

// DefaultRiders is the roster used when none is configured.
var DefaultRiders = []model.Rider{
	{Name: "Michael John", Phone: "+2348012345678", ChatID: "t3"},
}

// NewRoster returns a roster over riders, or DefaultRiders if empty.
func NewRoster(riders ...model.Rider) *Roster {
	if len(riders) == 0 {
		riders = DefaultRiders
	}
	return &Roster{riders: append([]model.Rider(nil), riders...)}
}

// RiderFor returns rider details only while the status is
// OUT_FOR_DELIVERY. The same order always gets the same rider.
func (r *Roster) RiderFor(status model.RemoteStatus, orderID string) *model.Rider {
	if status != model.RemoteOutForDelivery {
		return nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	rider := r.riders[int(h.Sum32()%uint32(len(r.riders)))]
	return &rider
}
