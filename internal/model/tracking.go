package model

// RemoteStatus is the tracking service vocabulary.
type RemoteStatus string

const (
	RemoteCreated        RemoteStatus = "CREATED"
	RemotePreparing      RemoteStatus = "PREPARING"
	RemoteOutForDelivery RemoteStatus = "OUT_FOR_DELIVERY"
	RemoteDelivered      RemoteStatus = "DELIVERED"
)

// RemoteStatuses lists the remote values in lifecycle order.
var RemoteStatuses = []RemoteStatus{RemoteCreated, RemotePreparing, RemoteOutForDelivery, RemoteDelivered}

// Valid reports whether s is one of the four remote values.
func (s RemoteStatus) Valid() bool {
	for _, v := range RemoteStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Rider is the contact for an order that is out for delivery.
// Every field is optional so partial updates can be merged.
type Rider struct {
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
	ChatID string `json:"chatId,omitempty"`
}

// TrackResponse is the payload of GET /order/track/{id}.
type TrackResponse struct {
	Status  RemoteStatus `json:"status"`
	Rider   *Rider       `json:"rider,omitempty"`
	OrderID string       `json:"orderId"`
	ETA     string       `json:"eta,omitempty"`
}
