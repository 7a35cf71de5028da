package model

import "time"

// AvailabilityStatus describes whether a provider can take work now.
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityBusy      AvailabilityStatus = "busy"
	AvailabilityOffline   AvailabilityStatus = "offline"
)

// Availability is recomputed per request and never stored.
type Availability struct {
	ProviderID string             `json:"providerId"`
	Status     AvailabilityStatus `json:"status"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	NextWindow string             `json:"nextWindow,omitempty"`
}

// PriceVariation is one priced option of a provider's service.
type PriceVariation struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

// Pricing is recomputed per request and never stored.
type Pricing struct {
	ProviderID      string           `json:"providerId"`
	BasePrice       int64            `json:"basePrice"`
	Currency        string           `json:"currency"`
	Variations      []PriceVariation `json:"variations"`
	SurgeMultiplier *float64         `json:"surgeMultiplier,omitempty"`
	DiscountPercent *float64         `json:"discountPercent,omitempty"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// PastJob is one entry of a provider's work history.
type PastJob struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	ClientName       string   `json:"clientName"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Responsibilities []string `json:"responsibilities"`
	Technologies     []string `json:"technologies"`
	Outcome          string   `json:"outcome"`
	Rating           *float64 `json:"rating,omitempty"`
	RatingCount      *int     `json:"ratingCount,omitempty"`
}

// Profile is a provider's public professional profile.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Location       string    `json:"location"`
	Image          string    `json:"image,omitempty"`
	Description    string    `json:"description"`
	WhatIDoSummary string    `json:"whatIDoSummary"`
	PastJobs       []PastJob `json:"pastJobs"`
}
