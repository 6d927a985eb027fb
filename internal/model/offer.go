package model

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferStatusPending    OfferStatus = "pending"
	OfferStatusAccepted   OfferStatus = "accepted"
	OfferStatusDeclined   OfferStatus = "declined"
	OfferStatusExpired    OfferStatus = "expired"
	OfferStatusSuperseded OfferStatus = "superseded"
)

type PricingType string

const (
	PricingFixed  PricingType = "fixed"
	PricingHourly PricingType = "hourly"
)

type Offer struct {
	ID                uuid.UUID
	JobRequestID      uuid.UUID
	Version           int
	SellerID          uuid.UUID
	Price             float64
	PricingType       PricingType
	EstimatedDuration *string
	ScopeDescription  string
	ValidUntil        *time.Time
	Status            OfferStatus
	CreatedAt         time.Time
}

// Expired reports whether the offer's validity window has passed. Offers
// without a valid_until never expire.
func (o *Offer) Expired(now time.Time) bool {
	return o.ValidUntil != nil && now.After(*o.ValidUntil)
}
