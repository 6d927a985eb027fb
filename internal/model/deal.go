package model

import (
	"time"

	"github.com/google/uuid"
)

type DealStatus string

const (
	DealStatusActive    DealStatus = "active"
	DealStatusCompleted DealStatus = "completed"
	DealStatusDisputed  DealStatus = "disputed"
	DealStatusCancelled DealStatus = "cancelled"
)

// Deal is the binding agreement materialized from an accepted offer.
// AgreedPrice and AgreedScope are snapshots taken at acceptance time and
// never change afterwards.
type Deal struct {
	ID           uuid.UUID
	JobRequestID uuid.UUID
	OfferID      uuid.UUID
	CustomerID   uuid.UUID
	SellerID     uuid.UUID
	Status       DealStatus
	AgreedPrice  float64
	AgreedScope  string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

func (d *Deal) OtherParty(userID uuid.UUID) uuid.UUID {
	if userID == d.CustomerID {
		return d.SellerID
	}
	return d.CustomerID
}

func (d *Deal) IsParticipant(userID uuid.UUID) bool {
	return userID == d.CustomerID || userID == d.SellerID
}
