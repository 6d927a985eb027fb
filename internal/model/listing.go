package model

import (
	"time"

	"github.com/google/uuid"
)

// Listing is the narrow read surface consumed when a customer opens a job
// request. Listing CRUD and search live outside this service.
type Listing struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	Title       string
	Category    string
	PricingType PricingType
	IsActive    bool
	CreatedAt   time.Time
}
