package model

import (
	"time"

	"github.com/google/uuid"
)

type TrustTier string

const (
	TierNew         TrustTier = "new"
	TierRising      TrustTier = "rising"
	TierTrusted     TrustTier = "trusted"
	TierTopProvider TrustTier = "top_provider"
)

type Profile struct {
	ID          uuid.UUID
	DisplayName string
	IsSeller    bool
	IsVerified  bool
	TrustStats  TrustStats
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TrustStats are the derived reputation aggregates on a seller profile.
// They are owned by the trust scoring engine; every other component treats
// them as read-only.
type TrustStats struct {
	HandshakeScore      float64
	AvgRating           float64
	AvgCommunication    float64
	AvgQuality          float64
	AvgReliability      float64
	TotalReviews        int
	TotalCompletedDeals int
	AvgResponseHours    *float64
	CompletionRate      *float64
}

// SellerStats is the read-model returned to clients: the stored aggregates
// plus the tier derived from them.
type SellerStats struct {
	TrustStats
	Tier TrustTier
}
