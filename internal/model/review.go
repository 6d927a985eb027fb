package model

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID                  uuid.UUID
	DealID              uuid.UUID
	ReviewerID          uuid.UUID
	RevieweeID          uuid.UUID
	Rating              int
	RatingCommunication *int
	RatingQuality       *int
	RatingReliability   *int
	Comment             *string
	CreatedAt           time.Time
}
