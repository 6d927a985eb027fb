package model

import (
	"time"

	"github.com/google/uuid"
)

// Report is a user complaint about another user or a listing. Reports are
// recorded for moderators; adjudication happens elsewhere.
type Report struct {
	ID                uuid.UUID
	ReporterID        uuid.UUID
	ReportedUserID    *uuid.UUID
	ReportedListingID *uuid.UUID
	Reason            string
	Description       *string
	Status            string
	CreatedAt         time.Time
}
