package model

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusClarifying JobStatus = "clarifying"
	JobStatusOffered    JobStatus = "offered"
	JobStatusAccepted   JobStatus = "accepted"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusReviewed   JobStatus = "reviewed"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusDeclined   JobStatus = "declined"
)

// IsTerminal reports whether no further status mutation is permitted.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusReviewed, JobStatusCancelled, JobStatusDeclined:
		return true
	}
	return false
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusClarifying, JobStatusOffered,
		JobStatusAccepted, JobStatusInProgress, JobStatusCompleted,
		JobStatusReviewed, JobStatusCancelled, JobStatusDeclined:
		return true
	}
	return false
}

type JobRequest struct {
	ID            uuid.UUID
	ListingID     uuid.UUID
	CustomerID    uuid.UUID
	SellerID      uuid.UUID
	Status        JobStatus
	Description   string
	BudgetMin     *float64
	BudgetMax     *float64
	PreferredTime *time.Time
	Location      *string
	Category      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RoleOf returns the negotiation role the user holds on this job request,
// or false if they are not a participant.
func (j *JobRequest) RoleOf(userID uuid.UUID) (Role, bool) {
	switch userID {
	case j.CustomerID:
		return RoleCustomer, true
	case j.SellerID:
		return RoleSeller, true
	}
	return "", false
}
