package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
	"github.com/handshakehq/handshake-core/internal/negotiation"
	"github.com/handshakehq/handshake-core/internal/repository"
)

const (
	minDescriptionLen = 20
	maxDescriptionLen = 2000
	maxMessageLen     = 2000
)

// NegotiationService drives a job request through its lifecycle: creation,
// role-gated status transitions with their side effects, and the
// conversation thread.
type NegotiationService struct {
	jobs      JobRequestStore
	offers    OfferStore
	deals     DealStore
	messages  MessageStore
	trust     *TrustService
	audit     *auditTrail
	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewNegotiationService(
	jobs JobRequestStore,
	offers OfferStore,
	deals DealStore,
	messages MessageStore,
	trust *TrustService,
	publisher Publisher,
	log zerolog.Logger,
) *NegotiationService {
	return &NegotiationService{
		jobs:      jobs,
		offers:    offers,
		deals:     deals,
		messages:  messages,
		trust:     trust,
		audit:     newAuditTrail(messages, publisher, log),
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

type CreateJobRequestInput struct {
	ListingID     uuid.UUID
	Description   string
	BudgetMin     *float64
	BudgetMax     *float64
	PreferredTime *time.Time
	Location      *string
}

func (s *NegotiationService) CreateJobRequest(ctx context.Context, principal model.Principal, input CreateJobRequestInput) (*model.JobRequest, error) {
	description := strings.TrimSpace(input.Description)
	if len(description) < minDescriptionLen || len(description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description must be %d to %d characters", ErrInvalidInput, minDescriptionLen, maxDescriptionLen)
	}
	if input.BudgetMin != nil && *input.BudgetMin <= 0 {
		return nil, fmt.Errorf("%w: budget must be positive", ErrInvalidInput)
	}
	if input.BudgetMin != nil && input.BudgetMax != nil && *input.BudgetMax < *input.BudgetMin {
		return nil, fmt.Errorf("%w: max budget must be at least min budget", ErrInvalidInput)
	}
	if input.PreferredTime != nil && input.PreferredTime.Before(s.now()) {
		return nil, fmt.Errorf("%w: preferred time must be in the future", ErrInvalidInput)
	}

	listing, err := s.jobs.GetListing(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: listing", ErrNotFound)
		}
		return nil, err
	}
	if !listing.IsActive {
		return nil, fmt.Errorf("%w: listing is no longer active", ErrInvalidState)
	}
	if listing.SellerID == principal.UserID {
		return nil, fmt.Errorf("%w: cannot open a request against your own listing", ErrInvalidInput)
	}

	job := &model.JobRequest{
		ListingID:     listing.ID,
		CustomerID:    principal.UserID,
		SellerID:      listing.SellerID,
		Status:        model.JobStatusPending,
		Description:   description,
		BudgetMin:     input.BudgetMin,
		BudgetMax:     input.BudgetMax,
		PreferredTime: input.PreferredTime,
		Location:      input.Location,
		Category:      listing.Category,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *NegotiationService) GetJobRequest(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.JobRequest, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := job.RoleOf(principal.UserID); !ok {
		return nil, fmt.Errorf("%w: not a participant", ErrUnauthorized)
	}
	return job, nil
}

func (s *NegotiationService) ListJobRequests(ctx context.Context, principal model.Principal) ([]model.JobRequest, error) {
	return s.jobs.ListForUser(ctx, principal.UserID)
}

// AvailableActions returns the transitions the caller may trigger from the
// job's current status.
func (s *NegotiationService) AvailableActions(ctx context.Context, principal model.Principal, id uuid.UUID) ([]negotiation.Rule, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	role, ok := job.RoleOf(principal.UserID)
	if !ok {
		return nil, fmt.Errorf("%w: not a participant", ErrUnauthorized)
	}
	return negotiation.AvailableTransitions(job.Status, role), nil
}

// Transition validates a role-gated edge and applies it with its side
// effects. The status write is a compare-and-swap on the status the caller
// saw, so two racing transitions cannot both apply.
func (s *NegotiationService) Transition(ctx context.Context, principal model.Principal, jobRequestID uuid.UUID, target model.JobStatus) (*model.JobRequest, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, target)
	}
	if target == model.JobStatusReviewed {
		// Emergent transition: fires from review submission only.
		return nil, fmt.Errorf("%w: reviewed is reached by submitting reviews", ErrInvalidState)
	}

	job, err := s.getJob(ctx, jobRequestID)
	if err != nil {
		return nil, err
	}
	role, ok := job.RoleOf(principal.UserID)
	if !ok {
		return nil, fmt.Errorf("%w: not a participant", ErrUnauthorized)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, job.Status)
	}
	if !negotiation.CanTransition(job.Status, target, role) {
		otherRole := model.RoleCustomer
		if role == model.RoleCustomer {
			otherRole = model.RoleSeller
		}
		if negotiation.CanTransition(job.Status, target, otherRole) {
			return nil, fmt.Errorf("%w: only the %s may do this", ErrUnauthorized, otherRole)
		}
		return nil, fmt.Errorf("%w: cannot go from %s to %s", ErrInvalidState, job.Status, target)
	}

	if err := s.jobs.UpdateStatus(ctx, job.ID, job.Status, target); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, fmt.Errorf("%w: request status changed concurrently", ErrConflict)
		}
		return nil, err
	}

	if err := s.applyTransitionEffects(ctx, job, target); err != nil {
		// The status is already committed; effects are logged and the
		// caller still gets the transitioned request.
		s.log.Error().Err(err).
			Str("job_request_id", job.ID.String()).
			Str("target", string(target)).
			Msg("transition side effects failed")
	}

	s.audit.record(ctx, job.ID, principal.UserID, negotiation.StatusLabel(target), model.MessageTypeStatusChange)
	s.publisher.StatusChanged(job.ID, target)

	job.Status = target
	return job, nil
}

func (s *NegotiationService) applyTransitionEffects(ctx context.Context, job *model.JobRequest, target model.JobStatus) error {
	switch target {
	case model.JobStatusInProgress:
		return s.deals.StampStarted(ctx, job.ID, s.now())
	case model.JobStatusCompleted:
		if err := s.deals.Complete(ctx, job.ID, s.now()); err != nil {
			return err
		}
		return s.trust.Recalculate(ctx, job.SellerID)
	case model.JobStatusCancelled:
		if err := s.deals.CancelActive(ctx, job.ID); err != nil {
			return err
		}
		return s.offers.SupersedePending(ctx, job.ID)
	}
	return nil
}

type SendMessageInput struct {
	JobRequestID uuid.UUID
	Content      string
}

// SendMessage appends a user message to the thread. The first message on a
// pending request auto-advances it to clarifying; that rule lives here, not
// in the transition table, so the table stays pure.
func (s *NegotiationService) SendMessage(ctx context.Context, principal model.Principal, input SendMessageInput) (*model.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" || len(content) > maxMessageLen {
		return nil, fmt.Errorf("%w: message must be between 1 and %d characters", ErrInvalidInput, maxMessageLen)
	}

	job, err := s.getJob(ctx, input.JobRequestID)
	if err != nil {
		return nil, err
	}
	if _, ok := job.RoleOf(principal.UserID); !ok {
		return nil, fmt.Errorf("%w: not a participant", ErrUnauthorized)
	}

	msg := &model.Message{
		JobRequestID: job.ID,
		SenderID:     principal.UserID,
		Content:      content,
		Type:         model.MessageTypeText,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	s.publisher.MessageNew(job.ID, msg.ID)

	if job.Status == model.JobStatusPending {
		err := s.jobs.UpdateStatus(ctx, job.ID, model.JobStatusPending, model.JobStatusClarifying)
		switch {
		case err == nil:
			s.audit.record(ctx, job.ID, principal.UserID, "Discussion started.", model.MessageTypeStatusChange)
			s.publisher.StatusChanged(job.ID, model.JobStatusClarifying)
		case errors.Is(err, repository.ErrPreconditionFailed):
			// Someone else advanced the status first; the message stands.
		default:
			s.log.Error().Err(err).
				Str("job_request_id", job.ID.String()).
				Msg("auto-advance to clarifying failed")
		}
	}

	return msg, nil
}

func (s *NegotiationService) ListMessages(ctx context.Context, principal model.Principal, jobRequestID uuid.UUID) ([]model.Message, error) {
	job, err := s.getJob(ctx, jobRequestID)
	if err != nil {
		return nil, err
	}
	if _, ok := job.RoleOf(principal.UserID); !ok {
		return nil, fmt.Errorf("%w: not a participant", ErrUnauthorized)
	}
	return s.messages.ListForJob(ctx, jobRequestID)
}

func (s *NegotiationService) MarkMessagesRead(ctx context.Context, principal model.Principal, jobRequestID uuid.UUID) error {
	job, err := s.getJob(ctx, jobRequestID)
	if err != nil {
		return err
	}
	if _, ok := job.RoleOf(principal.UserID); !ok {
		return fmt.Errorf("%w: not a participant", ErrUnauthorized)
	}
	return s.messages.MarkRead(ctx, jobRequestID, principal.UserID, s.now())
}

func (s *NegotiationService) getJob(ctx context.Context, id uuid.UUID) (*model.JobRequest, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: job request", ErrNotFound)
		}
		return nil, err
	}
	return job, nil
}
