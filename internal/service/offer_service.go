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
	"github.com/handshakehq/handshake-core/internal/repository"
)

const minScopeLen = 10
const maxScopeLen = 2000

// OfferService is the append-only offer ledger plus the accept-offer
// transaction that materializes a deal.
type OfferService struct {
	jobs      JobRequestStore
	offers    OfferStore
	deals     DealStore
	audit     *auditTrail
	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewOfferService(
	jobs JobRequestStore,
	offers OfferStore,
	deals DealStore,
	messages MessageStore,
	publisher Publisher,
	log zerolog.Logger,
) *OfferService {
	return &OfferService{
		jobs:      jobs,
		offers:    offers,
		deals:     deals,
		audit:     newAuditTrail(messages, publisher, log),
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

type CreateOfferInput struct {
	JobRequestID      uuid.UUID
	Price             float64
	PricingType       model.PricingType
	EstimatedDuration *string
	ScopeDescription  string
	ValidUntil        *time.Time
}

// CreateOffer appends a new version to the ledger. Any previously pending
// offer is superseded in the same storage transaction, so at most one offer
// per job request is ever pending. Revision after a decline or expiry is
// just another call here; versions are never edited in place.
func (s *OfferService) CreateOffer(ctx context.Context, principal model.Principal, input CreateOfferInput) (*model.Offer, error) {
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	scope := strings.TrimSpace(input.ScopeDescription)
	if len(scope) < minScopeLen || len(scope) > maxScopeLen {
		return nil, fmt.Errorf("%w: scope must be %d to %d characters", ErrInvalidInput, minScopeLen, maxScopeLen)
	}
	if input.PricingType != model.PricingFixed && input.PricingType != model.PricingHourly {
		return nil, fmt.Errorf("%w: pricing type must be fixed or hourly", ErrInvalidInput)
	}
	if input.ValidUntil != nil && input.ValidUntil.Before(s.now()) {
		return nil, fmt.Errorf("%w: valid_until is already in the past", ErrInvalidInput)
	}

	job, err := s.getJob(ctx, input.JobRequestID)
	if err != nil {
		return nil, err
	}
	if job.SellerID != principal.UserID {
		return nil, fmt.Errorf("%w: only the seller can create offers", ErrUnauthorized)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, job.Status)
	}

	offer := &model.Offer{
		JobRequestID:      job.ID,
		SellerID:          principal.UserID,
		Price:             input.Price,
		PricingType:       input.PricingType,
		EstimatedDuration: input.EstimatedDuration,
		ScopeDescription:  scope,
		ValidUntil:        input.ValidUntil,
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.audit.record(ctx, job.ID, principal.UserID,
		fmt.Sprintf("Offer v%d sent. Review it in the Offers tab.", offer.Version),
		model.MessageTypeOfferNotification)
	s.publisher.StatusChanged(job.ID, model.JobStatusOffered)

	return offer, nil
}

// ListOffers returns the version history, newest first. Stale pending
// offers are normalized to expired on the way out; this read-time sweep is
// the only expiry enforcement besides the accept-time check.
func (s *OfferService) ListOffers(ctx context.Context, principal model.Principal, jobRequestID uuid.UUID) ([]model.Offer, error) {
	job, err := s.getJob(ctx, jobRequestID)
	if err != nil {
		return nil, err
	}
	if _, ok := job.RoleOf(principal.UserID); !ok {
		return nil, fmt.Errorf("%w: not a participant", ErrUnauthorized)
	}
	if err := s.offers.ExpireStale(ctx, jobRequestID, s.now()); err != nil {
		s.log.Error().Err(err).
			Str("job_request_id", jobRequestID.String()).
			Msg("expire stale offers failed")
	}
	return s.offers.ListForJob(ctx, jobRequestID)
}

// AcceptOffer is the deal materializer. The offer flip, the job status
// change and the deal insert commit or roll back together; losing a race
// surfaces as ErrConflict with nothing written.
func (s *OfferService) AcceptOffer(ctx context.Context, principal model.Principal, offerID uuid.UUID) (*model.Deal, error) {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	job, err := s.getJob(ctx, offer.JobRequestID)
	if err != nil {
		return nil, err
	}
	if job.CustomerID != principal.UserID {
		return nil, fmt.Errorf("%w: only the customer can accept offers", ErrUnauthorized)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, job.Status)
	}
	if offer.Status != model.OfferStatusPending {
		return nil, fmt.Errorf("%w: offer is no longer pending", ErrConflict)
	}
	if offer.Expired(s.now()) {
		// Normalize the row, then refuse: expiry is enforced at accept time.
		if err := s.offers.UpdateStatus(ctx, offer.ID, model.OfferStatusPending, model.OfferStatusExpired); err != nil &&
			!errors.Is(err, repository.ErrPreconditionFailed) {
			s.log.Error().Err(err).Str("offer_id", offer.ID.String()).Msg("expire offer failed")
		}
		return nil, fmt.Errorf("%w: offer has expired", ErrConflict)
	}

	deal, err := s.deals.Materialize(ctx, offer, job)
	if err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) || errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: offer is no longer pending", ErrConflict)
		}
		return nil, err
	}

	s.audit.record(ctx, job.ID, principal.UserID,
		fmt.Sprintf("Offer v%d accepted — deal created!", offer.Version),
		model.MessageTypeStatusChange)
	s.publisher.StatusChanged(job.ID, model.JobStatusAccepted)

	return deal, nil
}

// DeclineOffer marks a pending offer declined. The request status is left
// alone: the customer may keep discussing or cancel separately.
func (s *OfferService) DeclineOffer(ctx context.Context, principal model.Principal, offerID uuid.UUID) error {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return err
	}
	job, err := s.getJob(ctx, offer.JobRequestID)
	if err != nil {
		return err
	}
	if job.CustomerID != principal.UserID {
		return fmt.Errorf("%w: only the customer can decline offers", ErrUnauthorized)
	}
	if offer.Status != model.OfferStatusPending {
		return fmt.Errorf("%w: offer is no longer pending", ErrConflict)
	}

	if err := s.offers.UpdateStatus(ctx, offer.ID, model.OfferStatusPending, model.OfferStatusDeclined); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return fmt.Errorf("%w: offer is no longer pending", ErrConflict)
		}
		return err
	}

	s.audit.record(ctx, job.ID, principal.UserID,
		fmt.Sprintf("Offer v%d declined.", offer.Version),
		model.MessageTypeStatusChange)
	return nil
}

func (s *OfferService) getOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	offer, err := s.offers.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: offer", ErrNotFound)
		}
		return nil, err
	}
	return offer, nil
}

func (s *OfferService) getJob(ctx context.Context, id uuid.UUID) (*model.JobRequest, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: job request", ErrNotFound)
		}
		return nil, err
	}
	return job, nil
}
