package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
	"github.com/handshakehq/handshake-core/internal/repository"
)

const maxCommentLen = 1000

type ReviewService struct {
	jobs      JobRequestStore
	deals     DealStore
	reviews   ReviewStore
	trust     *TrustService
	audit     *auditTrail
	publisher Publisher
	log       zerolog.Logger
}

func NewReviewService(
	jobs JobRequestStore,
	deals DealStore,
	reviews ReviewStore,
	messages MessageStore,
	trust *TrustService,
	publisher Publisher,
	log zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		jobs:      jobs,
		deals:     deals,
		reviews:   reviews,
		trust:     trust,
		audit:     newAuditTrail(messages, publisher, log),
		publisher: publisher,
		log:       log,
	}
}

type SubmitReviewInput struct {
	DealID              uuid.UUID
	Rating              int
	RatingCommunication *int
	RatingQuality       *int
	RatingReliability   *int
	Comment             *string
}

// SubmitReview records one participant's rating of the other. Each side
// reviews once; when both have, the job request moves to reviewed. That
// check re-reads the review rows every time, so submission order and
// retries cannot fire the transition twice.
func (s *ReviewService) SubmitReview(ctx context.Context, principal model.Principal, input SubmitReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	for _, sub := range []*int{input.RatingCommunication, input.RatingQuality, input.RatingReliability} {
		if sub != nil && (*sub < 1 || *sub > 5) {
			return nil, fmt.Errorf("%w: sub-ratings must be between 1 and 5", ErrInvalidInput)
		}
	}
	if input.Comment != nil && len(strings.TrimSpace(*input.Comment)) > maxCommentLen {
		return nil, fmt.Errorf("%w: comment must be under %d characters", ErrInvalidInput, maxCommentLen)
	}

	deal, err := s.deals.Get(ctx, input.DealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: deal", ErrNotFound)
		}
		return nil, err
	}
	if !deal.IsParticipant(principal.UserID) {
		return nil, fmt.Errorf("%w: not a deal participant", ErrUnauthorized)
	}
	if deal.Status != model.DealStatusCompleted {
		return nil, fmt.Errorf("%w: deal is not completed", ErrInvalidState)
	}

	review := &model.Review{
		DealID:              deal.ID,
		ReviewerID:          principal.UserID,
		RevieweeID:          deal.OtherParty(principal.UserID),
		Rating:              input.Rating,
		RatingCommunication: input.RatingCommunication,
		RatingQuality:       input.RatingQuality,
		RatingReliability:   input.RatingReliability,
		Comment:             input.Comment,
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: you have already reviewed this deal", ErrConflict)
		}
		return nil, err
	}

	// The seller's aggregates feed the handshake score; recompute when the
	// seller is the one being reviewed.
	if review.RevieweeID == deal.SellerID {
		if err := s.trust.Recalculate(ctx, deal.SellerID); err != nil {
			s.log.Error().Err(err).
				Str("seller_id", deal.SellerID.String()).
				Msg("trust recalculation failed")
		}
	}

	s.maybeMarkReviewed(ctx, deal)

	name := principal.DisplayName
	if name == "" {
		name = "Someone"
	}
	s.audit.record(ctx, deal.JobRequestID, principal.UserID, name+" left a review.", model.MessageTypeSystem)

	return review, nil
}

// maybeMarkReviewed fires the emergent completed -> reviewed transition
// once both participants have a review on record. A no-op when only one
// side has reviewed or when the job already moved on.
func (s *ReviewService) maybeMarkReviewed(ctx context.Context, deal *model.Deal) {
	reviewerIDs, err := s.reviews.ReviewerIDs(ctx, deal.ID)
	if err != nil {
		s.log.Error().Err(err).Str("deal_id", deal.ID.String()).Msg("read reviewers failed")
		return
	}

	var customerDone, sellerDone bool
	for _, id := range reviewerIDs {
		if id == deal.CustomerID {
			customerDone = true
		}
		if id == deal.SellerID {
			sellerDone = true
		}
	}
	if !customerDone || !sellerDone {
		return
	}

	err = s.jobs.UpdateStatus(ctx, deal.JobRequestID, model.JobStatusCompleted, model.JobStatusReviewed)
	switch {
	case err == nil:
		s.publisher.StatusChanged(deal.JobRequestID, model.JobStatusReviewed)
	case errors.Is(err, repository.ErrPreconditionFailed):
		// Already reviewed, or the job left completed some other way.
	default:
		s.log.Error().Err(err).
			Str("job_request_id", deal.JobRequestID.String()).
			Msg("mark reviewed failed")
	}
}

func (s *ReviewService) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]model.Review, error) {
	return s.reviews.ListForReviewee(ctx, sellerID)
}
