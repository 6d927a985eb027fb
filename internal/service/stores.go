package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/handshakehq/handshake-core/internal/model"
	"github.com/handshakehq/handshake-core/internal/repository"
)

// Store interfaces narrow the repositories to what each service needs and
// let tests substitute in-memory fakes.

type JobRequestStore interface {
	Create(ctx context.Context, job *model.JobRequest) error
	Get(ctx context.Context, id uuid.UUID) (*model.JobRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.JobRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.JobStatus) error
	GetListing(ctx context.Context, id uuid.UUID) (*model.Listing, error)
}

type OfferStore interface {
	Create(ctx context.Context, offer *model.Offer) error
	Get(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	ListForJob(ctx context.Context, jobRequestID uuid.UUID) ([]model.Offer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OfferStatus) error
	SupersedePending(ctx context.Context, jobRequestID uuid.UUID) error
	ExpireStale(ctx context.Context, jobRequestID uuid.UUID, now time.Time) error
}

type DealStore interface {
	Materialize(ctx context.Context, offer *model.Offer, job *model.JobRequest) (*model.Deal, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Deal, error)
	GetByJobRequest(ctx context.Context, jobRequestID uuid.UUID) (*model.Deal, error)
	StampStarted(ctx context.Context, jobRequestID uuid.UUID, at time.Time) error
	Complete(ctx context.Context, jobRequestID uuid.UUID, at time.Time) error
	CancelActive(ctx context.Context, jobRequestID uuid.UUID) error
	ListCompletedForSeller(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]model.Deal, error)
}

type MessageStore interface {
	Insert(ctx context.Context, msg *model.Message) error
	ListForJob(ctx context.Context, jobRequestID uuid.UUID) ([]model.Message, error)
	MarkRead(ctx context.Context, jobRequestID, readerID uuid.UUID, at time.Time) error
}

type ReviewStore interface {
	Insert(ctx context.Context, review *model.Review) error
	ReviewerIDs(ctx context.Context, dealID uuid.UUID) ([]uuid.UUID, error)
	ListForReviewee(ctx context.Context, revieweeID uuid.UUID) ([]model.Review, error)
}

type ProfileStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	SellerAggregates(ctx context.Context, sellerID uuid.UUID) (*repository.SellerAggregates, error)
	UpdateTrustStats(ctx context.Context, sellerID uuid.UUID, stats model.TrustStats) error
	ListFeaturedSellers(ctx context.Context, limit int) ([]model.Profile, error)
}

type ReportStore interface {
	Insert(ctx context.Context, report *model.Report) error
}

// Publisher pushes change hints to connected clients. Delivery is
// at-least-once and never part of the correctness boundary: payloads carry
// ids only, clients re-fetch authoritative state.
type Publisher interface {
	StatusChanged(jobRequestID uuid.UUID, status model.JobStatus)
	MessageNew(jobRequestID, messageID uuid.UUID)
}
