package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/config"
	"github.com/handshakehq/handshake-core/internal/model"
	"github.com/handshakehq/handshake-core/internal/repository"
)

// memStore is an in-memory stand-in for the repositories. It mirrors their
// compare-and-swap semantics so the concurrency-sensitive paths behave the
// same way they do against the database.
type memStore struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*model.JobRequest
	listings   map[uuid.UUID]*model.Listing
	offers     map[uuid.UUID]*model.Offer
	deals      map[uuid.UUID]*model.Deal
	messages   []*model.Message
	reviews    []*model.Review
	profiles   map[uuid.UUID]*model.Profile
	aggregates map[uuid.UUID]*repository.SellerAggregates
	reports    []*model.Report
	seq        int
}

func newMemStore() *memStore {
	return &memStore{
		jobs:       make(map[uuid.UUID]*model.JobRequest),
		listings:   make(map[uuid.UUID]*model.Listing),
		offers:     make(map[uuid.UUID]*model.Offer),
		deals:      make(map[uuid.UUID]*model.Deal),
		profiles:   make(map[uuid.UUID]*model.Profile),
		aggregates: make(map[uuid.UUID]*repository.SellerAggregates),
	}
}

func (m *memStore) nextTime() time.Time {
	m.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

func (m *memStore) Create(_ context.Context, job *model.JobRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.ID = uuid.New()
	job.CreatedAt = m.nextTime()
	job.UpdatedAt = job.CreatedAt
	clone := *job
	m.jobs[job.ID] = &clone
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*model.JobRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *job
	return &clone, nil
}

func (m *memStore) ListForUser(_ context.Context, userID uuid.UUID) ([]model.JobRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.JobRequest
	for _, job := range m.jobs {
		if job.CustomerID == userID || job.SellerID == userID {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != from {
		return repository.ErrPreconditionFailed
	}
	job.Status = to
	job.UpdatedAt = m.nextTime()
	return nil
}

func (m *memStore) GetListing(_ context.Context, id uuid.UUID) (*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	listing, ok := m.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *listing
	return &clone, nil
}

func (m *memStore) CreateOffer(_ context.Context, offer *model.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[offer.JobRequestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	version := 0
	for _, existing := range m.offers {
		if existing.JobRequestID == offer.JobRequestID {
			if existing.Version > version {
				version = existing.Version
			}
			if existing.Status == model.OfferStatusPending {
				existing.Status = model.OfferStatusSuperseded
			}
		}
	}
	offer.ID = uuid.New()
	offer.Version = version + 1
	offer.Status = model.OfferStatusPending
	offer.CreatedAt = m.nextTime()
	clone := *offer
	m.offers[offer.ID] = &clone
	job.Status = model.JobStatusOffered
	return nil
}

func (m *memStore) GetOffer(_ context.Context, id uuid.UUID) (*model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *offer
	return &clone, nil
}

func (m *memStore) ListForJob(_ context.Context, jobRequestID uuid.UUID) ([]model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Offer
	for _, offer := range m.offers {
		if offer.JobRequestID == jobRequestID {
			out = append(out, *offer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (m *memStore) UpdateOfferStatus(_ context.Context, id uuid.UUID, from, to model.OfferStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[id]
	if !ok || offer.Status != from {
		return repository.ErrPreconditionFailed
	}
	offer.Status = to
	return nil
}

func (m *memStore) SupersedePending(_ context.Context, jobRequestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, offer := range m.offers {
		if offer.JobRequestID == jobRequestID && offer.Status == model.OfferStatusPending {
			offer.Status = model.OfferStatusSuperseded
		}
	}
	return nil
}

func (m *memStore) ExpireStale(_ context.Context, jobRequestID uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, offer := range m.offers {
		if offer.JobRequestID == jobRequestID && offer.Status == model.OfferStatusPending && offer.Expired(now) {
			offer.Status = model.OfferStatusExpired
		}
	}
	return nil
}

func (m *memStore) Materialize(_ context.Context, offer *model.Offer, job *model.JobRequest) (*model.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.offers[offer.ID]
	if !ok || stored.Status != model.OfferStatusPending {
		return nil, repository.ErrPreconditionFailed
	}
	current, ok := m.jobs[job.ID]
	if !ok || current.Status.IsTerminal() {
		return nil, repository.ErrPreconditionFailed
	}
	for _, deal := range m.deals {
		if deal.JobRequestID == job.ID {
			return nil, repository.ErrDuplicate
		}
	}

	stored.Status = model.OfferStatusAccepted
	current.Status = model.JobStatusAccepted

	deal := &model.Deal{
		ID:           uuid.New(),
		JobRequestID: job.ID,
		OfferID:      offer.ID,
		CustomerID:   current.CustomerID,
		SellerID:     current.SellerID,
		Status:       model.DealStatusActive,
		AgreedPrice:  stored.Price,
		AgreedScope:  stored.ScopeDescription,
		CreatedAt:    m.nextTime(),
	}
	m.deals[deal.ID] = deal
	clone := *deal
	return &clone, nil
}

func (m *memStore) GetDeal(_ context.Context, id uuid.UUID) (*model.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deal, ok := m.deals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *deal
	return &clone, nil
}

func (m *memStore) GetByJobRequest(_ context.Context, jobRequestID uuid.UUID) (*model.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, deal := range m.deals {
		if deal.JobRequestID == jobRequestID {
			clone := *deal
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) StampStarted(_ context.Context, jobRequestID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, deal := range m.deals {
		if deal.JobRequestID == jobRequestID && deal.Status == model.DealStatusActive {
			stamped := at
			deal.StartedAt = &stamped
		}
	}
	return nil
}

func (m *memStore) Complete(_ context.Context, jobRequestID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, deal := range m.deals {
		if deal.JobRequestID == jobRequestID && deal.Status == model.DealStatusActive {
			stamped := at
			deal.Status = model.DealStatusCompleted
			deal.CompletedAt = &stamped
		}
	}
	return nil
}

func (m *memStore) CancelActive(_ context.Context, jobRequestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, deal := range m.deals {
		if deal.JobRequestID == jobRequestID && deal.Status == model.DealStatusActive {
			deal.Status = model.DealStatusCancelled
		}
	}
	return nil
}

func (m *memStore) ListCompletedForSeller(_ context.Context, sellerID uuid.UUID, from, to time.Time) ([]model.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Deal
	for _, deal := range m.deals {
		if deal.SellerID != sellerID || deal.Status != model.DealStatusCompleted || deal.CompletedAt == nil {
			continue
		}
		if deal.CompletedAt.Before(from) || !deal.CompletedAt.Before(to) {
			continue
		}
		out = append(out, *deal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(*out[j].CompletedAt) })
	return out, nil
}

func (m *memStore) Insert(_ context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uuid.New()
	msg.CreatedAt = m.nextTime()
	clone := *msg
	m.messages = append(m.messages, &clone)
	return nil
}

func (m *memStore) ListMessages(_ context.Context, jobRequestID uuid.UUID) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Message
	for _, msg := range m.messages {
		if msg.JobRequestID == jobRequestID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *memStore) MarkRead(_ context.Context, jobRequestID, readerID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.JobRequestID == jobRequestID && msg.SenderID != readerID && msg.ReadAt == nil {
			stamped := at
			msg.ReadAt = &stamped
		}
	}
	return nil
}

func (m *memStore) InsertReview(_ context.Context, review *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.DealID == review.DealID && existing.ReviewerID == review.ReviewerID {
			return repository.ErrDuplicate
		}
	}
	review.ID = uuid.New()
	review.CreatedAt = m.nextTime()
	clone := *review
	m.reviews = append(m.reviews, &clone)
	return nil
}

func (m *memStore) ReviewerIDs(_ context.Context, dealID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for _, review := range m.reviews {
		if review.DealID == dealID {
			out = append(out, review.ReviewerID)
		}
	}
	return out, nil
}

func (m *memStore) ListForReviewee(_ context.Context, revieweeID uuid.UUID) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Review
	for _, review := range m.reviews {
		if review.RevieweeID == revieweeID {
			out = append(out, *review)
		}
	}
	return out, nil
}

func (m *memStore) GetProfile(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *profile
	return &clone, nil
}

func (m *memStore) SellerAggregates(_ context.Context, sellerID uuid.UUID) (*repository.SellerAggregates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if agg, ok := m.aggregates[sellerID]; ok {
		clone := *agg
		return &clone, nil
	}
	return &repository.SellerAggregates{}, nil
}

func (m *memStore) UpdateTrustStats(_ context.Context, sellerID uuid.UUID, stats model.TrustStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[sellerID]
	if !ok {
		return nil
	}
	profile.TrustStats = stats
	return nil
}

func (m *memStore) ListFeaturedSellers(_ context.Context, limit int) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Profile
	for _, profile := range m.profiles {
		if profile.IsSeller && profile.TrustStats.HandshakeScore > 0 {
			out = append(out, *profile)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TrustStats.HandshakeScore > out[j].TrustStats.HandshakeScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) InsertReport(_ context.Context, report *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	report.ID = uuid.New()
	report.Status = "open"
	report.CreatedAt = m.nextTime()
	clone := *report
	m.reports = append(m.reports, &clone)
	return nil
}

// Adapters split memStore's flat method set across the store interfaces
// where method names collide.

type jobStoreFake struct{ *memStore }

type offerStoreFake struct{ *memStore }

func (f offerStoreFake) Create(ctx context.Context, offer *model.Offer) error {
	return f.CreateOffer(ctx, offer)
}

func (f offerStoreFake) Get(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return f.GetOffer(ctx, id)
}

func (f offerStoreFake) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OfferStatus) error {
	return f.UpdateOfferStatus(ctx, id, from, to)
}

type dealStoreFake struct{ *memStore }

func (f dealStoreFake) Get(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	return f.GetDeal(ctx, id)
}

type messageStoreFake struct{ *memStore }

func (f messageStoreFake) ListForJob(ctx context.Context, jobRequestID uuid.UUID) ([]model.Message, error) {
	return f.ListMessages(ctx, jobRequestID)
}

type reviewStoreFake struct{ *memStore }

func (f reviewStoreFake) Insert(ctx context.Context, review *model.Review) error {
	return f.InsertReview(ctx, review)
}

type profileStoreFake struct{ *memStore }

func (f profileStoreFake) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	return f.GetProfile(ctx, id)
}

type reportStoreFake struct{ *memStore }

func (f reportStoreFake) Insert(ctx context.Context, report *model.Report) error {
	return f.InsertReport(ctx, report)
}

// staleJobStore serves reads with an out-of-date status while writes still
// hit the real store, simulating a racing actor between read and write.
type staleJobStore struct {
	JobRequestStore
	status model.JobStatus
}

func (s staleJobStore) Get(ctx context.Context, id uuid.UUID) (*model.JobRequest, error) {
	job, err := s.JobRequestStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Status = s.status
	return job, nil
}

// recordingPublisher captures the events that would go to the realtime hub.
type recordingPublisher struct {
	mu       sync.Mutex
	statuses []model.JobStatus
	messages []uuid.UUID
}

func (p *recordingPublisher) StatusChanged(_ uuid.UUID, status model.JobStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, status)
}

func (p *recordingPublisher) MessageNew(_, messageID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, messageID)
}

func (p *recordingPublisher) statusEvents() []model.JobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.JobStatus, len(p.statuses))
	copy(out, p.statuses)
	return out
}

type testEnv struct {
	store        *memStore
	publisher    *recordingPublisher
	negotiations *NegotiationService
	offers       *OfferService
	reviews      *ReviewService
	trust        *TrustService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	publisher := &recordingPublisher{}
	log := zerolog.Nop()
	cfg := config.ScoringConfig{
		RatingWeight:         0.5,
		CompletionWeight:     0.3,
		ResponseWeight:       0.2,
		ResponseCeilingHours: 48,
	}

	trust := NewTrustService(profileStoreFake{store}, cfg, log)
	negotiations := NewNegotiationService(
		jobStoreFake{store}, offerStoreFake{store}, dealStoreFake{store},
		messageStoreFake{store}, trust, publisher, log,
	)
	offers := NewOfferService(
		jobStoreFake{store}, offerStoreFake{store}, dealStoreFake{store},
		messageStoreFake{store}, publisher, log,
	)
	reviews := NewReviewService(
		jobStoreFake{store}, dealStoreFake{store}, reviewStoreFake{store},
		messageStoreFake{store}, trust, publisher, log,
	)

	return &testEnv{
		store:        store,
		publisher:    publisher,
		negotiations: negotiations,
		offers:       offers,
		reviews:      reviews,
		trust:        trust,
	}
}

// seedJob plants a job request with its listing and participant profiles.
func (e *testEnv) seedJob(status model.JobStatus) (*model.JobRequest, model.Principal, model.Principal) {
	customer := model.Principal{UserID: uuid.New(), DisplayName: "Alice"}
	seller := model.Principal{UserID: uuid.New(), DisplayName: "Bob", IsSeller: true}

	listing := &model.Listing{
		ID:          uuid.New(),
		SellerID:    seller.UserID,
		Title:       "Deep apartment cleaning",
		Category:    "cleaning",
		PricingType: model.PricingFixed,
		IsActive:    true,
	}
	job := &model.JobRequest{
		ID:          uuid.New(),
		ListingID:   listing.ID,
		CustomerID:  customer.UserID,
		SellerID:    seller.UserID,
		Status:      status,
		Description: "Two-bedroom apartment, needs a full deep clean.",
		Category:    listing.Category,
	}

	e.store.mu.Lock()
	e.store.listings[listing.ID] = listing
	e.store.jobs[job.ID] = job
	e.store.profiles[customer.UserID] = &model.Profile{ID: customer.UserID, DisplayName: customer.DisplayName}
	e.store.profiles[seller.UserID] = &model.Profile{ID: seller.UserID, DisplayName: seller.DisplayName, IsSeller: true}
	e.store.mu.Unlock()

	return job, customer, seller
}

func (e *testEnv) seedPendingOffer(job *model.JobRequest, seller model.Principal) *model.Offer {
	offer := &model.Offer{JobRequestID: job.ID, SellerID: seller.UserID, Price: 150, ScopeDescription: "Full deep clean, all rooms."}
	if err := (offerStoreFake{e.store}).Create(context.Background(), offer); err != nil {
		panic(err)
	}
	return offer
}
