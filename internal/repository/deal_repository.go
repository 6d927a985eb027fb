package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
)

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

type dealRow struct {
	ID           uuid.UUID
	JobRequestID uuid.UUID
	OfferID      uuid.UUID
	CustomerID   uuid.UUID
	SellerID     uuid.UUID
	Status       string
	AgreedPrice  float64
	AgreedScope  string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

// Materialize executes the accept-offer transaction. The offer flip is a
// compare-and-swap on pending, so of N concurrent accepts exactly one
// commits; the rest roll back with ErrPreconditionFailed and no partial
// writes. The unique index on deals(job_request_id) backs this up at the
// storage level.
func (r *DealRepository) Materialize(ctx context.Context, offer *model.Offer, job *model.JobRequest) (*model.Deal, error) {
	deal := &model.Deal{
		JobRequestID: job.ID,
		OfferID:      offer.ID,
		CustomerID:   job.CustomerID,
		SellerID:     job.SellerID,
		Status:       model.DealStatusActive,
		AgreedPrice:  offer.Price,
		AgreedScope:  offer.ScopeDescription,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE offers SET status = 'accepted'
			WHERE id = ? AND status = 'pending'
		`, offer.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPreconditionFailed
		}

		result = tx.Exec(`
			UPDATE job_requests SET status = 'accepted', updated_at = NOW()
			WHERE id = ? AND status NOT IN ('cancelled', 'declined', 'reviewed')
		`, job.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPreconditionFailed
		}

		err := tx.Raw(`
			INSERT INTO deals (
				job_request_id, offer_id, customer_id, seller_id,
				status, agreed_price, agreed_scope
			)
			VALUES (?, ?, ?, ?, 'active', ?, ?)
			RETURNING id, created_at
		`,
			deal.JobRequestID, deal.OfferID, deal.CustomerID, deal.SellerID,
			deal.AgreedPrice, deal.AgreedScope,
		).Row().Scan(&deal.ID, &deal.CreatedAt)
		if err != nil && isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *DealRepository) Get(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	var row dealRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, job_request_id, offer_id, customer_id, seller_id, status,
			agreed_price, agreed_scope, started_at, completed_at, created_at
		FROM deals
		WHERE id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel(), nil
}

func (r *DealRepository) GetByJobRequest(ctx context.Context, jobRequestID uuid.UUID) (*model.Deal, error) {
	var row dealRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, job_request_id, offer_id, customer_id, seller_id, status,
			agreed_price, agreed_scope, started_at, completed_at, created_at
		FROM deals
		WHERE job_request_id = ?
	`, jobRequestID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel(), nil
}

// StampStarted records work start on the active deal of the job request.
func (r *DealRepository) StampStarted(ctx context.Context, jobRequestID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE deals SET started_at = ?
		WHERE job_request_id = ? AND status = 'active'
	`, at, jobRequestID).Error
}

// Complete stamps completion and flips the active deal to completed.
func (r *DealRepository) Complete(ctx context.Context, jobRequestID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE deals SET status = 'completed', completed_at = ?
		WHERE job_request_id = ? AND status = 'active'
	`, at, jobRequestID).Error
}

// CancelActive flips the active deal of a cancelled job to cancelled.
func (r *DealRepository) CancelActive(ctx context.Context, jobRequestID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE deals SET status = 'cancelled'
		WHERE job_request_id = ? AND status = 'active'
	`, jobRequestID).Error
}

// ListCompletedForSeller returns a seller's completed deals inside a period,
// newest first, for the deal-history export.
func (r *DealRepository) ListCompletedForSeller(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]model.Deal, error) {
	var rows []dealRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, job_request_id, offer_id, customer_id, seller_id, status,
			agreed_price, agreed_scope, started_at, completed_at, created_at
		FROM deals
		WHERE seller_id = ? AND status = 'completed'
			AND completed_at >= ? AND completed_at < ?
		ORDER BY completed_at DESC
	`, sellerID, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	deals := make([]model.Deal, 0, len(rows))
	for i := range rows {
		deals = append(deals, *rows[i].toModel())
	}
	return deals, nil
}

func (row *dealRow) toModel() *model.Deal {
	return &model.Deal{
		ID:           row.ID,
		JobRequestID: row.JobRequestID,
		OfferID:      row.OfferID,
		CustomerID:   row.CustomerID,
		SellerID:     row.SellerID,
		Status:       model.DealStatus(row.Status),
		AgreedPrice:  row.AgreedPrice,
		AgreedScope:  row.AgreedScope,
		StartedAt:    row.StartedAt,
		CompletedAt:  row.CompletedAt,
		CreatedAt:    row.CreatedAt,
	}
}
