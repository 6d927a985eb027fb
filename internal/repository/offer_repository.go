package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
)

type OfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

type offerRow struct {
	ID                uuid.UUID
	JobRequestID      uuid.UUID
	Version           int
	SellerID          uuid.UUID
	Price             float64
	PricingType       string
	EstimatedDuration *string
	ScopeDescription  string
	ValidUntil        *time.Time
	Status            string
	CreatedAt         time.Time
}

// Create runs the ledger append as one serialized unit: the job request row
// is locked, the next version is computed, currently pending offers are
// superseded, the new offer is inserted pending and the job moves to
// offered. Two racing creates cannot both leave a pending offer behind.
func (r *OfferRepository) Create(ctx context.Context, offer *model.Offer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lock struct {
			ID     uuid.UUID
			Status string
		}
		err := tx.Raw(`
			SELECT id, status FROM job_requests WHERE id = ? FOR UPDATE
		`, offer.JobRequestID).Scan(&lock).Error
		if err != nil {
			return err
		}
		if lock.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}

		var next struct{ Version int }
		err = tx.Raw(`
			SELECT COALESCE(MAX(version), 0) + 1 AS version
			FROM offers
			WHERE job_request_id = ?
		`, offer.JobRequestID).Scan(&next).Error
		if err != nil {
			return err
		}
		offer.Version = next.Version

		err = tx.Exec(`
			UPDATE offers SET status = 'superseded'
			WHERE job_request_id = ? AND status = 'pending'
		`, offer.JobRequestID).Error
		if err != nil {
			return err
		}

		err = tx.Raw(`
			INSERT INTO offers (
				job_request_id, version, seller_id, price, pricing_type,
				estimated_duration, scope_description, valid_until, status
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending')
			RETURNING id, created_at
		`,
			offer.JobRequestID, offer.Version, offer.SellerID, offer.Price,
			offer.PricingType, offer.EstimatedDuration, offer.ScopeDescription,
			offer.ValidUntil,
		).Row().Scan(&offer.ID, &offer.CreatedAt)
		if err != nil {
			return err
		}
		offer.Status = model.OfferStatusPending

		return tx.Exec(`
			UPDATE job_requests SET status = 'offered', updated_at = NOW()
			WHERE id = ?
		`, offer.JobRequestID).Error
	})
}

func (r *OfferRepository) Get(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var row offerRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, job_request_id, version, seller_id, price, pricing_type,
			estimated_duration, scope_description, valid_until, status, created_at
		FROM offers
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

func (r *OfferRepository) ListForJob(ctx context.Context, jobRequestID uuid.UUID) ([]model.Offer, error) {
	var rows []offerRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, job_request_id, version, seller_id, price, pricing_type,
			estimated_duration, scope_description, valid_until, status, created_at
		FROM offers
		WHERE job_request_id = ?
		ORDER BY version DESC
	`, jobRequestID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	offers := make([]model.Offer, 0, len(rows))
	for i := range rows {
		offers = append(offers, *rows[i].toModel())
	}
	return offers, nil
}

// UpdateStatus is a compare-and-swap from one status to another. Offer
// statuses only ever leave pending, so "from" is always the pending check.
func (r *OfferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OfferStatus) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE offers SET status = ? WHERE id = ? AND status = ?
	`, to, id, from)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

func (r *OfferRepository) SupersedePending(ctx context.Context, jobRequestID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE offers SET status = 'superseded'
		WHERE job_request_id = ? AND status = 'pending'
	`, jobRequestID).Error
}

// ExpireStale normalizes pending offers whose validity window has passed.
// Called lazily from reads; there is no background sweeper.
func (r *OfferRepository) ExpireStale(ctx context.Context, jobRequestID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE offers SET status = 'expired'
		WHERE job_request_id = ? AND status = 'pending' AND valid_until IS NOT NULL AND valid_until < ?
	`, jobRequestID, now).Error
}

func (row *offerRow) toModel() *model.Offer {
	return &model.Offer{
		ID:                row.ID,
		JobRequestID:      row.JobRequestID,
		Version:           row.Version,
		SellerID:          row.SellerID,
		Price:             row.Price,
		PricingType:       model.PricingType(row.PricingType),
		EstimatedDuration: row.EstimatedDuration,
		ScopeDescription:  row.ScopeDescription,
		ValidUntil:        row.ValidUntil,
		Status:            model.OfferStatus(row.Status),
		CreatedAt:         row.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
