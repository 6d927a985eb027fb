package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
)

type JobRequestRepository struct {
	db *gorm.DB
}

func NewJobRequestRepository(db *gorm.DB) *JobRequestRepository {
	return &JobRequestRepository{db: db}
}

type jobRequestRow struct {
	ID            uuid.UUID
	ListingID     uuid.UUID
	CustomerID    uuid.UUID
	SellerID      uuid.UUID
	Status        string
	Description   string
	BudgetMin     *float64
	BudgetMax     *float64
	PreferredTime *time.Time
	Location      *string
	Category      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *JobRequestRepository) Create(ctx context.Context, job *model.JobRequest) error {
	return r.db.WithContext(ctx).Raw(`
		INSERT INTO job_requests (
			listing_id, customer_id, seller_id, status, description,
			budget_min, budget_max, preferred_time, location, category
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at
	`,
		job.ListingID, job.CustomerID, job.SellerID, job.Status, job.Description,
		job.BudgetMin, job.BudgetMax, job.PreferredTime, job.Location, job.Category,
	).Row().Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

func (r *JobRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.JobRequest, error) {
	var row jobRequestRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, listing_id, customer_id, seller_id, status, description,
			budget_min, budget_max, preferred_time, location, category,
			created_at, updated_at
		FROM job_requests
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

func (r *JobRequestRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.JobRequest, error) {
	var rows []jobRequestRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, listing_id, customer_id, seller_id, status, description,
			budget_min, budget_max, preferred_time, location, category,
			created_at, updated_at
		FROM job_requests
		WHERE customer_id = ? OR seller_id = ?
		ORDER BY updated_at DESC
	`, userID, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	jobs := make([]model.JobRequest, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, *rows[i].toModel())
	}
	return jobs, nil
}

// UpdateStatus flips the status with a compare-and-swap on the previous
// value. A zero row count means a concurrent writer got there first.
func (r *JobRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.JobStatus) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE job_requests
		SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?
	`, to, id, from)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

func (r *JobRequestRepository) GetListing(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	var row struct {
		ID          uuid.UUID
		SellerID    uuid.UUID
		Title       string
		Category    string
		PricingType string
		IsActive    bool
		CreatedAt   time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, seller_id, title, category, pricing_type, is_active, created_at
		FROM listings
		WHERE id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Listing{
		ID:          row.ID,
		SellerID:    row.SellerID,
		Title:       row.Title,
		Category:    row.Category,
		PricingType: model.PricingType(row.PricingType),
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func (row *jobRequestRow) toModel() *model.JobRequest {
	return &model.JobRequest{
		ID:            row.ID,
		ListingID:     row.ListingID,
		CustomerID:    row.CustomerID,
		SellerID:      row.SellerID,
		Status:        model.JobStatus(row.Status),
		Description:   row.Description,
		BudgetMin:     row.BudgetMin,
		BudgetMax:     row.BudgetMax,
		PreferredTime: row.PreferredTime,
		Location:      row.Location,
		Category:      row.Category,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
