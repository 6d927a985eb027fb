package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Insert(ctx context.Context, report *model.Report) error {
	report.Status = "open"
	return r.db.WithContext(ctx).Raw(`
		INSERT INTO reports (reporter_id, reported_user_id, reported_listing_id, reason, description, status)
		VALUES (?, ?, ?, ?, ?, 'open')
		RETURNING id, created_at
	`,
		report.ReporterID, report.ReportedUserID, report.ReportedListingID,
		report.Reason, report.Description,
	).Row().Scan(&report.ID, &report.CreatedAt)
}
