package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Insert(ctx context.Context, review *model.Review) error {
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO reviews (
			deal_id, reviewer_id, reviewee_id, rating,
			rating_communication, rating_quality, rating_reliability, comment
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`,
		review.DealID, review.ReviewerID, review.RevieweeID, review.Rating,
		review.RatingCommunication, review.RatingQuality, review.RatingReliability,
		review.Comment,
	).Row().Scan(&review.ID, &review.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// ReviewerIDs lists who has reviewed a deal; the both-reviewed predicate is
// recomputed from these rows on every submission.
func (r *ReviewRepository) ReviewerIDs(ctx context.Context, dealID uuid.UUID) ([]uuid.UUID, error) {
	var rows []struct{ ReviewerID uuid.UUID }
	err := r.db.WithContext(ctx).Raw(`
		SELECT reviewer_id FROM reviews WHERE deal_id = ?
	`, dealID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ReviewerID)
	}
	return ids, nil
}

func (r *ReviewRepository) ListForReviewee(ctx context.Context, revieweeID uuid.UUID) ([]model.Review, error) {
	var rows []struct {
		ID                  uuid.UUID
		DealID              uuid.UUID
		ReviewerID          uuid.UUID
		RevieweeID          uuid.UUID
		Rating              int
		RatingCommunication *int
		RatingQuality       *int
		RatingReliability   *int
		Comment             *string
		CreatedAt           time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, deal_id, reviewer_id, reviewee_id, rating,
			rating_communication, rating_quality, rating_reliability,
			comment, created_at
		FROM reviews
		WHERE reviewee_id = ?
		ORDER BY created_at DESC
	`, revieweeID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	reviews := make([]model.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, model.Review{
			ID:                  row.ID,
			DealID:              row.DealID,
			ReviewerID:          row.ReviewerID,
			RevieweeID:          row.RevieweeID,
			Rating:              row.Rating,
			RatingCommunication: row.RatingCommunication,
			RatingQuality:       row.RatingQuality,
			RatingReliability:   row.RatingReliability,
			Comment:             row.Comment,
			CreatedAt:           row.CreatedAt,
		})
	}
	return reviews, nil
}
