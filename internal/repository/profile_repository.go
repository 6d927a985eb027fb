package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type profileRow struct {
	ID                  uuid.UUID
	DisplayName         string
	IsSeller            bool
	IsVerified          bool
	HandshakeScore      float64
	AvgRating           float64
	AvgCommunication    float64
	AvgQuality          float64
	AvgReliability      float64
	TotalReviews        int
	TotalCompletedDeals int
	AvgResponseHours    *float64
	CompletionRate      *float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r *ProfileRepository) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var row profileRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, display_name, is_seller, is_verified, handshake_score,
			avg_rating, avg_communication, avg_quality, avg_reliability,
			total_reviews, total_completed_deals, avg_response_hours,
			completion_rate, created_at, updated_at
		FROM profiles
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

// SellerAggregates reads the raw inputs of the trust engine fresh from the
// rows, never from the stored aggregates, so recomputation is idempotent.
type SellerAggregates struct {
	AvgRating        *float64
	AvgCommunication *float64
	AvgQuality       *float64
	AvgReliability   *float64
	TotalReviews     int
	CompletedDeals   int
	CancelledDeals   int
	AvgResponseHours *float64
}

func (r *ProfileRepository) SellerAggregates(ctx context.Context, sellerID uuid.UUID) (*SellerAggregates, error) {
	var agg SellerAggregates
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT AVG(rating)::float8 FROM reviews WHERE reviewee_id = @seller) AS avg_rating,
			(SELECT AVG(rating_communication)::float8 FROM reviews WHERE reviewee_id = @seller) AS avg_communication,
			(SELECT AVG(rating_quality)::float8 FROM reviews WHERE reviewee_id = @seller) AS avg_quality,
			(SELECT AVG(rating_reliability)::float8 FROM reviews WHERE reviewee_id = @seller) AS avg_reliability,
			(SELECT COUNT(*) FROM reviews WHERE reviewee_id = @seller) AS total_reviews,
			(SELECT COUNT(*) FROM deals WHERE seller_id = @seller AND status = 'completed') AS completed_deals,
			(SELECT COUNT(*) FROM deals WHERE seller_id = @seller AND status = 'cancelled') AS cancelled_deals,
			(SELECT AVG(EXTRACT(EPOCH FROM (first_reply.replied_at - jr.created_at)) / 3600.0)::float8
				FROM job_requests jr
				JOIN LATERAL (
					SELECT MIN(m.created_at) AS replied_at
					FROM messages m
					WHERE m.job_request_id = jr.id
						AND m.sender_id = jr.seller_id
						AND m.message_type = 'text'
				) first_reply ON first_reply.replied_at IS NOT NULL
				WHERE jr.seller_id = @seller
			) AS avg_response_hours
	`, map[string]interface{}{"seller": sellerID}).Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// UpdateTrustStats writes the recomputed aggregates. Only the trust engine
// calls this; everything else reads these columns.
func (r *ProfileRepository) UpdateTrustStats(ctx context.Context, sellerID uuid.UUID, stats model.TrustStats) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE profiles SET
			handshake_score = ?,
			avg_rating = ?,
			avg_communication = ?,
			avg_quality = ?,
			avg_reliability = ?,
			total_reviews = ?,
			total_completed_deals = ?,
			avg_response_hours = ?,
			completion_rate = ?,
			updated_at = NOW()
		WHERE id = ?
	`,
		stats.HandshakeScore, stats.AvgRating, stats.AvgCommunication,
		stats.AvgQuality, stats.AvgReliability, stats.TotalReviews,
		stats.TotalCompletedDeals, stats.AvgResponseHours, stats.CompletionRate,
		sellerID,
	).Error
}

func (r *ProfileRepository) ListFeaturedSellers(ctx context.Context, limit int) ([]model.Profile, error) {
	var rows []profileRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, display_name, is_seller, is_verified, handshake_score,
			avg_rating, avg_communication, avg_quality, avg_reliability,
			total_reviews, total_completed_deals, avg_response_hours,
			completion_rate, created_at, updated_at
		FROM profiles
		WHERE is_seller = TRUE AND handshake_score > 0
		ORDER BY handshake_score DESC
		LIMIT ?
	`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	profiles := make([]model.Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, *rows[i].toModel())
	}
	return profiles, nil
}

func (row *profileRow) toModel() *model.Profile {
	return &model.Profile{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		IsSeller:    row.IsSeller,
		IsVerified:  row.IsVerified,
		TrustStats: model.TrustStats{
			HandshakeScore:      row.HandshakeScore,
			AvgRating:           row.AvgRating,
			AvgCommunication:    row.AvgCommunication,
			AvgQuality:          row.AvgQuality,
			AvgReliability:      row.AvgReliability,
			TotalReviews:        row.TotalReviews,
			TotalCompletedDeals: row.TotalCompletedDeals,
			AvgResponseHours:    row.AvgResponseHours,
			CompletionRate:      row.CompletionRate,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
