package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/config"
	"github.com/handshakehq/handshake-core/internal/model"
	"github.com/handshakehq/handshake-core/internal/repository"
)

// TrustService owns the seller reputation aggregates. Recomputation is a
// pure function over freshly read rows, so running it twice for the same
// trigger converges on the same numbers.
type TrustService struct {
	profiles ProfileStore
	cfg      config.ScoringConfig
	log      zerolog.Logger
}

func NewTrustService(profiles ProfileStore, cfg config.ScoringConfig, log zerolog.Logger) *TrustService {
	return &TrustService{profiles: profiles, cfg: cfg, log: log}
}

// TierFor derives the coarse reputation bucket. Sellers with fewer than
// five completed deals stay "new" no matter the score.
func TierFor(score float64, completedDeals int) model.TrustTier {
	if completedDeals < 5 {
		return model.TierNew
	}
	switch {
	case score >= 80:
		return model.TierTopProvider
	case score >= 60:
		return model.TierTrusted
	case score >= 40:
		return model.TierRising
	}
	return model.TierNew
}

// Score combines normalized rating, completion rate and response speed
// into the 0..100 handshake score. Missing inputs contribute zero rather
// than being imputed.
func Score(cfg config.ScoringConfig, avgRating float64, completionRate, avgResponseHours *float64) float64 {
	totalWeight := cfg.RatingWeight + cfg.CompletionWeight + cfg.ResponseWeight
	if totalWeight <= 0 {
		return 0
	}

	ratingComponent := clamp(avgRating/5*100, 0, 100)

	completionComponent := 0.0
	if completionRate != nil {
		completionComponent = clamp(*completionRate, 0, 100)
	}

	responseComponent := 0.0
	if avgResponseHours != nil {
		responseComponent = responseSpeedScore(*avgResponseHours, cfg.ResponseCeilingHours)
	}

	score := (ratingComponent*cfg.RatingWeight +
		completionComponent*cfg.CompletionWeight +
		responseComponent*cfg.ResponseWeight) / totalWeight
	return clamp(score, 0, 100)
}

// responseSpeedScore maps average first-response latency to 0..100: full
// marks at an hour or less, falling linearly to zero at the ceiling.
func responseSpeedScore(hours, ceiling float64) float64 {
	if hours <= 1 {
		return 100
	}
	if ceiling <= 1 || hours >= ceiling {
		return 0
	}
	return 100 * (ceiling - hours) / (ceiling - 1)
}

// Recalculate re-derives all trust aggregates for a seller. Triggered on
// deal completion and on each review submission.
func (s *TrustService) Recalculate(ctx context.Context, sellerID uuid.UUID) error {
	agg, err := s.profiles.SellerAggregates(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("read seller aggregates: %w", err)
	}

	stats := statsFromAggregates(s.cfg, agg)
	if err := s.profiles.UpdateTrustStats(ctx, sellerID, stats); err != nil {
		return fmt.Errorf("write trust stats: %w", err)
	}

	s.log.Debug().
		Str("seller_id", sellerID.String()).
		Float64("handshake_score", stats.HandshakeScore).
		Msg("trust stats recalculated")
	return nil
}

func statsFromAggregates(cfg config.ScoringConfig, agg *repository.SellerAggregates) model.TrustStats {
	stats := model.TrustStats{
		TotalReviews:        agg.TotalReviews,
		TotalCompletedDeals: agg.CompletedDeals,
		AvgResponseHours:    agg.AvgResponseHours,
	}
	if agg.AvgRating != nil {
		stats.AvgRating = *agg.AvgRating
	}
	if agg.AvgCommunication != nil {
		stats.AvgCommunication = *agg.AvgCommunication
	}
	if agg.AvgQuality != nil {
		stats.AvgQuality = *agg.AvgQuality
	}
	if agg.AvgReliability != nil {
		stats.AvgReliability = *agg.AvgReliability
	}

	if total := agg.CompletedDeals + agg.CancelledDeals; total > 0 {
		rate := float64(agg.CompletedDeals) / float64(total) * 100
		stats.CompletionRate = &rate
	}

	stats.HandshakeScore = Score(cfg, stats.AvgRating, stats.CompletionRate, stats.AvgResponseHours)
	return stats
}

// GetSellerStats returns the stored aggregates plus the derived tier.
func (s *TrustService) GetSellerStats(ctx context.Context, sellerID uuid.UUID) (*model.SellerStats, error) {
	profile, err := s.profiles.Get(ctx, sellerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: seller", ErrNotFound)
		}
		return nil, err
	}
	return &model.SellerStats{
		TrustStats: profile.TrustStats,
		Tier:       TierFor(profile.TrustStats.HandshakeScore, profile.TrustStats.TotalCompletedDeals),
	}, nil
}

func (s *TrustService) ListFeaturedProviders(ctx context.Context, limit int) ([]model.Profile, error) {
	if limit <= 0 || limit > 50 {
		limit = 6
	}
	return s.profiles.ListFeaturedSellers(ctx, limit)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
