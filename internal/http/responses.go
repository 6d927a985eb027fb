package http

import (
	"time"

	"github.com/handshakehq/handshake-core/internal/model"
	"github.com/handshakehq/handshake-core/internal/negotiation"
)

type jobRequestResponse struct {
	ID            string     `json:"id"`
	ListingID     string     `json:"listing_id"`
	CustomerID    string     `json:"customer_id"`
	SellerID      string     `json:"seller_id"`
	Status        string     `json:"status"`
	Description   string     `json:"description"`
	BudgetMin     *float64   `json:"budget_min,omitempty"`
	BudgetMax     *float64   `json:"budget_max,omitempty"`
	PreferredTime *time.Time `json:"preferred_time,omitempty"`
	Location      *string    `json:"location,omitempty"`
	Category      string     `json:"category"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toJobRequestResponse(job *model.JobRequest) jobRequestResponse {
	return jobRequestResponse{
		ID:            job.ID.String(),
		ListingID:     job.ListingID.String(),
		CustomerID:    job.CustomerID.String(),
		SellerID:      job.SellerID.String(),
		Status:        string(job.Status),
		Description:   job.Description,
		BudgetMin:     job.BudgetMin,
		BudgetMax:     job.BudgetMax,
		PreferredTime: job.PreferredTime,
		Location:      job.Location,
		Category:      job.Category,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

type offerResponse struct {
	ID                string     `json:"id"`
	JobRequestID      string     `json:"job_request_id"`
	Version           int        `json:"version"`
	SellerID          string     `json:"seller_id"`
	Price             float64    `json:"price"`
	PricingType       string     `json:"pricing_type"`
	EstimatedDuration *string    `json:"estimated_duration,omitempty"`
	ScopeDescription  string     `json:"scope_description"`
	ValidUntil        *time.Time `json:"valid_until,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toOfferResponse(offer *model.Offer) offerResponse {
	return offerResponse{
		ID:                offer.ID.String(),
		JobRequestID:      offer.JobRequestID.String(),
		Version:           offer.Version,
		SellerID:          offer.SellerID.String(),
		Price:             offer.Price,
		PricingType:       string(offer.PricingType),
		EstimatedDuration: offer.EstimatedDuration,
		ScopeDescription:  offer.ScopeDescription,
		ValidUntil:        offer.ValidUntil,
		Status:            string(offer.Status),
		CreatedAt:         offer.CreatedAt,
	}
}

type dealResponse struct {
	ID           string     `json:"id"`
	JobRequestID string     `json:"job_request_id"`
	OfferID      string     `json:"offer_id"`
	CustomerID   string     `json:"customer_id"`
	SellerID     string     `json:"seller_id"`
	Status       string     `json:"status"`
	AgreedPrice  float64    `json:"agreed_price"`
	AgreedScope  string     `json:"agreed_scope"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toDealResponse(deal *model.Deal) dealResponse {
	return dealResponse{
		ID:           deal.ID.String(),
		JobRequestID: deal.JobRequestID.String(),
		OfferID:      deal.OfferID.String(),
		CustomerID:   deal.CustomerID.String(),
		SellerID:     deal.SellerID.String(),
		Status:       string(deal.Status),
		AgreedPrice:  deal.AgreedPrice,
		AgreedScope:  deal.AgreedScope,
		StartedAt:    deal.StartedAt,
		CompletedAt:  deal.CompletedAt,
		CreatedAt:    deal.CreatedAt,
	}
}

type messageResponse struct {
	ID           string     `json:"id"`
	JobRequestID string     `json:"job_request_id"`
	SenderID     string     `json:"sender_id"`
	Content      string     `json:"content"`
	MessageType  string     `json:"message_type"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toMessageResponse(msg *model.Message) messageResponse {
	return messageResponse{
		ID:           msg.ID.String(),
		JobRequestID: msg.JobRequestID.String(),
		SenderID:     msg.SenderID.String(),
		Content:      msg.Content,
		MessageType:  string(msg.Type),
		ReadAt:       msg.ReadAt,
		CreatedAt:    msg.CreatedAt,
	}
}

type actionResponse struct {
	Target string `json:"target"`
	Label  string `json:"label"`
}

func toActionResponses(rules []negotiation.Rule) []actionResponse {
	actions := make([]actionResponse, 0, len(rules))
	for _, rule := range rules {
		actions = append(actions, actionResponse{Target: string(rule.To), Label: rule.Label})
	}
	return actions
}

type reviewResponse struct {
	ID                  string    `json:"id"`
	DealID              string    `json:"deal_id"`
	ReviewerID          string    `json:"reviewer_id"`
	RevieweeID          string    `json:"reviewee_id"`
	Rating              int       `json:"rating"`
	RatingCommunication *int      `json:"rating_communication,omitempty"`
	RatingQuality       *int      `json:"rating_quality,omitempty"`
	RatingReliability   *int      `json:"rating_reliability,omitempty"`
	Comment             *string   `json:"comment,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

func toReviewResponse(review *model.Review) reviewResponse {
	return reviewResponse{
		ID:                  review.ID.String(),
		DealID:              review.DealID.String(),
		ReviewerID:          review.ReviewerID.String(),
		RevieweeID:          review.RevieweeID.String(),
		Rating:              review.Rating,
		RatingCommunication: review.RatingCommunication,
		RatingQuality:       review.RatingQuality,
		RatingReliability:   review.RatingReliability,
		Comment:             review.Comment,
		CreatedAt:           review.CreatedAt,
	}
}

type sellerStatsResponse struct {
	HandshakeScore      float64  `json:"handshake_score"`
	AvgRating           float64  `json:"avg_rating"`
	AvgCommunication    float64  `json:"avg_communication"`
	AvgQuality          float64  `json:"avg_quality"`
	AvgReliability      float64  `json:"avg_reliability"`
	TotalReviews        int      `json:"total_reviews"`
	TotalCompletedDeals int      `json:"total_completed_deals"`
	AvgResponseHours    *float64 `json:"avg_response_hours,omitempty"`
	CompletionRate      *float64 `json:"completion_rate,omitempty"`
	TrustTier           string   `json:"trust_tier"`
}

func toSellerStatsResponse(stats *model.SellerStats) sellerStatsResponse {
	return sellerStatsResponse{
		HandshakeScore:      stats.HandshakeScore,
		AvgRating:           stats.AvgRating,
		AvgCommunication:    stats.AvgCommunication,
		AvgQuality:          stats.AvgQuality,
		AvgReliability:      stats.AvgReliability,
		TotalReviews:        stats.TotalReviews,
		TotalCompletedDeals: stats.TotalCompletedDeals,
		AvgResponseHours:    stats.AvgResponseHours,
		CompletionRate:      stats.CompletionRate,
		TrustTier:           string(stats.Tier),
	}
}

type providerResponse struct {
	ID                  string  `json:"id"`
	DisplayName         string  `json:"display_name"`
	IsVerified          bool    `json:"is_verified"`
	HandshakeScore      float64 `json:"handshake_score"`
	AvgRating           float64 `json:"avg_rating"`
	TotalReviews        int     `json:"total_reviews"`
	TotalCompletedDeals int     `json:"total_completed_deals"`
	TrustTier           string  `json:"trust_tier"`
}
