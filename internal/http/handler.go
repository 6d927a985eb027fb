package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/handshakehq/handshake-core/internal/http/middleware"
	"github.com/handshakehq/handshake-core/internal/model"
	"github.com/handshakehq/handshake-core/internal/realtime"
	"github.com/handshakehq/handshake-core/internal/service"
)

type Handler struct {
	negotiations *service.NegotiationService
	offers       *service.OfferService
	deals        *service.DealService
	reviews      *service.ReviewService
	trust        *service.TrustService
	reports      *service.ReportService
	hub          *realtime.Hub
	log          zerolog.Logger
}

func NewHandler(
	negotiations *service.NegotiationService,
	offers *service.OfferService,
	deals *service.DealService,
	reviews *service.ReviewService,
	trust *service.TrustService,
	reports *service.ReportService,
	hub *realtime.Hub,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		negotiations: negotiations,
		offers:       offers,
		deals:        deals,
		reviews:      reviews,
		trust:        trust,
		reports:      reports,
		hub:          hub,
		log:          log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/job-requests", h.createJobRequest)
	protected.GET("/job-requests", h.listJobRequests)
	protected.GET("/job-requests/:id", h.getJobRequest)
	protected.GET("/job-requests/:id/actions", h.listActions)
	protected.POST("/job-requests/:id/transition", h.transition)
	protected.GET("/job-requests/:id/messages", h.listMessages)
	protected.POST("/job-requests/:id/messages", h.sendMessage)
	protected.POST("/job-requests/:id/messages/read", h.markMessagesRead)
	protected.GET("/job-requests/:id/offers", h.listOffers)
	protected.POST("/job-requests/:id/offers", h.createOffer)
	protected.GET("/job-requests/:id/deal", h.getDealForJob)
	protected.GET("/job-requests/:id/ws", h.jobRequestWS)

	protected.POST("/offers/:id/accept", h.acceptOffer)
	protected.POST("/offers/:id/decline", h.declineOffer)

	protected.GET("/deals/:id", h.getDeal)
	protected.POST("/deals/:id/reviews", h.submitReview)
	protected.POST("/deals/export", h.exportDeals)

	protected.GET("/sellers/:id/stats", h.getSellerStats)
	protected.GET("/sellers/:id/reviews", h.listSellerReviews)
	protected.GET("/providers/featured", h.listFeaturedProviders)

	protected.POST("/reports", h.submitReport)
}

type createJobRequestRequest struct {
	ListingID     string   `json:"listing_id" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	BudgetMin     *float64 `json:"budget_min"`
	BudgetMax     *float64 `json:"budget_max"`
	PreferredTime *string  `json:"preferred_time"`
	Location      *string  `json:"location"`
}

func (h *Handler) createJobRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createJobRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listingID, err := uuid.Parse(strings.TrimSpace(req.ListingID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing_id"})
		return
	}

	input := service.CreateJobRequestInput{
		ListingID:   listingID,
		Description: req.Description,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Location:    req.Location,
	}
	if req.PreferredTime != nil {
		parsed, err := parseTimestamp(*req.PreferredTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferred_time"})
			return
		}
		input.PreferredTime = &parsed
	}

	job, err := h.negotiations.CreateJobRequest(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toJobRequestResponse(job))
}

func (h *Handler) listJobRequests(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	jobs, err := h.negotiations.ListJobRequests(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]jobRequestResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobRequestResponse(&jobs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"job_requests": out})
}

func (h *Handler) getJobRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	job, err := h.negotiations.GetJobRequest(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobRequestResponse(job))
}

func (h *Handler) listActions(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	rules, err := h.negotiations.AvailableActions(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": toActionResponses(rules)})
}

type transitionRequest struct {
	Target string `json:"target" binding:"required"`
}

func (h *Handler) transition(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.negotiations.Transition(c.Request.Context(), principal, id, model.JobStatus(req.Target))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobRequestResponse(job))
}

func (h *Handler) listMessages(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	messages, err := h.negotiations.ListMessages(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]messageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toMessageResponse(&messages[i]))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.negotiations.SendMessage(c.Request.Context(), principal, service.SendMessageInput{
		JobRequestID: id,
		Content:      req.Content,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func (h *Handler) markMessagesRead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.negotiations.MarkMessagesRead(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listOffers(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	offers, err := h.offers.ListOffers(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]offerResponse, 0, len(offers))
	for i := range offers {
		out = append(out, toOfferResponse(&offers[i]))
	}
	c.JSON(http.StatusOK, gin.H{"offers": out})
}

type createOfferRequest struct {
	Price             float64 `json:"price" binding:"required"`
	PricingType       string  `json:"pricing_type" binding:"required"`
	EstimatedDuration *string `json:"estimated_duration"`
	ScopeDescription  string  `json:"scope_description" binding:"required"`
	ValidUntil        *string `json:"valid_until"`
}

func (h *Handler) createOffer(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req createOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.CreateOfferInput{
		JobRequestID:      id,
		Price:             req.Price,
		PricingType:       model.PricingType(req.PricingType),
		EstimatedDuration: req.EstimatedDuration,
		ScopeDescription:  req.ScopeDescription,
	}
	if req.ValidUntil != nil {
		parsed, err := parseTimestamp(*req.ValidUntil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_until"})
			return
		}
		input.ValidUntil = &parsed
	}

	offer, err := h.offers.CreateOffer(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOfferResponse(offer))
}

func (h *Handler) acceptOffer(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	deal, err := h.offers.AcceptOffer(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDealResponse(deal))
}

func (h *Handler) declineOffer(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.offers.DeclineOffer(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getDeal(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	deal, err := h.deals.GetDeal(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDealResponse(deal))
}

func (h *Handler) getDealForJob(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	deal, err := h.deals.GetDealForJob(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDealResponse(deal))
}

type submitReviewRequest struct {
	Rating              int     `json:"rating" binding:"required"`
	RatingCommunication *int    `json:"rating_communication"`
	RatingQuality       *int    `json:"rating_quality"`
	RatingReliability   *int    `json:"rating_reliability"`
	Comment             *string `json:"comment"`
}

func (h *Handler) submitReview(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviews.SubmitReview(c.Request.Context(), principal, service.SubmitReviewInput{
		DealID:              id,
		Rating:              req.Rating,
		RatingCommunication: req.RatingCommunication,
		RatingQuality:       req.RatingQuality,
		RatingReliability:   req.RatingReliability,
		Comment:             req.Comment,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReviewResponse(review))
}

type exportDealsRequest struct {
	Format      string `json:"format"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func (h *Handler) exportDeals(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req exportDealsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	result, err := h.deals.ExportDealHistory(c.Request.Context(), principal, service.ExportDealsInput{
		Format:      req.Format,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) getSellerStats(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	stats, err := h.trust.GetSellerStats(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSellerStatsResponse(stats))
}

func (h *Handler) listSellerReviews(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	reviews, err := h.reviews.ListForSeller(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]reviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}
	c.JSON(http.StatusOK, gin.H{"reviews": out})
}

func (h *Handler) listFeaturedProviders(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "6"))
	providers, err := h.trust.ListFeaturedProviders(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]providerResponse, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerResponse{
			ID:                  p.ID.String(),
			DisplayName:         p.DisplayName,
			IsVerified:          p.IsVerified,
			HandshakeScore:      p.TrustStats.HandshakeScore,
			AvgRating:           p.TrustStats.AvgRating,
			TotalReviews:        p.TrustStats.TotalReviews,
			TotalCompletedDeals: p.TrustStats.TotalCompletedDeals,
			TrustTier:           string(service.TierFor(p.TrustStats.HandshakeScore, p.TrustStats.TotalCompletedDeals)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

type submitReportRequest struct {
	ReportedUserID    *string `json:"reported_user_id"`
	ReportedListingID *string `json:"reported_listing_id"`
	Reason            string  `json:"reason" binding:"required"`
	Description       *string `json:"description"`
}

func (h *Handler) submitReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req submitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := &model.Report{
		Reason:      req.Reason,
		Description: req.Description,
	}
	if req.ReportedUserID != nil {
		parsed, err := uuid.Parse(*req.ReportedUserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reported_user_id"})
			return
		}
		report.ReportedUserID = &parsed
	}
	if req.ReportedListingID != nil {
		parsed, err := uuid.Parse(*req.ReportedListingID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reported_listing_id"})
			return
		}
		report.ReportedListingID = &parsed
	}

	created, err := h.reports.SubmitReport(c.Request.Context(), principal, report)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": created.ID.String(), "status": created.Status})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Param("id")))
}

func parseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(raw))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid date")
}
