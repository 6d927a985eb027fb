package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handshakehq/handshake-core/internal/model"
)

// DealReportGenerator renders a seller's completed deals into a document.
type DealReportGenerator interface {
	Generate(report model.DealReport) ([]byte, error)
}

type DealService struct {
	deals    DealStore
	profiles ProfileStore
	excel    DealReportGenerator
	pdf      DealReportGenerator
}

func NewDealService(deals DealStore, profiles ProfileStore, excel, pdf DealReportGenerator) *DealService {
	return &DealService{deals: deals, profiles: profiles, excel: excel, pdf: pdf}
}

func (s *DealService) GetDeal(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Deal, error) {
	deal, err := s.deals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: deal", ErrNotFound)
		}
		return nil, err
	}
	if !deal.IsParticipant(principal.UserID) {
		return nil, fmt.Errorf("%w: not a deal participant", ErrUnauthorized)
	}
	return deal, nil
}

func (s *DealService) GetDealForJob(ctx context.Context, principal model.Principal, jobRequestID uuid.UUID) (*model.Deal, error) {
	deal, err := s.deals.GetByJobRequest(ctx, jobRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: deal", ErrNotFound)
		}
		return nil, err
	}
	if !deal.IsParticipant(principal.UserID) {
		return nil, fmt.Errorf("%w: not a deal participant", ErrUnauthorized)
	}
	return deal, nil
}

type ExportDealsInput struct {
	Format      string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type ExportDealsResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportDealHistory renders the caller's completed deals for a period as a
// downloadable document. Sellers can export their own history only.
func (s *DealService) ExportDealHistory(ctx context.Context, principal model.Principal, input ExportDealsInput) (*ExportDealsResult, error) {
	if !principal.IsSeller {
		return nil, fmt.Errorf("%w: only sellers can export deal history", ErrUnauthorized)
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}
	if input.PeriodStart.After(input.PeriodEnd) {
		return nil, fmt.Errorf("%w: period_start must be before or equal to period_end", ErrInvalidInput)
	}

	profile, err := s.profiles.Get(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: profile", ErrNotFound)
		}
		return nil, err
	}

	endExclusive := input.PeriodEnd.Add(24 * time.Hour)
	deals, err := s.deals.ListCompletedForSeller(ctx, principal.UserID, input.PeriodStart, endExclusive)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, deal := range deals {
		total += deal.AgreedPrice
	}
	report := model.DealReport{
		Seller:      *profile,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		TotalEarned: total,
		Deals:       deals,
	}

	var generator DealReportGenerator
	var contentType, extension string
	switch strings.ToLower(strings.TrimSpace(input.Format)) {
	case "", "xlsx":
		generator = s.excel
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		extension = "xlsx"
	case "pdf":
		generator = s.pdf
		contentType = "application/pdf"
		extension = "pdf"
	default:
		return nil, fmt.Errorf("%w: format must be xlsx or pdf", ErrInvalidInput)
	}

	content, err := generator.Generate(report)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("deals-%s-%s.%s",
		input.PeriodStart.Format("20060102"), input.PeriodEnd.Format("20060102"), extension)
	return &ExportDealsResult{
		FileName:    fileName,
		ContentType: contentType,
		Content:     content,
	}, nil
}
