package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/handshakehq/handshake-core/internal/model"
)

type ReportService struct {
	reports ReportStore
}

func NewReportService(reports ReportStore) *ReportService {
	return &ReportService{reports: reports}
}

// SubmitReport records a complaint for moderators. No adjudication happens
// here; the report lands with status open.
func (s *ReportService) SubmitReport(ctx context.Context, principal model.Principal, report *model.Report) (*model.Report, error) {
	if len(strings.TrimSpace(report.Reason)) < 3 {
		return nil, fmt.Errorf("%w: please provide a reason", ErrInvalidInput)
	}
	if report.ReportedUserID == nil && report.ReportedListingID == nil {
		return nil, fmt.Errorf("%w: report must target a user or a listing", ErrInvalidInput)
	}
	report.ReporterID = principal.UserID
	if err := s.reports.Insert(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}
