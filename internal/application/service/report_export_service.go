package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"github.com/sangkips/fixdesk-api/pkg/breaker"
)

// ReportRenderer turns a daily report into a document.
type ReportRenderer func(report *entity.DailyReport, location *entity.Location, zone *time.Location) ([]byte, error)

// ReportArchive stores rendered documents out of band.
type ReportArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ReportExportService renders Z reports as PDF and archives them.
type ReportExportService struct {
	reports   repository.DailyReportRepository
	locations repository.LocationRepository
	render    ReportRenderer
	archive   ReportArchive
	breaker   *breaker.Breaker
	zone      *time.Location
}

// NewReportExportService creates a report export service. archive may be nil
// when no object storage is configured.
func NewReportExportService(
	reports repository.DailyReportRepository,
	locations repository.LocationRepository,
	render ReportRenderer,
	archive ReportArchive,
	br *breaker.Breaker,
	zone *time.Location,
) *ReportExportService {
	return &ReportExportService{
		reports:   reports,
		locations: locations,
		render:    render,
		archive:   archive,
		breaker:   br,
		zone:      zone,
	}
}

// PDF renders the stored report of a session.
func (s *ReportExportService) PDF(ctx context.Context, sessionID uuid.UUID) ([]byte, *entity.DailyReport, error) {
	report, err := s.reports.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		return nil, nil, apperror.NewNotFoundError("Daily report")
	}
	location, err := s.locations.GetByID(ctx, report.LocationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load location: %w", err)
	}
	data, err := s.render(report, location, s.zone)
	if err != nil {
		return nil, nil, err
	}
	return data, report, nil
}

// Archive uploads the session's report PDF. It is a no-op without an archive.
func (s *ReportExportService) Archive(ctx context.Context, sessionID uuid.UUID) error {
	if s.archive == nil {
		return nil
	}
	data, report, err := s.PDF(ctx, sessionID)
	if err != nil {
		return err
	}
	key := ReportArchiveKey(report)
	return s.breaker.Execute(func() error {
		return s.archive.Put(ctx, key, data, "application/pdf")
	})
}

// ReportArchiveKey is the object key of a report, e.g. <tenant>/<location>/2024-03-15.pdf.
func ReportArchiveKey(report *entity.DailyReport) string {
	return fmt.Sprintf("%s/%s/%s.pdf", report.TenantID, report.LocationID, report.BusinessDate.Format("2006-01-02"))
}
