package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
	"github.com/gracechapel-dev/church-site-api/pkg/export"
)

// ExportFormat enumerates supported roster output formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportEventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the event roster as downloadable files for the
// back-office.
type ExportService struct {
	events exportEventRepository
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(events exportEventRepository, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{events: events, csv: csv, pdf: pdf, logger: logger}
}

// ExportFile holds a rendered export payload.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EventRoster renders every event, drafts included, in the requested format.
func (s *ExportService) EventRoster(ctx context.Context, format ExportFormat) (*ExportFile, error) {
	events, _, err := s.events.List(ctx, models.EventFilter{Page: 1, PageSize: 500})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events for export")
	}

	dataset := buildEventDataset(events)
	title := "Event Roster"

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("events_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	return &ExportFile{Filename: filename, ContentType: contentType, Data: payload}, nil
}

func buildEventDataset(events []models.Event) export.Dataset {
	headers := []string{"Date", "Time", "Title", "Location", "Category", "Published", "Featured", "Recurring"}
	rows := make([]map[string]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, map[string]string{
			"Date":      e.Date,
			"Time":      e.Time,
			"Title":     e.Title,
			"Location":  e.Location,
			"Category":  e.Category,
			"Published": formatBool(e.IsPublished),
			"Featured":  formatBool(e.IsFeatured),
			"Recurring": formatBool(e.IsRecurring),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func formatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// ParseExportFormat normalizes a query-string format value.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return ExportFormatCSV, nil
	case "pdf":
		return ExportFormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported format %q", raw)
	}
}
