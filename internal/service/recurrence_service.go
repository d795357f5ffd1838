package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
)

type recurrenceEventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	InsertBatch(ctx context.Context, events []models.Event) error
	UpdateDate(ctx context.Context, id string, date string) error
}

// RecurrenceService materializes weekly event templates and repairs
// occurrences whose stored date drifted off the expected weekday.
type RecurrenceService struct {
	repo           recurrenceEventRepository
	batchSize      int
	defaultHorizon time.Duration
	logger         *zap.Logger
}

// NewRecurrenceService constructs the service. The default horizon bounds
// generation when the caller does not provide an explicit end date.
func NewRecurrenceService(repo recurrenceEventRepository, batchSize int, defaultHorizon time.Duration, logger *zap.Logger) *RecurrenceService {
	if batchSize <= 0 {
		batchSize = 50
	}
	if defaultHorizon <= 0 {
		defaultHorizon = 26 * 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecurrenceService{repo: repo, batchSize: batchSize, defaultHorizon: defaultHorizon, logger: logger}
}

// ExpandWeekly materializes occurrences of a weekly template. The cursor
// starts at the template start date and advances one day at a time until it
// lands on the template weekday, then steps a whole number of weeks per
// occurrence. The horizon end date itself is excluded.
func ExpandWeekly(tmpl models.RecurringTemplate, horizonEnd string) ([]models.Event, error) {
	if tmpl.DayOfWeek < 0 || tmpl.DayOfWeek > 6 {
		return nil, fmt.Errorf("day_of_week must be in 0..6, got %d", tmpl.DayOfWeek)
	}
	start, err := time.Parse(models.DateLayout, tmpl.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parse start_date: %w", err)
	}
	end, err := time.Parse(models.DateLayout, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("parse horizon end: %w", err)
	}
	if _, err := time.Parse(models.TimeLayout, tmpl.Time); err != nil {
		return nil, fmt.Errorf("parse time: %w", err)
	}

	interval := tmpl.Interval
	if interval <= 0 {
		interval = 1
	}

	cursor := start
	for cursor.Weekday() != time.Weekday(tmpl.DayOfWeek) {
		cursor = cursor.AddDate(0, 0, 1)
	}

	pattern := models.RecurrenceWeekly
	var events []models.Event
	for cursor.Before(end) {
		weeks := interval
		events = append(events, models.Event{
			Title:              tmpl.Title,
			Description:        tmpl.Description,
			Date:               cursor.Format(models.DateLayout),
			Time:               tmpl.Time,
			Location:           tmpl.Location,
			Category:           tmpl.Category,
			IsPublished:        true,
			IsRecurring:        true,
			RecurrencePattern:  &pattern,
			RecurrenceInterval: &weeks,
		})
		cursor = cursor.AddDate(0, 0, 7*interval)
	}
	return events, nil
}

// Generate expands the template and inserts the occurrences in bounded
// batches. An empty horizon end falls back to the configured default horizon
// from now. A failed batch is logged and skipped; remaining batches still
// run. There is no retry.
func (s *RecurrenceService) Generate(ctx context.Context, tmpl models.RecurringTemplate, horizonEnd string) (*models.BatchResult, error) {
	if strings.TrimSpace(tmpl.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if strings.TrimSpace(horizonEnd) == "" {
		horizonEnd = time.Now().Add(s.defaultHorizon).Format(models.DateLayout)
	}
	events, err := ExpandWeekly(tmpl, horizonEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurring template")
	}

	result := &models.BatchResult{}
	for offset := 0; offset < len(events); offset += s.batchSize {
		limit := offset + s.batchSize
		if limit > len(events) {
			limit = len(events)
		}
		batch := events[offset:limit]
		if err := s.repo.InsertBatch(ctx, batch); err != nil {
			s.logger.Error("event batch insert failed",
				zap.Int("offset", offset),
				zap.Int("size", len(batch)),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("batch at offset %d: %v", offset, err))
			continue
		}
		result.InsertedCount += len(batch)
	}
	s.logger.Info("recurring events generated",
		zap.String("title", tmpl.Title),
		zap.Int("inserted", result.InsertedCount),
		zap.Int("failed_batches", len(result.Errors)))
	return result, nil
}

// dayNames is scanned in Sunday..Saturday order; the first day name found in
// the title wins. Titles with several day names therefore resolve to the
// earliest in scan order, and non-English titles never match.
var dayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// InferWeekday derives the expected weekday from a literal English day name
// in the title. The second return is false when no day name is present.
func InferWeekday(title string) (time.Weekday, bool) {
	lowered := strings.ToLower(title)
	for i, name := range dayNames {
		if strings.Contains(lowered, name) {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// RepairDates scans recurring events and corrects any whose stored date does
// not fall on the weekday implied by their title. Each update is applied
// individually; failures are logged and skipped.
func (s *RecurrenceService) RepairDates(ctx context.Context) (*models.RepairResult, error) {
	recurring := true
	events, _, err := s.repo.List(ctx, models.EventFilter{IsRecurring: &recurring})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recurring events")
	}

	result := &models.RepairResult{}
	for _, event := range events {
		expected, ok := InferWeekday(event.Title)
		if !ok {
			continue
		}
		date, err := time.Parse(models.DateLayout, event.Date)
		if err != nil {
			s.logger.Warn("skipping event with unparseable date",
				zap.String("event_id", event.ID),
				zap.String("date", event.Date))
			continue
		}
		if date.Weekday() == expected {
			continue
		}
		delta := int(expected) - int(date.Weekday())
		corrected := date.AddDate(0, 0, delta).Format(models.DateLayout)
		if err := s.repo.UpdateDate(ctx, event.ID, corrected); err != nil {
			s.logger.Error("failed to correct event date",
				zap.String("event_id", event.ID),
				zap.String("corrected_date", corrected),
				zap.Error(err))
			result.FailedIDs = append(result.FailedIDs, event.ID)
			continue
		}
		s.logger.Info("corrected recurring event date",
			zap.String("event_id", event.ID),
			zap.String("title", event.Title),
			zap.String("old_date", event.Date),
			zap.String("new_date", corrected))
		result.CorrectedCount++
		result.CorrectedIDs = append(result.CorrectedIDs, event.ID)
	}
	return result, nil
}
