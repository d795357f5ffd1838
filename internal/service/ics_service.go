package service

import (
	"context"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
)

const defaultEventDuration = time.Hour

type icsEventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
}

// ICSService renders published events as an iCalendar feed so visitors can
// subscribe from their own calendar apps.
type ICSService struct {
	events       icsEventRepository
	calendarName string
	logger       *zap.Logger
}

// NewICSService constructs the service.
func NewICSService(events icsEventRepository, calendarName string, logger *zap.Logger) *ICSService {
	if calendarName == "" {
		calendarName = "Church Events"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ICSService{events: events, calendarName: calendarName, logger: logger}
}

// Feed serializes all published events into an ICS document. Events with
// unparseable date/time fields are skipped rather than failing the feed.
func (s *ICSService) Feed(ctx context.Context) (string, error) {
	published := true
	events, _, err := s.events.List(ctx, models.EventFilter{IsPublished: &published, Page: 1, PageSize: 500})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events for feed")
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//gracechapel-dev//church-site-api//EN")
	cal.SetXWRCalName(s.calendarName)

	now := time.Now().UTC()
	for _, e := range events {
		start, err := time.Parse(models.DateLayout+" "+models.TimeLayout, e.Date+" "+e.Time)
		if err != nil {
			s.logger.Warn("skipping event with invalid schedule",
				zap.String("event_id", e.ID),
				zap.String("date", e.Date),
				zap.String("time", e.Time),
				zap.Error(err))
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("%s@gracechapel-dev", e.ID))
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(defaultEventDuration))
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
	}

	return cal.Serialize(), nil
}
