package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

type eventCacheInvalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// EventService manages calendar events for both the public site and the
// admin back-office.
type EventService struct {
	repo      eventRepository
	cache     eventCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service. Cache may be nil.
func NewEventService(repo eventRepository, cache eventCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EventService{repo: repo, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("eventdate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
	svc.validator.RegisterValidation("eventtime", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.TimeLayout, fl.Field().String())
		return err == nil
	})
	return svc
}

// EventListRequest describes filters for listing events.
type EventListRequest struct {
	PublishedOnly bool
	UpcomingFrom  string
	Category      string
	Page          int
	PageSize      int
}

// CreateEventRequest describes the admin create payload.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required,eventdate"`
	Time        string `json:"time" validate:"required,eventtime"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	IsPublished bool   `json:"is_published"`
	IsFeatured  bool   `json:"is_featured"`
}

// UpdateEventRequest describes the admin update payload.
type UpdateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required,eventdate"`
	Time        string `json:"time" validate:"required,eventtime"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	IsPublished bool   `json:"is_published"`
	IsFeatured  bool   `json:"is_featured"`
}

// List returns events.
func (s *EventService) List(ctx context.Context, req EventListRequest) ([]models.Event, *models.Pagination, error) {
	filter := models.EventFilter{
		Category: req.Category,
		FromDate: req.UpcomingFrom,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.PublishedOnly {
		published := true
		filter.IsPublished = &published
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get event")
	}
	return event, nil
}

// Create registers a new event.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Category:    req.Category,
		IsPublished: req.IsPublished,
		IsFeatured:  req.IsFeatured,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.invalidate(ctx)
	return event, nil
}

// Update modifies an event.
func (s *EventService) Update(ctx context.Context, id string, req UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	event.Title = req.Title
	event.Description = req.Description
	event.Date = req.Date
	event.Time = req.Time
	event.Location = req.Location
	event.Category = req.Category
	event.IsPublished = req.IsPublished
	event.IsFeatured = req.IsFeatured
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidate(ctx)
	return event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidate(ctx)
	return nil
}

func (s *EventService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, "events:"); err != nil {
		s.logger.Warn("failed to invalidate event cache", zap.Error(err))
	}
}
