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

type sermonRepository interface {
	List(ctx context.Context, filter models.SermonFilter) ([]models.Sermon, int, error)
	GetByID(ctx context.Context, id string) (*models.Sermon, error)
	Create(ctx context.Context, sermon *models.Sermon) error
	Update(ctx context.Context, sermon *models.Sermon) error
	Delete(ctx context.Context, id string) error
}

// SermonService manages the sermon archive.
type SermonService struct {
	repo      sermonRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSermonService constructs the service.
func NewSermonService(repo sermonRepository, validate *validator.Validate, logger *zap.Logger) *SermonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validate.RegisterValidation("eventdate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
	return &SermonService{repo: repo, validator: validate, logger: logger}
}

// SermonListRequest describes filters for listing sermons.
type SermonListRequest struct {
	PublishedOnly bool
	Speaker       string
	Page          int
	PageSize      int
}

// SermonRequest describes create/update payloads.
type SermonRequest struct {
	Title       string  `json:"title" validate:"required"`
	Speaker     string  `json:"speaker" validate:"required"`
	Scripture   string  `json:"scripture"`
	Date        string  `json:"date" validate:"required,eventdate"`
	VideoURL    *string `json:"video_url"`
	AudioURL    *string `json:"audio_url"`
	Notes       string  `json:"notes"`
	IsPublished bool    `json:"is_published"`
}

// List returns sermons.
func (s *SermonService) List(ctx context.Context, req SermonListRequest) ([]models.Sermon, *models.Pagination, error) {
	filter := models.SermonFilter{
		Speaker:  req.Speaker,
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
		filter.PageSize = 20
	}
	sermons, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sermons")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return sermons, pagination, nil
}

// Get returns a sermon by id.
func (s *SermonService) Get(ctx context.Context, id string) (*models.Sermon, error) {
	sermon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sermon not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get sermon")
	}
	return sermon, nil
}

// Create registers a new sermon.
func (s *SermonService) Create(ctx context.Context, req SermonRequest) (*models.Sermon, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	sermon := &models.Sermon{
		Title:       req.Title,
		Speaker:     req.Speaker,
		Scripture:   req.Scripture,
		Date:        req.Date,
		VideoURL:    req.VideoURL,
		AudioURL:    req.AudioURL,
		Notes:       req.Notes,
		IsPublished: req.IsPublished,
	}
	if err := s.repo.Create(ctx, sermon); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sermon")
	}
	return sermon, nil
}

// Update modifies a sermon.
func (s *SermonService) Update(ctx context.Context, id string, req SermonRequest) (*models.Sermon, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	sermon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sermon not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sermon")
	}
	sermon.Title = req.Title
	sermon.Speaker = req.Speaker
	sermon.Scripture = req.Scripture
	sermon.Date = req.Date
	sermon.VideoURL = req.VideoURL
	sermon.AudioURL = req.AudioURL
	sermon.Notes = req.Notes
	sermon.IsPublished = req.IsPublished
	if err := s.repo.Update(ctx, sermon); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sermon")
	}
	return sermon, nil
}

// Delete removes a sermon.
func (s *SermonService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sermon")
	}
	return nil
}
