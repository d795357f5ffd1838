package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
	appErrors "github.com/gracechapel-dev/church-site-api/pkg/errors"
)

type articleRepository interface {
	List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
}

// ArticleService manages news and teaching articles.
type ArticleService struct {
	repo      articleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewArticleService constructs the service.
func NewArticleService(repo articleRepository, validate *validator.Validate, logger *zap.Logger) *ArticleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleService{repo: repo, validator: validate, logger: logger}
}

// ArticleListRequest describes filters for listing articles.
type ArticleListRequest struct {
	PublishedOnly bool
	Author        string
	Page          int
	PageSize      int
}

// ArticleRequest describes create/update payloads.
type ArticleRequest struct {
	Title   string `json:"title" validate:"required"`
	Body    string `json:"body" validate:"required"`
	Author  string `json:"author" validate:"required"`
	Publish bool   `json:"publish"`
}

// List returns articles.
func (s *ArticleService) List(ctx context.Context, req ArticleListRequest) ([]models.Article, *models.Pagination, error) {
	filter := models.ArticleFilter{
		PublishedOnly: req.PublishedOnly,
		Author:        req.Author,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	articles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list articles")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return articles, pagination, nil
}

// GetBySlug returns a published article by slug.
func (s *ArticleService) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get article")
	}
	return article, nil
}

// Get returns an article by id.
func (s *ArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get article")
	}
	return article, nil
}

// Create registers a new article. The slug is derived from the title.
func (s *ArticleService) Create(ctx context.Context, req ArticleRequest) (*models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	article := &models.Article{
		Title:  req.Title,
		Slug:   slugify(req.Title),
		Body:   req.Body,
		Author: req.Author,
	}
	if req.Publish {
		now := time.Now().UTC()
		article.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create article")
	}
	return article, nil
}

// Update modifies an article. The slug stays stable across title edits so
// published links keep working.
func (s *ArticleService) Update(ctx context.Context, id string, req ArticleRequest) (*models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}
	article.Title = req.Title
	article.Body = req.Body
	article.Author = req.Author
	if req.Publish && article.PublishedAt == nil {
		now := time.Now().UTC()
		article.PublishedAt = &now
	}
	if !req.Publish {
		article.PublishedAt = nil
	}
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update article")
	}
	return article, nil
}

// Delete removes an article.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete article")
	}
	return nil
}

func slugify(title string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
