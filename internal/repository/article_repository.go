package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gracechapel-dev/church-site-api/internal/models"
)

const articleColumns = `id, title, slug, body, author, published_at, created_at, updated_at`

// ArticleRepository persists articles.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository constructs an article repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// List returns articles matching filters, newest published first.
func (r *ArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error) {
	base := "FROM articles"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.PublishedOnly {
		where = append(where, "published_at IS NOT NULL AND published_at <= NOW()")
	}
	if filter.Author != "" {
		where = append(where, fmt.Sprintf("LOWER(author) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Author))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
%s WHERE %s ORDER BY published_at DESC NULLS LAST, created_at DESC LIMIT %d OFFSET %d`, articleColumns, base, whereClause, size, offset)
	var articles []models.Article
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	return articles, total, nil
}

// GetBySlug fetches an article by its slug.
func (r *ArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	query := fmt.Sprintf("SELECT %s FROM articles WHERE slug = $1", articleColumns)
	var article models.Article
	if err := r.db.GetContext(ctx, &article, query, slug); err != nil {
		return nil, err
	}
	return &article, nil
}

// GetByID fetches an article by identifier.
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := fmt.Sprintf("SELECT %s FROM articles WHERE id = $1", articleColumns)
	var article models.Article
	if err := r.db.GetContext(ctx, &article, query, id); err != nil {
		return nil, err
	}
	return &article, nil
}

// Create inserts an article.
func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now
	query := `INSERT INTO articles (id, title, slug, body, author, published_at, created_at, updated_at)
VALUES (:id, :title, :slug, :body, :author, :published_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, article); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// Update modifies an article.
func (r *ArticleRepository) Update(ctx context.Context, article *models.Article) error {
	article.UpdatedAt = time.Now().UTC()
	query := `UPDATE articles SET title = :title, slug = :slug, body = :body, author = :author,
published_at = :published_at, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, article); err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// Delete removes an article.
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}
