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

const sermonColumns = `id, title, speaker, scripture, date, video_url, audio_url, notes, is_published, created_at, updated_at`

// SermonRepository persists sermons.
type SermonRepository struct {
	db *sqlx.DB
}

// NewSermonRepository constructs a sermon repository.
func NewSermonRepository(db *sqlx.DB) *SermonRepository {
	return &SermonRepository{db: db}
}

// List returns sermons matching filters, newest first.
func (r *SermonRepository) List(ctx context.Context, filter models.SermonFilter) ([]models.Sermon, int, error) {
	base := "FROM sermons"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.IsPublished != nil {
		where = append(where, fmt.Sprintf("is_published = $%d", len(args)+1))
		args = append(args, *filter.IsPublished)
	}
	if filter.Speaker != "" {
		where = append(where, fmt.Sprintf("LOWER(speaker) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Speaker))
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
%s WHERE %s ORDER BY date DESC LIMIT %d OFFSET %d`, sermonColumns, base, whereClause, size, offset)
	var sermons []models.Sermon
	if err := r.db.SelectContext(ctx, &sermons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sermons: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sermons: %w", err)
	}
	return sermons, total, nil
}

// GetByID fetches a sermon.
func (r *SermonRepository) GetByID(ctx context.Context, id string) (*models.Sermon, error) {
	query := fmt.Sprintf("SELECT %s FROM sermons WHERE id = $1", sermonColumns)
	var sermon models.Sermon
	if err := r.db.GetContext(ctx, &sermon, query, id); err != nil {
		return nil, err
	}
	return &sermon, nil
}

// Create inserts a sermon.
func (r *SermonRepository) Create(ctx context.Context, sermon *models.Sermon) error {
	if sermon.ID == "" {
		sermon.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sermon.CreatedAt.IsZero() {
		sermon.CreatedAt = now
	}
	sermon.UpdatedAt = now
	query := `INSERT INTO sermons (id, title, speaker, scripture, date, video_url, audio_url, notes, is_published, created_at, updated_at)
VALUES (:id, :title, :speaker, :scripture, :date, :video_url, :audio_url, :notes, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sermon); err != nil {
		return fmt.Errorf("create sermon: %w", err)
	}
	return nil
}

// Update modifies a sermon.
func (r *SermonRepository) Update(ctx context.Context, sermon *models.Sermon) error {
	sermon.UpdatedAt = time.Now().UTC()
	query := `UPDATE sermons SET title = :title, speaker = :speaker, scripture = :scripture, date = :date,
video_url = :video_url, audio_url = :audio_url, notes = :notes, is_published = :is_published, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, sermon); err != nil {
		return fmt.Errorf("update sermon: %w", err)
	}
	return nil
}

// Delete removes a sermon.
func (r *SermonRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sermons WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete sermon: %w", err)
	}
	return nil
}
