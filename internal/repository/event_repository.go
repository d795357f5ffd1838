package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gracechapel-dev/church-site-api/internal/models"
)

const eventColumns = `id, title, description, date, time, location, category, is_published, is_featured, is_recurring, recurrence_pattern, recurrence_interval, created_at, updated_at`

// QueryObserver receives the duration of each executed query.
type QueryObserver interface {
	ObserveDBQuery(name string, duration time.Duration)
}

// EventRepository persists calendar events.
type EventRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewEventRepository constructs an event repository. Metrics may be nil.
func NewEventRepository(db *sqlx.DB, metrics QueryObserver) *EventRepository {
	return &EventRepository{db: db, metrics: metrics}
}

func (r *EventRepository) observe(name string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(name, time.Since(start))
	}
}

// List returns events matching filters ordered by date then time.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	defer r.observe("events_list", time.Now())
	base := "FROM events"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.IsPublished != nil {
		where = append(where, fmt.Sprintf("is_published = $%d", len(args)+1))
		args = append(args, *filter.IsPublished)
	}
	if filter.IsFeatured != nil {
		where = append(where, fmt.Sprintf("is_featured = $%d", len(args)+1))
		args = append(args, *filter.IsFeatured)
	}
	if filter.IsRecurring != nil {
		where = append(where, fmt.Sprintf("is_recurring = $%d", len(args)+1))
		args = append(args, *filter.IsRecurring)
	}
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.FromDate != "" {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, filter.FromDate)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
%s WHERE %s ORDER BY date ASC, time ASC LIMIT %d OFFSET %d`, eventColumns, base, whereClause, size, offset)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// GetByID fetches an event.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	defer r.observe("events_get", time.Now())
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a single event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	defer r.observe("events_create", time.Now())
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	query := `INSERT INTO events (id, title, description, date, time, location, category, is_published, is_featured, is_recurring, recurrence_pattern, recurrence_interval, created_at, updated_at)
VALUES (:id, :title, :description, :date, :time, :location, :category, :is_published, :is_featured, :is_recurring, :recurrence_pattern, :recurrence_interval, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// InsertBatch inserts a slice of events in one statement. Callers are
// expected to chunk the slice to keep statements bounded.
func (r *EventRepository) InsertBatch(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	defer r.observe("events_insert_batch", time.Now())
	now := time.Now().UTC()
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
		if events[i].CreatedAt.IsZero() {
			events[i].CreatedAt = now
		}
		events[i].UpdatedAt = now
	}
	query := `INSERT INTO events (id, title, description, date, time, location, category, is_published, is_featured, is_recurring, recurrence_pattern, recurrence_interval, created_at, updated_at)
VALUES (:id, :title, :description, :date, :time, :location, :category, :is_published, :is_featured, :is_recurring, :recurrence_pattern, :recurrence_interval, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, events); err != nil {
		return fmt.Errorf("insert event batch: %w", err)
	}
	return nil
}

// Update modifies an event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	defer r.observe("events_update", time.Now())
	event.UpdatedAt = time.Now().UTC()
	query := `UPDATE events SET title = :title, description = :description, date = :date, time = :time,
location = :location, category = :category, is_published = :is_published, is_featured = :is_featured,
is_recurring = :is_recurring, recurrence_pattern = :recurrence_pattern, recurrence_interval = :recurrence_interval, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// UpdateDate corrects only the date column of an event.
func (r *EventRepository) UpdateDate(ctx context.Context, id string, date string) error {
	defer r.observe("events_update_date", time.Now())
	const query = `UPDATE events SET date = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, date, time.Now().UTC()); err != nil {
		return fmt.Errorf("update event date: %w", err)
	}
	return nil
}

// ClearFeatured unsets the featured flag on the given events.
func (r *EventRepository) ClearFeatured(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	defer r.observe("events_clear_featured", time.Now())
	const query = `UPDATE events SET is_featured = FALSE, updated_at = $2 WHERE id = ANY($1)`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids), time.Now().UTC()); err != nil {
		return fmt.Errorf("clear featured flags: %w", err)
	}
	return nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	defer r.observe("events_delete", time.Now())
	if _, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
