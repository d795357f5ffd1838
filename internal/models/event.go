package models

import "time"

// DateLayout and TimeLayout are the canonical formats for event scheduling
// fields. Dates and times are stored as plain strings in these layouts so
// that chronological order matches lexicographic order.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// RecurrenceWeekly is the only recurrence pattern currently materialized.
const RecurrenceWeekly = "weekly"

// Event represents a single dated entry on the church calendar. Recurring
// events are fully materialized: each occurrence is an independent row and
// the recurrence fields are descriptive metadata only.
type Event struct {
	ID                 string    `db:"id" json:"id"`
	Title              string    `db:"title" json:"title"`
	Description        string    `db:"description" json:"description"`
	Date               string    `db:"date" json:"date"`
	Time               string    `db:"time" json:"time"`
	Location           string    `db:"location" json:"location"`
	Category           string    `db:"category" json:"category"`
	IsPublished        bool      `db:"is_published" json:"is_published"`
	IsFeatured         bool      `db:"is_featured" json:"is_featured"`
	IsRecurring        bool      `db:"is_recurring" json:"is_recurring"`
	RecurrencePattern  *string   `db:"recurrence_pattern" json:"recurrence_pattern,omitempty"`
	RecurrenceInterval *int      `db:"recurrence_interval" json:"recurrence_interval,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// StartsAfter reports whether the event begins strictly after the given
// date/time pair. Same-day events starting at exactly the given time are
// treated as already started.
func (e Event) StartsAfter(date, clock string) bool {
	if e.Date != date {
		return e.Date > date
	}
	return e.Time > clock
}

// StartsBefore reports whether the event began strictly before the given
// date/time pair.
func (e Event) StartsBefore(date, clock string) bool {
	if e.Date != date {
		return e.Date < date
	}
	return e.Time < clock
}

// EventFilter narrows down event listings.
type EventFilter struct {
	IsPublished *bool
	IsFeatured  *bool
	IsRecurring *bool
	Category    string
	FromDate    string
	Page        int
	PageSize    int
}

// RecurringTemplate describes a weekly-recurring event to materialize.
type RecurringTemplate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	DayOfWeek   int    `json:"day_of_week"`
	StartDate   string `json:"start_date"`
	Interval    int    `json:"interval,omitempty"`
}

// BatchResult reports the outcome of a bulk insert.
type BatchResult struct {
	InsertedCount int      `json:"inserted_count"`
	Errors        []string `json:"errors,omitempty"`
}

// RepairResult reports the outcome of a date-repair run.
type RepairResult struct {
	CorrectedCount int      `json:"corrected_count"`
	CorrectedIDs   []string `json:"corrected_ids,omitempty"`
	FailedIDs      []string `json:"failed_ids,omitempty"`
}
