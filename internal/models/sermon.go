package models

import "time"

// Sermon represents a recorded or upcoming sermon entry.
type Sermon struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Speaker     string    `db:"speaker" json:"speaker"`
	Scripture   string    `db:"scripture" json:"scripture"`
	Date        string    `db:"date" json:"date"`
	VideoURL    *string   `db:"video_url" json:"video_url,omitempty"`
	AudioURL    *string   `db:"audio_url" json:"audio_url,omitempty"`
	Notes       string    `db:"notes" json:"notes"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SermonFilter narrows down sermon listings.
type SermonFilter struct {
	IsPublished *bool
	Speaker     string
	Page        int
	PageSize    int
}
