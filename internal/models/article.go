package models

import "time"

// Article represents a news or teaching article. A nil PublishedAt marks a
// draft that is hidden from public listings.
type Article struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Slug        string     `db:"slug" json:"slug"`
	Body        string     `db:"body" json:"body"`
	Author      string     `db:"author" json:"author"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ArticleFilter narrows down article listings.
type ArticleFilter struct {
	PublishedOnly bool
	Author        string
	Page          int
	PageSize      int
}
