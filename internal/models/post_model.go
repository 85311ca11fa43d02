package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

type Post struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"userId"`
	Content     string          `db:"content" json:"content"`
	Convo       json.RawMessage `db:"convo" json:"convo"`
	Socials     []string        `db:"socials" json:"socials"`
	ScheduledAt sql.NullTime    `db:"scheduled_at" json:"-"`
	IsPosted    bool            `db:"is_posted" json:"isPosted"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// PostSummary is the slice of a post embedded in a media asset lookup.
type PostSummary struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	PostStatusScheduled = "scheduled"
	PostStatusPosted    = "posted"
	PostStatusDraft     = "draft"
)

const DefaultSocial = "linkedin"
