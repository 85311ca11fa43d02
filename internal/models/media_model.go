package models

import (
	"database/sql"
	"time"
)

type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

type MediaAsset struct {
	ID          int64          `db:"id"`
	UserID      int64          `db:"user_id"`
	PostID      sql.NullInt64  `db:"post_id"`
	FileName    string         `db:"file_name"`
	StorageKey  string         `db:"storage_key"`
	URL         string         `db:"url"`
	MimeType    string         `db:"mime_type"`
	Size        int64          `db:"size"`
	Type        MediaType      `db:"type"`
	Title       sql.NullString `db:"title"`
	Description sql.NullString `db:"description"`
	UploadedAt  time.Time      `db:"uploaded_at"`
}
