package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID                   int64          `db:"id" json:"id"`
	Username             string         `db:"username" json:"username"`
	Email                string         `db:"email" json:"email"`
	PasswordHash         string         `db:"password_hash" json:"-"`
	LinkedInAccessToken  sql.NullString `db:"linkedin_access_token" json:"-"`
	LinkedInRefreshToken sql.NullString `db:"linkedin_refresh_token" json:"-"`
	LinkedInTokenExpiry  sql.NullTime   `db:"linkedin_token_expiry" json:"-"`
	LinkedInConnected    bool           `db:"linkedin_connected" json:"linkedin_connected"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// LinkedInTokens is the sealed token set persisted after a successful connect.
type LinkedInTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
