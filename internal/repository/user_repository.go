package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/rs/zerolog/log"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	SetLinkedInTokens(ctx context.Context, userID int64, tokens models.LinkedInTokens) (bool, error)
	ClearLinkedInTokens(ctx context.Context, userID int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, linkedin_access_token, linkedin_refresh_token,
	linkedin_token_expiry, linkedin_connected, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.LinkedInAccessToken,
		&u.LinkedInRefreshToken,
		&u.LinkedInTokenExpiry,
		&u.LinkedInConnected,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if !IsUniqueViolation(err) {
			log.Error().Err(err).Msg("failed to insert user")
		}
		return 0, err
	}
	return user.ID, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		log.Error().Err(err).Int64("user_id", id).Msg("failed to load user")
		return nil, false, err
	}
	return user, true, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = $1"
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		log.Error().Err(err).Msg("failed to load user by email")
		return nil, false, err
	}
	return user, true, nil
}

func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)"

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&exists); err != nil {
		log.Error().Err(err).Msg("failed to check user uniqueness")
		return false, err
	}
	return exists, nil
}

func (r *userRepository) SetLinkedInTokens(ctx context.Context, userID int64, tokens models.LinkedInTokens) (bool, error) {
	query := `
		UPDATE users
		SET linkedin_access_token = $1,
			linkedin_refresh_token = $2,
			linkedin_token_expiry = $3,
			linkedin_connected = true,
			updated_at = now()
		WHERE id = $4
	`
	refresh := sql.NullString{String: tokens.RefreshToken, Valid: tokens.RefreshToken != ""}

	res, err := r.db.ExecContext(ctx, query, tokens.AccessToken, refresh, tokens.ExpiresAt, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to store linkedin tokens")
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *userRepository) ClearLinkedInTokens(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET linkedin_access_token = NULL,
			linkedin_refresh_token = NULL,
			linkedin_token_expiry = NULL,
			linkedin_connected = false,
			updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to clear linkedin tokens")
		return err
	}
	return nil
}
