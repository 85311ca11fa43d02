package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/rs/zerolog/log"
)

type PostRepository interface {
	CreateWithMedia(ctx context.Context, post *models.Post, mediaIDs []int64) error
	GetForUser(ctx context.Context, id, userID int64) (*models.Post, error)
	ListByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post, mediaIDs *[]int64) error
	DeleteForUser(ctx context.Context, id, userID int64) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, content, convo, socials, scheduled_at, is_posted, created_at, updated_at`

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p     models.Post
		convo []byte
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Content,
		&convo,
		pq.Array(&p.Socials),
		&p.ScheduledAt,
		&p.IsPosted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(convo) > 0 {
		p.Convo = json.RawMessage(convo)
	}
	return &p, nil
}

// jsonbParam converts raw JSON into a value lib/pq sends as text. Absent or
// null JSON is stored as SQL NULL.
func jsonbParam(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

// statusFilter maps a post status onto a WHERE fragment. Unknown values
// match every post.
func statusFilter(status string) string {
	switch status {
	case models.PostStatusPosted:
		return " AND is_posted = true"
	case models.PostStatusDraft:
		return " AND is_posted = false AND scheduled_at IS NULL"
	case models.PostStatusScheduled:
		return " AND is_posted = false AND scheduled_at IS NOT NULL"
	default:
		return ""
	}
}

// linkMedia points every id at postID, requiring each one to belong to userID.
func linkMedia(ctx context.Context, tx *sql.Tx, postID, userID int64, mediaIDs []int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE media_assets SET post_id = $1 WHERE user_id = $2 AND id = ANY($3)`,
		postID, userID, pq.Array(mediaIDs),
	)
	if err != nil {
		log.Error().Err(err).Int64("post_id", postID).Msg("failed to link media")
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(mediaIDs)) {
		return ErrMediaMismatch
	}
	return nil
}

// CreateWithMedia inserts the post and links mediaIDs to it in one
// transaction. Nothing is written when any id is not owned by the post's user.
func (r *postRepository) CreateWithMedia(ctx context.Context, post *models.Post, mediaIDs []int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin post transaction")
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
		INSERT INTO posts (user_id, content, convo, socials, scheduled_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_posted, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		post.UserID,
		post.Content,
		jsonbParam(post.Convo),
		pq.Array(post.Socials),
		post.ScheduledAt,
	).Scan(&post.ID, &post.IsPosted, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Msg("failed to insert post")
		return err
	}

	if len(mediaIDs) > 0 {
		if err = linkMedia(ctx, tx, post.ID, post.UserID, mediaIDs); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit post transaction")
		return err
	}
	return nil
}

func (r *postRepository) GetForUser(ctx context.Context, id, userID int64) (*models.Post, error) {
	query := "SELECT " + postColumns + " FROM posts WHERE id = $1 AND user_id = $2"
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Error().Err(err).Int64("post_id", id).Msg("failed to load post")
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]*models.Post, int64, error) {
	filter := statusFilter(status)

	var total int64
	countQuery := "SELECT COUNT(*) FROM posts WHERE user_id = $1" + filter
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		log.Error().Err(err).Msg("failed to count posts")
		return nil, 0, err
	}

	query := "SELECT " + postColumns + " FROM posts WHERE user_id = $1" + filter +
		" ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3"
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list posts")
		return nil, 0, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			log.Error().Err(err).Msg("failed to scan post")
			return nil, 0, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, total, nil
}

// Update writes the post's mutable fields. When mediaIDs is non-nil the
// post's media linkage is replaced by exactly that set in the same
// transaction.
func (r *postRepository) Update(ctx context.Context, post *models.Post, mediaIDs *[]int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin post transaction")
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
		UPDATE posts
		SET content = $1,
			convo = $2,
			socials = $3,
			scheduled_at = $4,
			updated_at = now()
		WHERE id = $5 AND user_id = $6
		RETURNING updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		post.Content,
		jsonbParam(post.Convo),
		pq.Array(post.Socials),
		post.ScheduledAt,
		post.ID,
		post.UserID,
	).Scan(&post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrPostNotFound
			return err
		}
		log.Error().Err(err).Int64("post_id", post.ID).Msg("failed to update post")
		return err
	}

	if mediaIDs != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE media_assets SET post_id = NULL WHERE post_id = $1 AND user_id = $2`,
			post.ID, post.UserID,
		)
		if err != nil {
			log.Error().Err(err).Int64("post_id", post.ID).Msg("failed to detach media")
			return err
		}
		if len(*mediaIDs) > 0 {
			if err = linkMedia(ctx, tx, post.ID, post.UserID, *mediaIDs); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit post transaction")
		return err
	}
	return nil
}

// DeleteForUser detaches the post's media and removes the post in one
// transaction. It reports false when the post does not exist for userID.
func (r *postRepository) DeleteForUser(ctx context.Context, id, userID int64) (deleted bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin post transaction")
		return false, err
	}
	defer func() {
		if err != nil || !deleted {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`UPDATE media_assets SET post_id = NULL WHERE post_id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		log.Error().Err(err).Int64("post_id", id).Msg("failed to detach media")
		return false, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		log.Error().Err(err).Int64("post_id", id).Msg("failed to delete post")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	deleted = true
	if err = tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit post transaction")
		return false, err
	}
	return true, nil
}
