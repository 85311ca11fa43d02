package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/rs/zerolog/log"
)

type MediaAssetRepository interface {
	CreateBatch(ctx context.Context, assets []*models.MediaAsset) error
	GetByIDForUser(ctx context.Context, id, userID int64) (*models.MediaAsset, *models.PostSummary, error)
	ListByUser(ctx context.Context, userID int64, mediaType models.MediaType, limit, offset int) ([]*models.MediaAsset, int64, error)
	ListByIDsForUser(ctx context.Context, userID int64, ids []int64) ([]*models.MediaAsset, error)
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.MediaAsset, error)
	RemoveForUser(ctx context.Context, id, userID int64) (bool, error)
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

const mediaColumns = `m.id, m.user_id, m.post_id, m.file_name, m.storage_key, m.url, m.mime_type,
	m.size, m.type, m.title, m.description, m.uploaded_at`

func scanMediaAsset(row rowScanner, extra ...any) (*models.MediaAsset, error) {
	var ma models.MediaAsset
	dest := []any{
		&ma.ID,
		&ma.UserID,
		&ma.PostID,
		&ma.FileName,
		&ma.StorageKey,
		&ma.URL,
		&ma.MimeType,
		&ma.Size,
		&ma.Type,
		&ma.Title,
		&ma.Description,
		&ma.UploadedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &ma, nil
}

// CreateBatch inserts every asset in one transaction and fills in the
// generated ids and upload times.
func (r *mediaAssetRepository) CreateBatch(ctx context.Context, assets []*models.MediaAsset) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin media transaction")
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
		INSERT INTO media_assets (user_id, file_name, storage_key, url, mime_type, size, type, title, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, uploaded_at
	`
	for _, ma := range assets {
		err = tx.QueryRowContext(ctx, query,
			ma.UserID,
			ma.FileName,
			ma.StorageKey,
			ma.URL,
			ma.MimeType,
			ma.Size,
			ma.Type,
			ma.Title,
			ma.Description,
		).Scan(&ma.ID, &ma.UploadedAt)
		if err != nil {
			log.Error().Err(err).Str("key", ma.StorageKey).Msg("failed to insert media asset")
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit media transaction")
		return err
	}
	return nil
}

func (r *mediaAssetRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*models.MediaAsset, *models.PostSummary, error) {
	query := `
		SELECT ` + mediaColumns + `, p.id, p.content, p.created_at
		FROM media_assets m
		LEFT JOIN posts p ON p.id = m.post_id
		WHERE m.id = $1 AND m.user_id = $2
	`

	var (
		postID      sql.NullInt64
		postContent sql.NullString
		postCreated sql.NullTime
	)
	ma, err := scanMediaAsset(r.db.QueryRowContext(ctx, query, id, userID), &postID, &postContent, &postCreated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		log.Error().Err(err).Int64("asset_id", id).Msg("failed to load media asset")
		return nil, nil, err
	}

	var summary *models.PostSummary
	if postID.Valid {
		summary = &models.PostSummary{
			ID:        postID.Int64,
			Content:   postContent.String,
			CreatedAt: postCreated.Time,
		}
	}
	return ma, summary, nil
}

// ListByUser returns one page of the user's assets, newest first, and the
// total matching count. An empty mediaType matches every type.
func (r *mediaAssetRepository) ListByUser(ctx context.Context, userID int64, mediaType models.MediaType, limit, offset int) ([]*models.MediaAsset, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM media_assets m WHERE m.user_id = $1 AND ($2 = '' OR m.type = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, userID, string(mediaType)).Scan(&total); err != nil {
		log.Error().Err(err).Msg("failed to count media assets")
		return nil, 0, err
	}

	query := `
		SELECT ` + mediaColumns + `
		FROM media_assets m
		WHERE m.user_id = $1 AND ($2 = '' OR m.type = $2)
		ORDER BY m.uploaded_at DESC, m.id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, userID, string(mediaType), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list media assets")
		return nil, 0, err
	}
	defer rows.Close()

	assets, err := collectMediaAssets(rows)
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

func (r *mediaAssetRepository) ListByIDsForUser(ctx context.Context, userID int64, ids []int64) ([]*models.MediaAsset, error) {
	if len(ids) == 0 {
		return []*models.MediaAsset{}, nil
	}

	query := `
		SELECT ` + mediaColumns + `
		FROM media_assets m
		WHERE m.user_id = $1 AND m.id = ANY($2)
		ORDER BY m.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve media assets")
		return nil, err
	}
	defer rows.Close()

	return collectMediaAssets(rows)
}

func (r *mediaAssetRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.MediaAsset, error) {
	out := make(map[int64][]*models.MediaAsset, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT ` + mediaColumns + `
		FROM media_assets m
		WHERE m.post_id = ANY($1)
		ORDER BY m.uploaded_at, m.id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		log.Error().Err(err).Msg("failed to load post media")
		return nil, err
	}
	defer rows.Close()

	assets, err := collectMediaAssets(rows)
	if err != nil {
		return nil, err
	}
	for _, ma := range assets {
		out[ma.PostID.Int64] = append(out[ma.PostID.Int64], ma)
	}
	return out, nil
}

func (r *mediaAssetRepository) RemoveForUser(ctx context.Context, id, userID int64) (bool, error) {
	query := `DELETE FROM media_assets WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Error().Err(err).Int64("asset_id", id).Msg("failed to delete media asset")
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func collectMediaAssets(rows *sql.Rows) ([]*models.MediaAsset, error) {
	assets := []*models.MediaAsset{}
	for rows.Next() {
		ma, err := scanMediaAsset(rows)
		if err != nil {
			log.Error().Err(err).Msg("failed to scan media asset")
			return nil, err
		}
		assets = append(assets, ma)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media assets: %w", err)
	}
	return assets, nil
}
