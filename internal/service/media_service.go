package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/postcraft/postcraft-api/internal/repository"
	"github.com/postcraft/postcraft-api/internal/transfer"
	"github.com/postcraft/postcraft-api/pkg/apperror"
	"github.com/postcraft/postcraft-api/pkg/utils"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMediaPageLimit = 20
	defaultShareText      = "Check out these media files!"
)

type MediaService interface {
	Upload(ctx context.Context, ownerID int64, files []*transfer.UploadFile) (*transfer.UploadResponse, error)
	List(ctx context.Context, ownerID int64, page, limit int, mediaType string) (*transfer.MediaListResponse, error)
	Get(ctx context.Context, id, ownerID int64) (*transfer.MediaAssetResponse, error)
	Delete(ctx context.Context, id, ownerID int64) error
	PrepareLinkedIn(ctx context.Context, ownerID int64, req transfer.PrepareLinkedInRequest) (*transfer.PrepareLinkedInResponse, error)
}

type mediaService struct {
	store ObjectStore
	ma    repository.MediaAssetRepository
}

func NewMediaService(store ObjectStore, ma repository.MediaAssetRepository) MediaService {
	return &mediaService{store: store, ma: ma}
}

// Upload validates the batch, stores every blob and then records every row
// in one transaction. Blobs already stored are removed when a later step fails.
func (s *mediaService) Upload(ctx context.Context, ownerID int64, files []*transfer.UploadFile) (*transfer.UploadResponse, error) {
	if err := s.store.ValidateUploads(files); err != nil {
		return nil, err
	}

	stored := make([]*StoredObject, 0, len(files))
	for _, f := range files {
		obj, err := s.store.Store(ctx, f, ownerID)
		if err != nil {
			s.cleanup(ctx, stored)
			return nil, err
		}
		stored = append(stored, obj)
	}

	assets := make([]*models.MediaAsset, 0, len(stored))
	for i, obj := range stored {
		title := strings.TrimSuffix(files[i].FileName, filepath.Ext(files[i].FileName))
		assets = append(assets, &models.MediaAsset{
			UserID:      ownerID,
			FileName:    files[i].FileName,
			StorageKey:  obj.Key,
			URL:         obj.URL,
			MimeType:    obj.MimeType,
			Size:        obj.Size,
			Type:        obj.Type,
			Title:       sql.NullString{String: title, Valid: title != ""},
			Description: sql.NullString{String: fmt.Sprintf("%s uploaded for LinkedIn sharing", strings.ToLower(string(obj.Type))), Valid: true},
		})
	}

	if err := s.ma.CreateBatch(ctx, assets); err != nil {
		s.cleanup(ctx, stored)
		return nil, fmt.Errorf("record media assets: %w", err)
	}

	log.Info().Int64("user_id", ownerID).Int("count", len(assets)).Msg("media uploaded")

	return &transfer.UploadResponse{
		UploadedFiles: transfer.NewMediaAssetResponses(assets),
		TotalUploaded: len(assets),
		LinkedInReady: true,
	}, nil
}

func (s *mediaService) cleanup(ctx context.Context, stored []*StoredObject) {
	for _, obj := range stored {
		s.store.Delete(context.WithoutCancel(ctx), obj.Key)
	}
}

func (s *mediaService) List(ctx context.Context, ownerID int64, page, limit int, mediaType string) (*transfer.MediaListResponse, error) {
	page, limit = utils.NormalizePage(page, limit, DefaultMediaPageLimit)

	var filter models.MediaType
	switch models.MediaType(mediaType) {
	case models.MediaTypeImage, models.MediaTypeVideo:
		filter = models.MediaType(mediaType)
	}

	assets, total, err := s.ma.ListByUser(ctx, ownerID, filter, limit, utils.Offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("list media assets: %w", err)
	}

	return &transfer.MediaListResponse{
		Assets: transfer.NewMediaAssetResponses(assets),
		Pagination: transfer.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: utils.TotalPages(total, limit),
		},
	}, nil
}

func (s *mediaService) Get(ctx context.Context, id, ownerID int64) (*transfer.MediaAssetResponse, error) {
	asset, post, err := s.ma.GetByIDForUser(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get media asset: %w", err)
	}
	if asset == nil {
		return nil, apperror.ErrNotFound.WithMessage("Media asset not found")
	}

	resp := transfer.NewMediaAssetResponse(asset)
	resp.Post = post
	return &resp, nil
}

// Delete removes the blob on a best-effort basis and the row unconditionally.
func (s *mediaService) Delete(ctx context.Context, id, ownerID int64) error {
	asset, _, err := s.ma.GetByIDForUser(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("get media asset: %w", err)
	}
	if asset == nil {
		return apperror.ErrNotFound.WithMessage("Media asset not found")
	}

	result := s.store.Delete(ctx, asset.StorageKey)

	removed, err := s.ma.RemoveForUser(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("remove media asset: %w", err)
	}
	if !removed {
		return apperror.ErrNotFound.WithMessage("Media asset not found")
	}

	log.Info().
		Int64("asset_id", id).
		Bool("blob_deleted", result == Deleted).
		Msg("media asset deleted")
	return nil
}

// PrepareLinkedIn shapes the caller's assets into a UGC share body.
func (s *mediaService) PrepareLinkedIn(ctx context.Context, ownerID int64, req transfer.PrepareLinkedInRequest) (*transfer.PrepareLinkedInResponse, error) {
	ids := dedupeIDs(req.AssetIDs)
	if len(ids) == 0 {
		return nil, apperror.NewValidationField("assetIds", "Asset IDs are required")
	}

	assets, err := s.ma.ListByIDsForUser(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve media assets: %w", err)
	}
	if len(assets) == 0 {
		return nil, apperror.ErrNotFound.WithMessage("No valid assets found")
	}

	text := strings.TrimSpace(req.PostContent)
	if text == "" {
		text = defaultShareText
	}

	category := string(models.MediaTypeImage)
	if len(assets) == 1 {
		category = string(assets[0].Type)
	}

	media := make([]transfer.UGCMedia, 0, len(assets))
	for _, a := range assets {
		title := a.FileName
		if a.Title.Valid && a.Title.String != "" {
			title = a.Title.String
		}
		description := title
		if a.Description.Valid && a.Description.String != "" {
			description = a.Description.String
		}
		media = append(media, transfer.UGCMedia{
			Status:      "READY",
			Description: transfer.UGCText{Text: description},
			Media:       "urn:li:digitalmediaAsset:" + strconv.FormatInt(a.ID, 10),
			Title:       transfer.UGCText{Text: title},
		})
	}

	return &transfer.PrepareLinkedInResponse{
		LinkedInPayload: transfer.UGCPost{
			Author:         "urn:li:person:" + strconv.FormatInt(ownerID, 10),
			LifecycleState: "PUBLISHED",
			SpecificContent: transfer.UGCSpecificContent{
				ShareContent: transfer.UGCShareContent{
					ShareCommentary:    transfer.UGCText{Text: text},
					ShareMediaCategory: category,
					Media:              media,
				},
			},
			Visibility: transfer.UGCVisibility{MemberNetworkVisibility: "PUBLIC"},
		},
		Assets: transfer.NewMediaAssetResponses(assets),
	}, nil
}
