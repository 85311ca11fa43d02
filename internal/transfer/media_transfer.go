package transfer

import (
	"io"
	"time"

	"github.com/postcraft/postcraft-api/internal/models"
)

// UploadFile is one part of a multipart upload as seen by the media service.
type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type MediaAssetResponse struct {
	ID          int64               `json:"id"`
	URL         string              `json:"url"`
	Type        models.MediaType    `json:"type"`
	FileName    string              `json:"fileName"`
	MimeType    string              `json:"mimeType"`
	Size        int64               `json:"size"`
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	PostID      *int64              `json:"postId"`
	UploadedAt  time.Time           `json:"uploadedAt"`
	Post        *models.PostSummary `json:"post,omitempty"`
}

type UploadResponse struct {
	UploadedFiles []MediaAssetResponse `json:"uploadedFiles"`
	TotalUploaded int                  `json:"totalUploaded"`
	LinkedInReady bool                 `json:"linkedinReady"`
}

type MediaListResponse struct {
	Assets     []MediaAssetResponse `json:"assets"`
	Pagination Pagination           `json:"pagination"`
}

type PrepareLinkedInRequest struct {
	AssetIDs    []int64 `json:"assetIds" validate:"required,min=1,dive,gt=0"`
	PostContent string  `json:"postContent" validate:"max=3000"`
}

type PrepareLinkedInResponse struct {
	LinkedInPayload UGCPost              `json:"linkedinPayload"`
	Assets          []MediaAssetResponse `json:"assets"`
}

func NewMediaAssetResponse(ma *models.MediaAsset) MediaAssetResponse {
	resp := MediaAssetResponse{
		ID:         ma.ID,
		URL:        ma.URL,
		Type:       ma.Type,
		FileName:   ma.FileName,
		MimeType:   ma.MimeType,
		Size:       ma.Size,
		UploadedAt: ma.UploadedAt,
	}
	if ma.Title.Valid {
		resp.Title = &ma.Title.String
	}
	if ma.Description.Valid {
		resp.Description = &ma.Description.String
	}
	if ma.PostID.Valid {
		resp.PostID = &ma.PostID.Int64
	}
	return resp
}

func NewMediaAssetResponses(assets []*models.MediaAsset) []MediaAssetResponse {
	out := make([]MediaAssetResponse, 0, len(assets))
	for _, ma := range assets {
		out = append(out, NewMediaAssetResponse(ma))
	}
	return out
}
