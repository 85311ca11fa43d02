package transfer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/postcraft/postcraft-api/internal/models"
)

type CreatePostRequest struct {
	Content       string          `json:"content" validate:"max=10000"`
	Convo         json.RawMessage `json:"convo"`
	MediaAssetIDs []int64         `json:"mediaAssetIds" validate:"max=10,dive,gt=0"`
	Socials       []string        `json:"socials" validate:"omitempty,dive,required,max=32"`
	ScheduledAt   *string         `json:"scheduledAt"`
}

// NullableString records whether a JSON field was present and whether it was null.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type UpdatePostRequest struct {
	Content       *string         `json:"content" validate:"omitempty,max=10000"`
	Convo         json.RawMessage `json:"convo"`
	MediaAssetIDs *[]int64        `json:"mediaAssetIds" validate:"omitempty,max=10,dive,gt=0"`
	Socials       *[]string       `json:"socials" validate:"omitempty,dive,required,max=32"`
	ScheduledAt   NullableString  `json:"scheduledAt"`
}

type ListPostsQuery struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Status string `query:"status"`
}

type PostResponse struct {
	ID          int64                `json:"id"`
	UserID      int64                `json:"userId"`
	Content     string               `json:"content"`
	Convo       json.RawMessage      `json:"convo"`
	Socials     []string             `json:"socials"`
	ScheduledAt *time.Time           `json:"scheduledAt"`
	IsPosted    bool                 `json:"isPosted"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	MediaAssets []MediaAssetResponse `json:"mediaAssets"`
}

type CreatePostResponse struct {
	Post        PostResponse `json:"post"`
	IsScheduled bool         `json:"isScheduled"`
	MediaCount  int          `json:"mediaCount"`
}

type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Pagination Pagination     `json:"pagination"`
}

func NewPostResponse(p *models.Post, media []*models.MediaAsset) PostResponse {
	resp := PostResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Content:     p.Content,
		Convo:       p.Convo,
		Socials:     p.Socials,
		IsPosted:    p.IsPosted,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		MediaAssets: NewMediaAssetResponses(media),
	}
	if len(resp.Convo) == 0 {
		resp.Convo = nil
	}
	if resp.Socials == nil {
		resp.Socials = []string{}
	}
	if p.ScheduledAt.Valid {
		t := p.ScheduledAt.Time
		resp.ScheduledAt = &t
	}
	return resp
}
