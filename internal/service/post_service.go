package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/postcraft/postcraft-api/internal/repository"
	"github.com/postcraft/postcraft-api/internal/transfer"
	"github.com/postcraft/postcraft-api/pkg/apperror"
	"github.com/postcraft/postcraft-api/pkg/utils"
	"github.com/rs/zerolog/log"
)

const DefaultPostPageLimit = 10

// accepted scheduledAt layouts, tried in order
var scheduleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
}

type PostService interface {
	Create(ctx context.Context, ownerID int64, req transfer.CreatePostRequest) (*transfer.CreatePostResponse, error)
	Get(ctx context.Context, postID, ownerID int64) (*transfer.PostResponse, error)
	List(ctx context.Context, ownerID int64, page, limit int, status string) (*transfer.PostListResponse, error)
	Update(ctx context.Context, postID, ownerID int64, req transfer.UpdatePostRequest) (*transfer.PostResponse, error)
	Delete(ctx context.Context, postID, ownerID int64) error
}

type postService struct {
	pr repository.PostRepository
	ma repository.MediaAssetRepository
}

func NewPostService(pr repository.PostRepository, ma repository.MediaAssetRepository) PostService {
	return &postService{pr: pr, ma: ma}
}

func normalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", apperror.ErrInvalidContent
	}
	return trimmed, nil
}

// parseSchedule parses value and requires it to be strictly after now.
func parseSchedule(value string, now time.Time) (time.Time, error) {
	for _, layout := range scheduleLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if !t.After(now) {
			return time.Time{}, apperror.ErrInvalidSchedule.WithMessage("Scheduled date must be in the future")
		}
		return t, nil
	}
	return time.Time{}, apperror.ErrInvalidSchedule.WithMessage("Please provide a valid date for scheduling")
}

func normalizeSocials(socials []string) []string {
	out := make([]string, 0, len(socials))
	for _, s := range socials {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{models.DefaultSocial}
	}
	return out
}

func validConvo(raw json.RawMessage) error {
	if len(raw) == 0 || json.Valid(raw) {
		return nil
	}
	return apperror.NewValidationField("convo", "convo must be valid JSON")
}

// resolveMedia requires every id to name an asset owned by ownerID.
func (s *postService) resolveMedia(ctx context.Context, ownerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	assets, err := s.ma.ListByIDsForUser(ctx, ownerID, ids)
	if err != nil {
		return fmt.Errorf("resolve media assets: %w", err)
	}
	if len(assets) != len(ids) {
		return apperror.ErrInvalidMediaReference
	}
	return nil
}

func (s *postService) Create(ctx context.Context, ownerID int64, req transfer.CreatePostRequest) (*transfer.CreatePostResponse, error) {
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}
	if err := validConvo(req.Convo); err != nil {
		return nil, err
	}

	mediaIDs := dedupeIDs(req.MediaAssetIDs)
	if err := s.resolveMedia(ctx, ownerID, mediaIDs); err != nil {
		return nil, err
	}

	var scheduledAt sql.NullTime
	if req.ScheduledAt != nil && *req.ScheduledAt != "" {
		t, err := parseSchedule(*req.ScheduledAt, time.Now())
		if err != nil {
			return nil, err
		}
		scheduledAt = sql.NullTime{Time: t, Valid: true}
	}

	post := &models.Post{
		UserID:      ownerID,
		Content:     content,
		Convo:       req.Convo,
		Socials:     normalizeSocials(req.Socials),
		ScheduledAt: scheduledAt,
	}

	if err := s.pr.CreateWithMedia(ctx, post, mediaIDs); err != nil {
		if errors.Is(err, repository.ErrMediaMismatch) {
			return nil, apperror.ErrInvalidMediaReference
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	media, err := s.mediaFor(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("post_id", post.ID).Int64("user_id", ownerID).Int("media", len(mediaIDs)).Msg("post created")

	return &transfer.CreatePostResponse{
		Post:        transfer.NewPostResponse(post, media),
		IsScheduled: scheduledAt.Valid,
		MediaCount:  len(mediaIDs),
	}, nil
}

func (s *postService) mediaFor(ctx context.Context, postID int64) ([]*models.MediaAsset, error) {
	byPost, err := s.ma.ListByPostIDs(ctx, []int64{postID})
	if err != nil {
		return nil, fmt.Errorf("load post media: %w", err)
	}
	return byPost[postID], nil
}

func (s *postService) Get(ctx context.Context, postID, ownerID int64) (*transfer.PostResponse, error) {
	post, err := s.pr.GetForUser(ctx, postID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, apperror.ErrNotFound.WithMessage("Post not found")
	}

	media, err := s.mediaFor(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	resp := transfer.NewPostResponse(post, media)
	return &resp, nil
}

func (s *postService) List(ctx context.Context, ownerID int64, page, limit int, status string) (*transfer.PostListResponse, error) {
	switch status {
	case "", models.PostStatusPosted, models.PostStatusDraft, models.PostStatusScheduled:
	default:
		return nil, apperror.NewValidationField("status", "status must be one of posted, draft, scheduled")
	}

	page, limit = utils.NormalizePage(page, limit, DefaultPostPageLimit)

	posts, total, err := s.pr.ListByUser(ctx, ownerID, status, limit, utils.Offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	byPost, err := s.ma.ListByPostIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load post media: %w", err)
	}

	out := make([]transfer.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, transfer.NewPostResponse(p, byPost[p.ID]))
	}

	return &transfer.PostListResponse{
		Posts: out,
		Pagination: transfer.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: utils.TotalPages(total, limit),
		},
	}, nil
}

// Update applies only the fields present in req. A present mediaAssetIds
// list, even an empty one, replaces the post's media.
func (s *postService) Update(ctx context.Context, postID, ownerID int64, req transfer.UpdatePostRequest) (*transfer.PostResponse, error) {
	post, err := s.pr.GetForUser(ctx, postID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, apperror.ErrNotFound.WithMessage("Post not found")
	}

	if req.Content != nil {
		content, err := normalizeContent(*req.Content)
		if err != nil {
			return nil, err
		}
		post.Content = content
	}
	if req.Convo != nil {
		if err := validConvo(req.Convo); err != nil {
			return nil, err
		}
		post.Convo = req.Convo
	}
	if req.Socials != nil {
		post.Socials = normalizeSocials(*req.Socials)
	}
	if len(post.Socials) == 0 {
		post.Socials = []string{models.DefaultSocial}
	}
	if req.ScheduledAt.Set {
		if req.ScheduledAt.Value == nil {
			post.ScheduledAt = sql.NullTime{}
		} else {
			t, err := parseSchedule(*req.ScheduledAt.Value, time.Now())
			if err != nil {
				return nil, err
			}
			post.ScheduledAt = sql.NullTime{Time: t, Valid: true}
		}
	}

	var mediaIDs *[]int64
	if req.MediaAssetIDs != nil {
		ids := dedupeIDs(*req.MediaAssetIDs)
		if err := s.resolveMedia(ctx, ownerID, ids); err != nil {
			return nil, err
		}
		mediaIDs = &ids
	}

	if err := s.pr.Update(ctx, post, mediaIDs); err != nil {
		switch {
		case errors.Is(err, repository.ErrPostNotFound):
			return nil, apperror.ErrNotFound.WithMessage("Post not found")
		case errors.Is(err, repository.ErrMediaMismatch):
			return nil, apperror.ErrInvalidMediaReference
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	media, err := s.mediaFor(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	resp := transfer.NewPostResponse(post, media)
	return &resp, nil
}

func (s *postService) Delete(ctx context.Context, postID, ownerID int64) error {
	deleted, err := s.pr.DeleteForUser(ctx, postID, ownerID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if !deleted {
		return apperror.ErrNotFound.WithMessage("Post not found")
	}

	log.Info().Int64("post_id", postID).Int64("user_id", ownerID).Msg("post deleted")
	return nil
}
