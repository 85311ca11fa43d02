package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lib/pq"
	config "github.com/postcraft/postcraft-api/configs"
	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/postcraft/postcraft-api/internal/repository"
	"github.com/stretchr/testify/mock"
)

func testConfig() config.Config {
	return config.Config{
		SecretKey:     "test-secret",
		TokenTTL:      time.Hour,
		EncryptionKey: strings.Repeat("k", 32),
		StateTTL:      10 * time.Minute,
		FrontendURL:   "http://localhost:3000",
		R2: config.R2{
			BucketName: "uploads",
			PublicURL:  "https://cdn.example.com/",
		},
		LinkedIn: config.LinkedIn{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURI:  "http://localhost:3002/connect/callback",
			AuthURL:      "https://www.linkedin.com/oauth/v2/authorization",
		},
	}
}

// memDB backs the in-memory repositories so post and media links stay consistent.
type memDB struct {
	mu              sync.Mutex
	nextID          int64
	users           map[int64]*models.User
	posts           map[int64]*models.Post
	assets          map[int64]*models.MediaAsset
	createBatchFail error
}

func newMemDB() *memDB {
	return &memDB{
		users:  map[int64]*models.User{},
		posts:  map[int64]*models.Post{},
		assets: map[int64]*models.MediaAsset{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

// addAsset seeds an asset owned by userID.
func (db *memDB) addAsset(userID int64, mediaType models.MediaType) *models.MediaAsset {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	ma := &models.MediaAsset{
		ID:         id,
		UserID:     userID,
		FileName:   "file.png",
		StorageKey: "images/" + string(rune('a'+id%26)) + ".png",
		URL:        "https://cdn.example.com/images/x.png",
		MimeType:   "image/png",
		Type:       mediaType,
		UploadedAt: time.Now().Add(time.Duration(id) * time.Millisecond),
	}
	db.assets[id] = ma
	return ma
}

func (db *memDB) addUser(username, email string) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &models.User{ID: db.id(), Username: username, Email: email, CreatedAt: time.Now()}
	db.users[u.ID] = u
	return u
}

func (db *memDB) asset(id int64) models.MediaAsset {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.assets[id]
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, user *models.User) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email || u.Username == user.Username {
			return 0, &pq.Error{Code: "23505"}
		}
	}
	user.ID = r.db.id()
	user.CreatedAt = time.Now()
	cp := *user
	r.db.users[user.ID] = &cp
	return user.ID, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, false, nil
	}
	cp := *u
	return &cp, true, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (r memUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) SetLinkedInTokens(_ context.Context, userID int64, tokens models.LinkedInTokens) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return false, nil
	}
	u.LinkedInAccessToken = sql.NullString{String: tokens.AccessToken, Valid: true}
	u.LinkedInRefreshToken = sql.NullString{String: tokens.RefreshToken, Valid: tokens.RefreshToken != ""}
	u.LinkedInTokenExpiry = sql.NullTime{Time: tokens.ExpiresAt, Valid: true}
	u.LinkedInConnected = true
	return true, nil
}

func (r memUsers) ClearLinkedInTokens(_ context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[userID]; ok {
		u.LinkedInAccessToken = sql.NullString{}
		u.LinkedInRefreshToken = sql.NullString{}
		u.LinkedInTokenExpiry = sql.NullTime{}
		u.LinkedInConnected = false
	}
	return nil
}

type memAssets struct{ db *memDB }

func (r memAssets) CreateBatch(_ context.Context, assets []*models.MediaAsset) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.createBatchFail != nil {
		return r.db.createBatchFail
	}
	for _, ma := range assets {
		ma.ID = r.db.id()
		ma.UploadedAt = time.Now()
		cp := *ma
		r.db.assets[ma.ID] = &cp
	}
	return nil
}

func (r memAssets) GetByIDForUser(_ context.Context, id, userID int64) (*models.MediaAsset, *models.PostSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ma, ok := r.db.assets[id]
	if !ok || ma.UserID != userID {
		return nil, nil, nil
	}
	cp := *ma
	var summary *models.PostSummary
	if ma.PostID.Valid {
		if p, ok := r.db.posts[ma.PostID.Int64]; ok {
			summary = &models.PostSummary{ID: p.ID, Content: p.Content, CreatedAt: p.CreatedAt}
		}
	}
	return &cp, summary, nil
}

func (r memAssets) ListByUser(_ context.Context, userID int64, mediaType models.MediaType, limit, offset int) ([]*models.MediaAsset, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var matched []*models.MediaAsset
	for _, ma := range r.db.assets {
		if ma.UserID == userID && (mediaType == "" || ma.Type == mediaType) {
			cp := *ma
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].UploadedAt.Equal(matched[j].UploadedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].UploadedAt.After(matched[j].UploadedAt)
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return []*models.MediaAsset{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r memAssets) ListByIDsForUser(_ context.Context, userID int64, ids []int64) ([]*models.MediaAsset, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*models.MediaAsset{}
	for _, id := range ids {
		if ma, ok := r.db.assets[id]; ok && ma.UserID == userID {
			cp := *ma
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memAssets) ListByPostIDs(_ context.Context, postIDs []int64) (map[int64][]*models.MediaAsset, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := map[int64][]*models.MediaAsset{}
	for _, pid := range postIDs {
		for _, ma := range r.db.assets {
			if ma.PostID.Valid && ma.PostID.Int64 == pid {
				cp := *ma
				out[pid] = append(out[pid], &cp)
			}
		}
	}
	return out, nil
}

func (r memAssets) RemoveForUser(_ context.Context, id, userID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ma, ok := r.db.assets[id]
	if !ok || ma.UserID != userID {
		return false, nil
	}
	delete(r.db.assets, id)
	return true, nil
}

type memPosts struct{ db *memDB }

func (r memPosts) owned(userID int64, ids []int64) bool {
	for _, id := range ids {
		ma, ok := r.db.assets[id]
		if !ok || ma.UserID != userID {
			return false
		}
	}
	return true
}

func (r memPosts) CreateWithMedia(_ context.Context, post *models.Post, mediaIDs []int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if !r.owned(post.UserID, mediaIDs) {
		return repository.ErrMediaMismatch
	}
	post.ID = r.db.id()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	r.db.posts[post.ID] = &cp
	for _, id := range mediaIDs {
		r.db.assets[id].PostID = sql.NullInt64{Int64: post.ID, Valid: true}
	}
	return nil
}

func (r memPosts) GetForUser(_ context.Context, id, userID int64) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r memPosts) ListByUser(_ context.Context, userID int64, status string, limit, offset int) ([]*models.Post, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var matched []*models.Post
	for _, p := range r.db.posts {
		if p.UserID != userID {
			continue
		}
		switch status {
		case models.PostStatusPosted:
			if !p.IsPosted {
				continue
			}
		case models.PostStatusDraft:
			if p.IsPosted || p.ScheduledAt.Valid {
				continue
			}
		case models.PostStatusScheduled:
			if p.IsPosted || !p.ScheduledAt.Valid {
				continue
			}
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	if offset >= len(matched) {
		return []*models.Post{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r memPosts) Update(_ context.Context, post *models.Post, mediaIDs *[]int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.posts[post.ID]
	if !ok || existing.UserID != post.UserID {
		return repository.ErrPostNotFound
	}
	if mediaIDs != nil && !r.owned(post.UserID, *mediaIDs) {
		return repository.ErrMediaMismatch
	}
	post.UpdatedAt = time.Now()
	cp := *post
	r.db.posts[post.ID] = &cp
	if mediaIDs != nil {
		for _, ma := range r.db.assets {
			if ma.PostID.Valid && ma.PostID.Int64 == post.ID {
				ma.PostID = sql.NullInt64{}
			}
		}
		for _, id := range *mediaIDs {
			r.db.assets[id].PostID = sql.NullInt64{Int64: post.ID, Valid: true}
		}
	}
	return nil
}

func (r memPosts) DeleteForUser(_ context.Context, id, userID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	for _, ma := range r.db.assets {
		if ma.PostID.Valid && ma.PostID.Int64 == id {
			ma.PostID = sql.NullInt64{}
		}
	}
	delete(r.db.posts, id)
	return true, nil
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}
