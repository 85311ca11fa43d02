package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var postCols = []string{"id", "user_id", "content", "convo", "socials", "scheduled_at", "is_posted", "created_at", "updated_at"}

var mediaCols = []string{"id", "user_id", "post_id", "file_name", "storage_key", "url", "mime_type", "size", "type", "title", "description", "uploaded_at"}

const linkQuery = "UPDATE media_assets SET post_id = $1 WHERE user_id = $2 AND id = ANY($3)"
const detachQuery = "UPDATE media_assets SET post_id = NULL WHERE post_id = $1 AND user_id = $2"

func TestCreateWithMedia_LinksAllAssets(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO posts").
		WithArgs(int64(7), "hello", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_posted", "created_at", "updated_at"}).AddRow(int64(11), false, now, now))
	mock.ExpectExec(regexp.QuoteMeta(linkQuery)).
		WithArgs(int64(11), int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	post := &models.Post{UserID: 7, Content: "hello", Socials: []string{"linkedin"}}
	err := repo.CreateWithMedia(context.Background(), post, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(11), post.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithMedia_ForeignAssetRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO posts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_posted", "created_at", "updated_at"}).AddRow(int64(11), false, now, now))
	mock.ExpectExec(regexp.QuoteMeta(linkQuery)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	post := &models.Post{UserID: 7, Content: "hello", Socials: []string{"linkedin"}}
	err := repo.CreateWithMedia(context.Background(), post, []int64{1, 99})
	require.ErrorIs(t, err, ErrMediaMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithMedia_NoMediaSkipsLink(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO posts").
		WithArgs(int64(7), "hello", `{"messages":[]}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_posted", "created_at", "updated_at"}).AddRow(int64(3), false, now, now))
	mock.ExpectCommit()

	post := &models.Post{UserID: 7, Content: "hello", Convo: []byte(`{"messages":[]}`), Socials: []string{"linkedin"}}
	require.NoError(t, repo.CreateWithMedia(context.Background(), post, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteForUser_DetachesMediaFirst(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(detachQuery)).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.DeleteForUser(context.Background(), 5, 7)
	require.NoError(t, err)
	assert.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteForUser_NotOwnedRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(detachQuery)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM posts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	deleted, err := repo.DeleteForUser(context.Background(), 5, 8)
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ReplacesMediaLinkage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE posts").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(detachQuery)).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(linkQuery)).
		WithArgs(int64(5), int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ids := []int64{4}
	post := &models.Post{ID: 5, UserID: 7, Content: "edited", Socials: []string{"linkedin"}}
	require.NoError(t, repo.Update(context.Background(), post, &ids))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_EmptyMediaClearsOnly(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE posts").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(detachQuery)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	ids := []int64{}
	post := &models.Post{ID: 5, UserID: 7, Content: "edited"}
	require.NoError(t, repo.Update(context.Background(), post, &ids))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_MissingPost(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE posts").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	post := &models.Post{ID: 5, UserID: 7, Content: "edited"}
	err := repo.Update(context.Background(), post, nil)
	require.ErrorIs(t, err, ErrPostNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser_StatusFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE user_id = $1 AND is_posted = false AND scheduled_at IS NOT NULL")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("AND is_posted = false AND scheduled_at IS NOT NULL ORDER BY created_at DESC")).
		WithArgs(int64(7), 10, 0).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow(int64(1), int64(7), "later", []byte(`{"a":1}`), "{linkedin}", now.Add(time.Hour), false, now, now))

	posts, total, err := repo.ListByUser(context.Background(), 7, models.PostStatusScheduled, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"linkedin"}, posts[0].Socials)
	assert.True(t, posts[0].ScheduledAt.Valid)
	assert.JSONEq(t, `{"a":1}`, string(posts[0].Convo))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUser_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("FROM posts WHERE id").WithArgs(int64(1), int64(2)).WillReturnRows(sqlmock.NewRows(postCols))

	post, err := repo.GetForUser(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestMediaCreateBatch_RollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMediaAssetRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO media_assets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "uploaded_at"}).AddRow(int64(1), time.Now()))
	mock.ExpectQuery("INSERT INTO media_assets").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	assets := []*models.MediaAsset{
		{UserID: 1, FileName: "a.png", StorageKey: "images/a.png", Type: models.MediaTypeImage},
		{UserID: 1, FileName: "b.png", StorageKey: "images/b.png", Type: models.MediaTypeImage},
	}
	err := repo.CreateBatch(context.Background(), assets)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaCreateBatch_FillsIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMediaAssetRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO media_assets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "uploaded_at"}).AddRow(int64(10), now))
	mock.ExpectQuery("INSERT INTO media_assets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "uploaded_at"}).AddRow(int64(11), now))
	mock.ExpectCommit()

	assets := []*models.MediaAsset{{UserID: 1, Type: models.MediaTypeImage}, {UserID: 1, Type: models.MediaTypeVideo}}
	require.NoError(t, repo.CreateBatch(context.Background(), assets))
	assert.Equal(t, int64(10), assets[0].ID)
	assert.Equal(t, int64(11), assets[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaGetByIDForUser_WithPost(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMediaAssetRepository(db)
	now := time.Now()

	cols := append(append([]string{}, mediaCols...), "pid", "pcontent", "pcreated")
	mock.ExpectQuery("LEFT JOIN posts").
		WithArgs(int64(3), int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			int64(3), int64(1), int64(9), "a.png", "images/a.png", "https://cdn/images/a.png", "image/png",
			int64(10), "IMAGE", "a", nil, now, int64(9), "hello", now,
		))

	ma, post, err := repo.GetByIDForUser(context.Background(), 3, 1)
	require.NoError(t, err)
	require.NotNil(t, ma)
	require.NotNil(t, post)
	assert.Equal(t, models.MediaTypeImage, ma.Type)
	assert.Equal(t, int64(9), post.ID)
	assert.False(t, ma.Description.Valid)
}

func TestMediaListByUser_TypeFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMediaAssetRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM media_assets")).
		WithArgs(int64(1), "VIDEO").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(15)))
	mock.ExpectQuery("ORDER BY m.uploaded_at DESC").
		WithArgs(int64(1), "VIDEO", 10, 10).
		WillReturnRows(sqlmock.NewRows(mediaCols).
			AddRow(int64(1), int64(1), nil, "v.mp4", "videos/v.mp4", "u", "video/mp4", int64(1), "VIDEO", nil, nil, now))

	assets, total, err := repo.ListByUser(context.Background(), 1, models.MediaTypeVideo, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	require.Len(t, assets, 1)
	assert.False(t, assets[0].PostID.Valid)
}

func TestMediaRemoveForUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMediaAssetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM media_assets WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.RemoveForUser(context.Background(), 3, 1)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestUserCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(3), now, now))

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	id, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, int64(3), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_UniqueViolation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "alice@example.com", "hash").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestUserSetLinkedInTokens(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	expiry := time.Now().Add(time.Hour)

	mock.ExpectExec("UPDATE users").
		WithArgs("sealed-access", sql.NullString{}, expiry, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users").
		WithArgs("sealed-access", sqlmock.AnyArg(), expiry, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.SetLinkedInTokens(context.Background(), 4, models.LinkedInTokens{AccessToken: "sealed-access", ExpiresAt: expiry})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetLinkedInTokens(context.Background(), 5, models.LinkedInTokens{AccessToken: "sealed-access", RefreshToken: "r", ExpiresAt: expiry})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByEmail_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE email").WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

	user, found, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, user)
}
