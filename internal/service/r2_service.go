package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/postcraft/postcraft-api/configs"
	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/postcraft/postcraft-api/internal/transfer"
	"github.com/postcraft/postcraft-api/pkg/apperror"
	"github.com/rs/zerolog/log"
)

const (
	MaxFilesPerUpload = 10
	MaxImageSize      = 5 * 1024 * 1024
	MaxVideoSize      = 15 * 1024 * 1024

	objectTimeout = 30 * time.Second
	sniffLength   = 261
)

type mediaKind struct {
	mediaType models.MediaType
	folder    string
	ext       string
	maxSize   int64
}

var allowedMimeTypes = map[string]mediaKind{
	"image/jpeg": {models.MediaTypeImage, "images", "jpeg", MaxImageSize},
	"image/png":  {models.MediaTypeImage, "images", "png", MaxImageSize},
	"image/gif":  {models.MediaTypeImage, "images", "gif", MaxImageSize},
	"image/webp": {models.MediaTypeImage, "images", "webp", MaxImageSize},
	"video/mp4":  {models.MediaTypeVideo, "videos", "mp4", MaxVideoSize},
	"video/webm": {models.MediaTypeVideo, "videos", "webm", MaxVideoSize},
	"video/mov":  {models.MediaTypeVideo, "videos", "mov", MaxVideoSize},
	"video/avi":  {models.MediaTypeVideo, "videos", "avi", MaxVideoSize},
}

// sniffed MIME names that filetype reports under a different spelling.
var mimeAliases = map[string]string{
	"video/quicktime": "video/mov",
	"video/x-msvideo": "video/avi",
}

type DeleteResult int

const (
	Deleted DeleteResult = iota
	DeleteFailedNonFatal
)

func (r DeleteResult) String() string {
	if r == Deleted {
		return "deleted"
	}
	return "failed"
}

type StoredObject struct {
	Key      string
	URL      string
	MimeType string
	Type     models.MediaType
	Size     int64
}

type ObjectStore interface {
	ValidateUploads(files []*transfer.UploadFile) error
	Store(ctx context.Context, file *transfer.UploadFile, ownerID int64) (*StoredObject, error)
	Delete(ctx context.Context, key string) DeleteResult
}

// S3API is the subset of the S3 client the object store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type r2Service struct {
	cfg    config.R2
	client S3API
}

func NewR2Service(cfg config.R2, client S3API) ObjectStore {
	return &r2Service{cfg: cfg, client: client}
}

// NewR2Client builds an S3 client pointed at the account's R2 endpoint.
// Retries are disabled so a failed put surfaces immediately.
func NewR2Client(ctx context.Context, cfg config.R2) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
		awsconfig.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	}), nil
}

// ValidateUploads checks the whole batch before anything is stored. Files
// without a usable declared type are sniffed and their ContentType replaced.
func (r *r2Service) ValidateUploads(files []*transfer.UploadFile) error {
	if len(files) == 0 {
		return apperror.ErrNoFiles
	}
	if len(files) > MaxFilesPerUpload {
		return apperror.ErrTooManyFiles
	}

	for _, f := range files {
		if err := resolveContentType(f); err != nil {
			return err
		}

		kind, ok := allowedMimeTypes[f.ContentType]
		if !ok {
			return apperror.ErrUnsupportedMediaType.WithMessage(
				fmt.Sprintf("Unsupported file type: %s. Only images (JPEG, PNG, GIF, WebP) and videos (MP4, WebM, MOV, AVI) are allowed.", f.ContentType))
		}
		if f.Size > kind.maxSize {
			return apperror.ErrPayloadTooLarge.WithMessage(
				fmt.Sprintf("%q exceeds the %dMB limit", f.FileName, kind.maxSize/(1024*1024)))
		}
	}
	return nil
}

func resolveContentType(f *transfer.UploadFile) error {
	declared := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		f.ContentType = declared
		return nil
	}
	if f.Body == nil {
		f.ContentType = "application/octet-stream"
		return nil
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(f.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("read upload header: %w", err)
	}
	if _, err := f.Body.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		f.ContentType = "application/octet-stream"
		return nil
	}

	mime := kind.MIME.Value
	if alias, ok := mimeAliases[mime]; ok {
		mime = alias
	}
	f.ContentType = mime
	return nil
}

func (r *r2Service) Store(ctx context.Context, file *transfer.UploadFile, ownerID int64) (*StoredObject, error) {
	kind, ok := allowedMimeTypes[file.ContentType]
	if !ok {
		return nil, apperror.ErrUnsupportedMediaType
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate object key: %w", err)
	}
	key := fmt.Sprintf("%s/%s.%s", kind.folder, id, kind.ext)

	if _, err := file.Body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	putCtx, cancel := context.WithTimeout(ctx, objectTimeout)
	defer cancel()

	_, err = r.client.PutObject(putCtx, &s3.PutObjectInput{
		Bucket:        aws.String(r.cfg.BucketName),
		Key:           aws.String(key),
		Body:          file.Body,
		ContentLength: aws.Int64(file.Size),
		ContentType:   aws.String(file.ContentType),
		Metadata: map[string]string{
			"user-id":       strconv.FormatInt(ownerID, 10),
			"original-name": url.QueryEscape(file.FileName),
			"upload-time":   time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload object to r2")
		return nil, fmt.Errorf("%w: put %s: %v", apperror.ErrUpstream, key, err)
	}

	mediaUploadedTotal.WithLabelValues(string(kind.mediaType)).Inc()

	return &StoredObject{
		Key:      key,
		URL:      r.publicURL(key),
		MimeType: file.ContentType,
		Type:     kind.mediaType,
		Size:     file.Size,
	}, nil
}

// Delete removes the object. Failures are logged and reported, never returned.
func (r *r2Service) Delete(ctx context.Context, key string) DeleteResult {
	delCtx, cancel := context.WithTimeout(ctx, objectTimeout)
	defer cancel()

	_, err := r.client.DeleteObject(delCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to delete object from r2")
		blobDeleteTotal.WithLabelValues(DeleteFailedNonFatal.String()).Inc()
		return DeleteFailedNonFatal
	}

	blobDeleteTotal.WithLabelValues(Deleted.String()).Inc()
	return Deleted
}

func (r *r2Service) publicURL(key string) string {
	return strings.TrimRight(r.cfg.PublicURL, "/") + "/" + key
}
