package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"staff_messenger/internal/config"
	"staff_messenger/internal/domain"
	"staff_messenger/internal/repository"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

// Extensions accepted for message attachments: images, PDF, and common
// document/text formats. Size limits are enforced by the storage layer and
// the multipart reader, not here.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".csv":  true,
	".txt":  true,
	".md":   true,
}

type AttachmentService interface {
	Upload(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*domain.Attachment, error)
}

// Storage is the durable backend a file ends up in. Local disk and S3 are
// provided; both return the public URL of the stored object.
type Storage interface {
	Save(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}

type attachmentService struct {
	storage   Storage
	auditRepo repository.AuditRepository
	maxSize   int64
	log       logger.Logger
}

func NewAttachmentService(storage Storage, auditRepo repository.AuditRepository, cfg config.UploadConfig, log logger.Logger) AttachmentService {
	return &attachmentService{
		storage:   storage,
		auditRepo: auditRepo,
		maxSize:   cfg.MaxFileSize,
		log:       log,
	}
}

func (s *attachmentService) Upload(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*domain.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFileType, ext)
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", apperrors.ErrBadRequest, s.maxSize)
	}

	src, err := file.Open()
	if err != nil {
		s.log.Error("Failed to open uploaded file", "error", err, "filename", file.Filename)
		return nil, err
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.New(), ext)

	url, err := s.storage.Save(ctx, key, contentType, src)
	if err != nil {
		s.log.Error("Failed to store attachment", "error", err, "filename", file.Filename)
		return nil, err
	}

	if err := s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:   time.Now(),
		ActorUserID: &userID,
		EventType:   domain.EventTypeAttachmentUploaded,
		Payload:     map[string]interface{}{"filename": file.Filename, "size": file.Size, "type": contentType},
	}); err != nil {
		s.log.Warn("Failed to audit attachment upload", "error", err)
	}

	return &domain.Attachment{
		URL:      url,
		Filename: file.Filename,
		Type:     contentType,
	}, nil
}

type localStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(cfg config.UploadConfig) (Storage, error) {
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localStorage{dir: cfg.LocalDir, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

func (l *localStorage) Save(_ context.Context, key, _ string, body io.Reader) (string, error) {
	path := filepath.Join(l.dir, key)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		os.Remove(path)
		return "", err
	}

	return l.baseURL + "/" + key, nil
}

type s3Storage struct {
	client *s3.Client
	bucket string
	region string
}

func NewS3Storage(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3KeyID, cfg.S3SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Storage{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		region: cfg.S3Region,
	}, nil
}

func (s *s3Storage) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// NewStorage picks the backend configured for the deployment.
func NewStorage(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	switch cfg.Kind {
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return NewLocalStorage(cfg)
	}
}
