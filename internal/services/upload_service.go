package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxUploadSize  = 10 << 20
	MaxUploadFiles = 10
)

// ObjectStorage is the subset of the S3 client used for image uploads.
type ObjectStorage interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	DeleteObject(ctx context.Context, key string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
	FileURL(key string) string
}

type UploadedFile struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimetype"`
}

type UploadService struct {
	storage ObjectStorage
	logger  *zap.Logger
}

func NewUploadService(storage ObjectStorage, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{storage: storage, logger: logger}
}

// SaveImages stores every file under the owner's prefix. When one file fails
// the objects already written are removed and the error is returned.
func (s *UploadService) SaveImages(ctx context.Context, owner uuid.UUID, files []*multipart.FileHeader) ([]UploadedFile, error) {
	if s.storage == nil {
		return nil, hangoutz_errors.New(hangoutz_errors.ErrServiceUnavailable, "File uploads are not configured")
	}
	if len(files) == 0 {
		return nil, hangoutz_errors.Validation("No files uploaded")
	}
	if len(files) > MaxUploadFiles {
		return nil, hangoutz_errors.Validation(fmt.Sprintf("Cannot upload more than %d files", MaxUploadFiles))
	}

	saved := make([]UploadedFile, 0, len(files))
	keys := make([]string, 0, len(files))
	for _, fh := range files {
		out, key, err := s.saveOne(ctx, owner, fh)
		if err != nil {
			s.cleanup(keys)
			return nil, err
		}
		saved = append(saved, out)
		keys = append(keys, key)
	}
	return saved, nil
}

func (s *UploadService) SaveImage(ctx context.Context, owner uuid.UUID, file *multipart.FileHeader) (UploadedFile, error) {
	if file == nil {
		return UploadedFile{}, hangoutz_errors.Validation("No file uploaded")
	}
	saved, err := s.SaveImages(ctx, owner, []*multipart.FileHeader{file})
	if err != nil {
		return UploadedFile{}, err
	}
	return saved[0], nil
}

// Delete removes one of the owner's files. Names are resolved inside the
// owner's prefix so other users' objects cannot be addressed.
func (s *UploadService) Delete(ctx context.Context, owner uuid.UUID, filename string) error {
	if s.storage == nil {
		return hangoutz_errors.New(hangoutz_errors.ErrServiceUnavailable, "File uploads are not configured")
	}
	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == "/" || name != filename {
		return hangoutz_errors.Validation("Invalid filename")
	}

	key := objectKey(owner, name)
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return hangoutz_errors.NotFound("File not found")
	}
	return s.storage.DeleteObject(ctx, key)
}

func (s *UploadService) saveOne(ctx context.Context, owner uuid.UUID, fh *multipart.FileHeader) (UploadedFile, string, error) {
	if fh.Size > MaxUploadSize {
		return UploadedFile{}, "", hangoutz_errors.New(hangoutz_errors.ErrTooLarge, "File too large. Maximum size is 10MB")
	}

	f, err := fh.Open()
	if err != nil {
		return UploadedFile{}, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return UploadedFile{}, "", fmt.Errorf("detect mime type: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return UploadedFile{}, "", hangoutz_errors.Validation("Only image files are allowed")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return UploadedFile{}, "", fmt.Errorf("rewind upload: %w", err)
	}

	ext := strings.ToLower(path.Ext(fh.Filename))
	if ext == "" {
		ext = mt.Extension()
	}
	name := uuid.NewString() + ext
	key := objectKey(owner, name)

	contentType := mt.String()
	if err := s.storage.PutObject(ctx, key, contentType, f, fh.Size); err != nil {
		return UploadedFile{}, "", fmt.Errorf("store upload: %w", err)
	}
	return UploadedFile{
		URL:      s.storage.FileURL(key),
		Filename: name,
		Size:     fh.Size,
		MimeType: contentType,
	}, key, nil
}

// cleanup is best effort; failures are logged only.
func (s *UploadService) cleanup(keys []string) {
	for _, key := range keys {
		if err := s.storage.DeleteObject(context.Background(), key); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("failed to clean up upload", zap.String("key", key), zap.Error(err))
		}
	}
}

func objectKey(owner uuid.UUID, name string) string {
	return "uploads/" + owner.String() + "/" + name
}
