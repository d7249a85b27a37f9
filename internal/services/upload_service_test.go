package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeObjectStorage struct {
	objects map[string][]byte
	failOn  string
	deleted []string
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string][]byte{}}
}

func (s *fakeObjectStorage) PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if s.failOn != "" && bytes.Contains(data, []byte(s.failOn)) {
		return errors.New("bucket unavailable")
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStorage) DeleteObject(ctx context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeObjectStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeObjectStorage) FileURL(key string) string {
	return "https://cdn.example/" + key
}

type part struct {
	name    string
	content []byte
}

func fileHeaders(t *testing.T, field string, parts ...part) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := w.CreateFormFile(field, p.name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(p.content)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return req.MultipartForm.File[field]
}

func TestSaveImageStoresUnderOwnerPrefix(t *testing.T) {
	ctx := context.Background()
	storage := newFakeObjectStorage()
	svc := NewUploadService(storage, nil)
	owner := uuid.New()

	files := fileHeaders(t, "image", part{"Selfie.PNG", append(append([]byte{}, pngHeader...), "pixels"...)})
	got, err := svc.SaveImage(ctx, owner, files[0])
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got.MimeType != "image/png" || !strings.HasSuffix(got.Filename, ".png") {
		t.Fatalf("unexpected file %+v", got)
	}
	key := "uploads/" + owner.String() + "/" + got.Filename
	if _, ok := storage.objects[key]; !ok {
		t.Fatalf("expected object at %s, have %v", key, storage.objects)
	}
	if got.URL != "https://cdn.example/"+key {
		t.Fatalf("unexpected url %s", got.URL)
	}

	if err := svc.Delete(ctx, uuid.New(), got.Filename); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("another user must not reach the file, got %v", err)
	}
	if err := svc.Delete(ctx, owner, "../"+got.Filename); !errors.Is(err, hangoutz_errors.ErrInvalidInput) {
		t.Fatalf("expected path traversal to be refused, got %v", err)
	}
	if err := svc.Delete(ctx, owner, got.Filename); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSaveImageRejectsNonImages(t *testing.T) {
	svc := NewUploadService(newFakeObjectStorage(), nil)
	files := fileHeaders(t, "image", part{"notes.png", []byte("just some text pretending")})

	_, err := svc.SaveImage(context.Background(), uuid.New(), files[0])
	if hangoutz_errors.Message(err) != "Only image files are allowed" {
		t.Fatalf("expected image only error, got %v", err)
	}
}

func TestSaveImagesCleansUpAfterFailure(t *testing.T) {
	storage := newFakeObjectStorage()
	storage.failOn = "broken"
	svc := NewUploadService(storage, nil)

	files := fileHeaders(t, "images",
		part{"a.png", append(append([]byte{}, pngHeader...), "one"...)},
		part{"b.png", append(append([]byte{}, pngHeader...), "broken"...)},
	)
	if _, err := svc.SaveImages(context.Background(), uuid.New(), files); err == nil {
		t.Fatal("expected failure")
	}
	if len(storage.objects) != 0 || len(storage.deleted) != 1 {
		t.Fatalf("expected the first object to be removed, objects=%d deleted=%v", len(storage.objects), storage.deleted)
	}
}

func TestUploadsDisabled(t *testing.T) {
	svc := NewUploadService(nil, nil)
	_, err := svc.SaveImages(context.Background(), uuid.New(), nil)
	if !errors.Is(err, hangoutz_errors.ErrServiceUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
