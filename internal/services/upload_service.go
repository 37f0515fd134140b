package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/storage"
)

// MaxUploadBytes caps a single uploaded image.
const MaxUploadBytes = 5 << 20

// Upload describes a stored image.
type Upload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// UploadService validates images and moves them in and out of object storage.
type UploadService struct {
	Store storage.Store
	// MaxBytes caps uploads; <= 0 means MaxUploadBytes.
	MaxBytes int64
	// ImageURL builds the public proxy URL for a key.
	ImageURL func(key string) string

	now func() time.Time
}

// NewUploadService returns a service writing to store.
func NewUploadService(store storage.Store, imageURL func(string) string) *UploadService {
	return &UploadService{Store: store, MaxBytes: MaxUploadBytes, ImageURL: imageURL, now: time.Now}
}

func (s *UploadService) limit() int64 {
	if s.MaxBytes <= 0 {
		return MaxUploadBytes
	}
	return s.MaxBytes
}

// Save stores the image read from r. The content type is sniffed from the
// bytes, never taken from the client; anything that is not image/* is
// rejected, as is anything larger than the limit.
func (s *UploadService) Save(ctx context.Context, filename string, r io.Reader) (*Upload, error) {
	ctx, span := otel.Tracer("services/UploadService").Start(ctx, "Save",
		trace.WithAttributes(attribute.String("upload.filename", filename)),
	)
	defer span.End()

	if s.Store == nil {
		return nil, fail(span, apperr.New(MsgStorageUnavailable, http.StatusServiceUnavailable, false, nil))
	}

	maxBytes := s.limit()
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fail(span, apperr.BadRequest("Could not read upload").CausedBy(err))
	}
	if int64(len(data)) > maxBytes {
		e := apperr.New(MsgFileTooLarge, http.StatusRequestEntityTooLarge, false, nil)
		e.Kind = KindPayloadTooLarge
		return nil, fail(span, e)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fail(span, apperr.BadRequest(MsgImagesOnly).
			AddSubError(apperr.SubError{Path: "image", Code: "invalid_type", Message: "detected " + mt.String()}))
	}

	name := filename
	if filepath.Ext(name) == "" {
		name += mt.Extension()
	}
	key, err := storage.NewUploadKey(s.now(), name)
	if err != nil {
		return nil, fail(span, apperr.InternalServer("").CausedBy(err))
	}

	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if err := s.Store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fail(span, apperr.InternalServer("Could not store image").CausedBy(err))
	}
	span.SetAttributes(attribute.String("upload.key", key), attribute.Int("upload.size", len(data)))

	out := &Upload{Key: key, ContentType: contentType, Size: int64(len(data))}
	if s.ImageURL != nil {
		out.URL = s.ImageURL(key)
	}
	return out, nil
}

// Open returns the stored image under key. Only keys under the upload
// prefix are served.
func (s *UploadService) Open(ctx context.Context, key string) (*storage.Object, error) {
	ctx, span := otel.Tracer("services/UploadService").Start(ctx, "Open",
		trace.WithAttributes(attribute.String("upload.key", key)),
	)
	defer span.End()

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fail(span, apperr.BadRequest(MsgImageKeyRequired))
	}
	if s.Store == nil {
		return nil, fail(span, apperr.New(MsgStorageUnavailable, http.StatusServiceUnavailable, false, nil))
	}
	if !strings.HasPrefix(key, storage.UploadPrefix) || strings.Contains(key, "..") {
		return nil, fail(span, apperr.NotFound(MsgImageNotFound))
	}
	obj, err := s.Store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fail(span, apperr.NotFound(MsgImageNotFound).CausedBy(err))
	}
	if err != nil {
		return nil, fail(span, apperr.InternalServer("Could not read image").CausedBy(err))
	}
	return obj, nil
}
