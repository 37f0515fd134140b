// Package storage holds uploaded images in an S3-compatible object store.
//
// Store is the narrow contract the upload service and the image proxy need:
// write one object, read one object back as a stream. MinioStore implements
// it against AWS S3, MinIO or any other S3-compatible endpoint; MemoryStore
// keeps objects in process and backs tests and local runs without a bucket.
package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// UploadPrefix namespaces every uploaded object key.
const UploadPrefix = "uploads/"

// Object is a stored object opened for reading. Callers must Close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store reads and writes objects by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
}

// NewUploadKey builds "uploads/<unix-ms>-<random><ext>" for an uploaded file.
// ext is taken from the client's filename, lower-cased.
func NewUploadKey(now time.Time, filename string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return "", fmt.Errorf("upload key: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s%d-%d%s", UploadPrefix, now.UnixMilli(), n.Int64(), ext), nil
}
