package object

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"docsearch-backend/internal/shared/util"
)

// ObjectStore archives raw uploads and reads them back by key.
type ObjectStore interface {
	Save(ctx context.Context, fileName, contentType string, r io.Reader) (storageKey string, sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// NewKey builds a date-partitioned key that is unique per upload.
func NewKey(now time.Time, fileName string) string {
	day := now.UTC().Format("2006/01/02")
	return path.Join("uploads", day, uuid.NewString()+"_"+util.SanitizeFileName(fileName))
}
