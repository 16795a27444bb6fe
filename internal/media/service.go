package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
	"github.com/craftshoplabs/craftshop-backend/pkg/storage/gcs"
)

type objectStore interface {
	Name() string
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, objectName string) error
}

// Service fronts the object store for the catalog and customer services:
// uploads return the public URL, deletes work backwards from one.
type Service struct {
	bucket objectStore
	logg   *logger.Logger
}

// NewService builds the media service on top of a bucket handle.
func NewService(bucket objectStore, logg *logger.Logger) (*Service, error) {
	if bucket == nil {
		return nil, fmt.Errorf("bucket handle is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{bucket: bucket, logg: logg}, nil
}

// Upload stores the bytes under objectName and returns the public URL.
func (s *Service) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("object data is empty")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.bucket.Upload(ctx, objectName, contentType, data)
}

// DeleteByURL resolves a previously returned public URL back to its object
// and removes it. Deleting an already-gone object is not an error. URLs
// pointing at a different bucket are refused.
func (s *Service) DeleteByURL(ctx context.Context, rawURL string) error {
	bucket, object, err := gcs.ParseObjectURL(rawURL)
	if err != nil {
		return fmt.Errorf("parsing object url: %w", err)
	}
	if !strings.EqualFold(bucket, s.bucket.Name()) {
		return fmt.Errorf("object url points at foreign bucket %q", bucket)
	}

	if err := s.bucket.Delete(ctx, object); err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil
		}
		return err
	}
	return nil
}
