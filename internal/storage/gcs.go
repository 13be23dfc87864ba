package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/avast/retry-go/v4"
)

// GCSStorage stores documents in a Google Cloud Storage bucket.
type GCSStorage struct {
	bucket *gcs.BucketHandle
	name   string
	prefix string
	logger *slog.Logger
}

func NewGCSStorage(ctx context.Context, bucketName, prefix string, logger *slog.Logger) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStorage{
		bucket: client.Bucket(bucketName),
		name:   bucketName,
		prefix: prefix,
		logger: logger,
	}, nil
}

func (s *GCSStorage) object(key string) *gcs.ObjectHandle {
	return s.bucket.Object(path.Join(s.prefix, key))
}

func (s *GCSStorage) Upload(ctx context.Context, key string, r io.Reader) error {
	w := s.object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		s.logger.Error("storage.upload failed", "key", key, "error", err)
		return fmt.Errorf("writing object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error("storage.upload failed", "key", key, "error", err)
		return fmt.Errorf("finalizing object %s: %w", key, err)
	}
	s.logger.Debug("storage.upload ok", "key", key)
	return nil
}

// Download retries transient read failures before giving up. Missing objects
// fail immediately.
func (s *GCSStorage) Download(ctx context.Context, key string, w io.Writer) error {
	return retry.Do(
		func() error {
			r, err := s.object(key).NewReader(ctx)
			if err != nil {
				if errors.Is(err, gcs.ErrObjectNotExist) {
					return retry.Unrecoverable(fmt.Errorf("object %s not found: %w", key, err))
				}
				return err
			}
			defer r.Close()
			_, err = io.Copy(w, r)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
	)
}

func (s *GCSStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.object(key).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GCSStorage) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.name, path.Join(s.prefix, key))
}
