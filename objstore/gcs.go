package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GCSStore keeps objects in a Google Cloud Storage bucket below a key prefix.
type GCSStore struct {
	logger zerolog.Logger
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// NewGCSStore uses application default credentials. Extra client options
// (e.g. option.WithoutAuthentication for public buckets) are passed through.
func NewGCSStore(ctx context.Context, logger zerolog.Logger, bucket, prefix string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStore{
		logger: logger.With().Str("component", "gcs-store").Str("bucket", bucket).Logger(),
		bucket: client.Bucket(bucket),
		name:   bucket,
		prefix: prefix,
	}, nil
}

func (s *GCSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectName := join(s.prefix, key)
	s.logger.Debug().Str("object", objectName).Msg("Fetching object")

	reader, err := s.bucket.Object(objectName).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gs://%s/%s: %w", s.name, objectName, err)
	}
	return reader, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader) error {
	objectName := join(s.prefix, key)
	s.logger.Debug().Str("object", objectName).Msg("Uploading object")

	writer := s.bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := io.Copy(writer, r); err != nil {
		writer.Close()
		return fmt.Errorf("failed to upload gs://%s/%s: %w", s.name, objectName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload gs://%s/%s: %w", s.name, objectName, err)
	}
	return nil
}
