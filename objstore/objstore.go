// Package objstore provides the fetch/put object storage that holds the
// ledger and result artifacts of previous captures.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when the key does not exist. Any other
// error is a transport failure.
var ErrNotFound = errors.New("object not found")

// Store is a flat key/value object store.
type Store interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader) error
}

// Open returns the store addressed by location:
//
//	/some/dir, file:///some/dir     local directory
//	http://host/prefix, https://…  plain HTTP GET/PUT
//	s3://bucket/prefix             Amazon S3
//	gs://bucket/prefix             Google Cloud Storage
func Open(ctx context.Context, logger zerolog.Logger, location string) (Store, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid store location %q: %w", location, err)
	}

	switch u.Scheme {
	case "", "file":
		return NewFileStore(u.Path), nil
	case "http", "https":
		return NewHTTPStore(logger, location), nil
	case "s3":
		return NewS3Store(ctx, logger, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "gs":
		return NewGCSStore(ctx, logger, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

func join(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
