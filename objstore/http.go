package objstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// HTTPStore reads objects with GET and writes them with PUT below a base URL,
// e.g. a public bucket endpoint.
type HTTPStore struct {
	base   string
	client *retryablehttp.Client
}

func NewHTTPStore(logger zerolog.Logger, base string) *HTTPStore {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = leveledLogger{logger: logger.With().Str("component", "http-store").Logger()}
	return &HTTPStore{
		base:   strings.TrimSuffix(base, "/"),
		client: client,
	}
}

func (s *HTTPStore) url(key string) string {
	return s.base + "/" + key
}

func (s *HTTPStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		// public S3 buckets answer 403 for missing keys when listing is denied
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", key, resp.Status)
	}
}

func (s *HTTPStore) Put(ctx context.Context, key string, r io.Reader) error {
	// retryablehttp needs a rewindable body, it buffers plain readers
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, s.url(key), r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to store %s: unexpected status %s", key, resp.Status)
	}
	return nil
}

// leveledLogger routes retryablehttp logging to zerolog.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
