// Package capture orchestrates a test262 capture: it decides whether a
// previous artifact can be reused, keeps the run ledger, and turns
// captured artifacts into reports.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/test262-automator/automator/harness"
	"github.com/test262-automator/automator/history"
	"github.com/test262-automator/automator/model"
	"github.com/test262-automator/automator/objstore"
)

// Config is a single capture request.
type Config struct {
	Name     string
	Engine   string
	Version  string
	Revision string
	Args     string
	Folder   string

	Harness harness.Options
}

// Validate rejects names that can not be used as file and object keys.
func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return &ConfigurationError{Field: "name", Value: c.Name, Err: errors.New("a name is required")}
	case strings.ContainsAny(c.Name, `/\`) || c.Name == "." || c.Name == "..":
		return &ConfigurationError{Field: "name", Value: c.Name, Err: errors.New("names can not contain path separators")}
	case strings.ContainsAny(c.Folder, `/\`):
		return &ConfigurationError{Field: "folder", Value: c.Folder, Err: errors.New("folders can not contain path separators")}
	}
	return nil
}

// Metadata returns the ledger identity of the capture.
func (c Config) Metadata() model.RunMetadata {
	return model.RunMetadata{
		Name:     c.Name,
		Engine:   c.Engine,
		Version:  c.Version,
		Revision: c.Revision,
		Args:     c.Args,
		Folder:   c.Folder,
	}
}

// Harness produces a fresh result artifact.
type Harness interface {
	Run(ctx context.Context, opts harness.Options, out io.Writer) error
}

// Capturer runs the capture state machine:
// check the cache, then either reuse the stored artifact or run the harness.
type Capturer struct {
	logger  zerolog.Logger
	store   objstore.Store
	harness Harness
	layout  Layout
	now     func() time.Time
}

func NewCapturer(logger zerolog.Logger, store objstore.Store, h Harness, layout Layout) *Capturer {
	return &Capturer{
		logger:  logger,
		store:   store,
		harness: h,
		layout:  layout,
		now:     time.Now,
	}
}

// Capture brings the current artifact of cfg up to date. The ledger is
// persisted before the artifact is touched, so an interrupted capture
// still shows up as an attempt.
func (c *Capturer) Capture(ctx context.Context, cfg Config) (history.Decision, error) {
	if err := cfg.Validate(); err != nil {
		return history.Rerun, err
	}

	// CHECK_CACHE
	prev, err := c.fetchMeta(ctx, cfg.Name)
	if err != nil {
		return history.Rerun, err
	}
	decision := history.Decide(prev, cfg.Version, cfg.Revision)

	logger := c.logger.With().Str("name", cfg.Name).Str("decision", decision.String()).Logger()
	switch {
	case decision == history.Reuse:
		logger.Info().Msg("The tests are up to date, found the tests for the same engine version and revision")
	case prev != nil:
		logger.Info().
			Str("version", prev.Version).
			Str("revision", prev.Revision).
			Msg("Found results meta for a different engine version or revision, running the tests")
	default:
		logger.Info().Msg("Failed finding a meta file, running the tests")
	}

	meta := history.Next(prev, cfg.Metadata(), decision, c.now())
	if err := c.saveMeta(logger, meta); err != nil {
		return decision, err
	}

	if decision == history.Reuse {
		// REUSE_PATH
		return decision, c.copyResults(ctx, logger, meta)
	}
	// RERUN_PATH
	return decision, c.captureResults(ctx, logger, cfg, meta)
}

func (c *Capturer) fetchMeta(ctx context.Context, name string) (*model.RunMetadata, error) {
	key := history.MetaFile(name)
	c.logger.Info().Str("key", key).Msg("Fetching run metadata")

	rc, err := c.store.Get(ctx, key)
	if errors.Is(err, objstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &TransportError{Op: "fetch", Key: key, Err: err}
	}
	defer rc.Close()

	meta, err := history.Decode(rc)
	if err != nil {
		return nil, &TransportError{Op: "decode", Key: key, Err: err}
	}
	return &meta, nil
}

func (c *Capturer) saveMeta(logger zerolog.Logger, meta model.RunMetadata) error {
	if err := c.layout.Ensure(); err != nil {
		return err
	}

	file := MetaFile(meta)
	current, historic := c.layout.Current(file), c.layout.HistoricPath(file)
	logger.Info().Str("path", historic).Msg("Saving the historic metadata")
	logger.Info().Str("path", current).Msg("Saving the metadata")

	return history.Save(meta, current, historic)
}

func (c *Capturer) copyResults(ctx context.Context, logger zerolog.Logger, meta model.RunMetadata) error {
	key := OutputFile(meta)
	rc, err := c.store.Get(ctx, key)
	if errors.Is(err, objstore.ErrNotFound) {
		return fmt.Errorf("stored results %s are missing although the metadata matches: %w", key, err)
	}
	if err != nil {
		return &TransportError{Op: "fetch", Key: key, Err: err}
	}
	defer rc.Close()

	current, err := os.Create(c.layout.Current(key))
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer current.Close()

	historic, err := os.Create(c.layout.HistoricPath(key))
	if err != nil {
		return fmt.Errorf("failed to create historic output file: %w", err)
	}
	defer historic.Close()

	n, err := io.Copy(io.MultiWriter(current, historic), rc)
	if err != nil {
		return &TransportError{Op: "copy", Key: key, Err: err}
	}
	if err := current.Close(); err != nil {
		return err
	}
	if err := historic.Close(); err != nil {
		return err
	}

	logger.Info().Int64("bytes", n).Str("path", current.Name()).Msg("Done copying output files")
	return nil
}

func (c *Capturer) captureResults(ctx context.Context, logger zerolog.Logger, cfg Config, meta model.RunMetadata) error {
	path := c.layout.Current(OutputFile(meta))
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := c.harness.Run(ctx, cfg.Harness, out); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Info().Str("path", path).Msg("Results saved")
	return nil
}
