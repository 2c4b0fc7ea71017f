package cli

// This file contains the capture, parse and publish commands.

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/test262-automator/automator/capture"
	"github.com/test262-automator/automator/engines"
	"github.com/test262-automator/automator/harness"
	"github.com/test262-automator/automator/objstore"
)

// defaultName derives the configuration label when none was given.
func defaultName(name, engine, args string) string {
	if name != "" {
		return name
	}
	if args == "" {
		return engine
	}
	return engine + "-" + strings.ReplaceAll(args, " ", "_")
}

func (a *App) captureConfig(ctx *cli.Context) (capture.Config, error) {
	registry, err := a.registry(ctx)
	if err != nil {
		return capture.Config{}, &capture.ConfigurationError{Field: "engines", Value: ctx.Path("engines"), Err: err}
	}

	engineName := ctx.String("engine")
	engine, err := registry.Lookup(engineName)
	if err != nil {
		return capture.Config{}, &capture.ConfigurationError{Field: "engine", Value: engineName, Err: err}
	}

	test262Dir, err := filepath.Abs(ctx.Path("test262-dir"))
	if err != nil {
		return capture.Config{}, fmt.Errorf("failed to resolve test262 directory: %w", err)
	}

	version := ctx.String("engine-version")
	if version == "" {
		version, err = engines.ResolveVersion(ctx.Path("status"), engine)
		if err != nil {
			return capture.Config{}, &capture.ConfigurationError{Field: "engine-version", Value: engineName, Err: err}
		}
	}

	revision, err := a.getRevision(ctx.Context, test262Dir)
	if err != nil {
		return capture.Config{}, err
	}

	args := ctx.String("args")
	return capture.Config{
		Name:     defaultName(ctx.String("name"), engine.Name, args),
		Engine:   engine.Name,
		Version:  version,
		Revision: revision,
		Args:     args,
		Folder:   ctx.String("folder"),
		Harness: harness.Options{
			Binary:          ctx.String("harness"),
			Threads:         ctx.Int("threads"),
			HostType:        engine.HostType,
			HostPath:        filepath.Join(ctx.Path("bin-path"), engine.Binary()),
			Preprocessor:    engine.Preprocessor,
			PreprocessorDir: ctx.Path("preprocessors"),
			Test262Dir:      test262Dir,
			HostArgs:        args,
		},
	}, nil
}

func (a *App) capture(ctx *cli.Context) error {
	cfg, err := a.captureConfig(ctx)
	if err != nil {
		return err
	}

	a.logger.Info().
		Str("name", cfg.Name).
		Str("engine", cfg.Engine).
		Str("version", cfg.Version).
		Str("hostPath", cfg.Harness.HostPath).
		Str("hostType", cfg.Harness.HostType).
		Str("preprocessor", cfg.Harness.Preprocessor).
		Str("test262Dir", cfg.Harness.Test262Dir).
		Str("revision", cfg.Revision).
		Msg("Capture configuration")

	store, err := objstore.Open(ctx.Context, a.logger, ctx.String("store"))
	if err != nil {
		return &capture.ConfigurationError{Field: "store", Value: ctx.String("store"), Err: err}
	}

	layout := capture.NewLayout(ctx.Path("capture-dir"), time.Now())
	c := capture.NewCapturer(a.logger, store, harness.New(a.logger), layout)

	startTime := time.Now()
	decision, err := c.Capture(ctx.Context, cfg)
	if err != nil {
		return err
	}

	a.logger.Info().
		Str("decision", decision.String()).
		Dur("duration", time.Since(startTime).Round(time.Millisecond)).
		Msg("Capture completed")
	return nil
}

func (a *App) parse(ctx *cli.Context) error {
	layout := capture.NewLayout(ctx.Path("capture-dir"), time.Now())
	agg := capture.NewAggregator(a.logger, layout, a.out)
	agg.Profiles = ctx.Bool("profile")
	return agg.Run(ctx.Context)
}

func (a *App) publish(ctx *cli.Context) error {
	store, err := objstore.Open(ctx.Context, a.logger, ctx.String("store"))
	if err != nil {
		return &capture.ConfigurationError{Field: "store", Value: ctx.String("store"), Err: err}
	}

	layout := capture.NewLayout(ctx.Path("capture-dir"), time.Now())
	n, err := capture.NewPublisher(a.logger, store, layout).Publish(ctx.Context, ctx.Args().Slice())
	if err != nil {
		return err
	}
	a.logger.Info().Int("objects", n).Str("store", ctx.String("store")).Msg("Publish completed")
	return nil
}
