package capture

// This file contains the aggregation pass that folds every captured
// artifact into its report.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/test262-automator/automator/history"
	"github.com/test262-automator/automator/model"
	"github.com/test262-automator/automator/report"
	"github.com/test262-automator/automator/resultstream"
)

// Aggregator turns the artifacts of a capture directory into reports.
type Aggregator struct {
	logger zerolog.Logger
	layout Layout
	out    io.Writer

	// Also write a pprof profile of every report
	Profiles bool
}

func NewAggregator(logger zerolog.Logger, layout Layout, out io.Writer) *Aggregator {
	return &Aggregator{
		logger: logger,
		layout: layout,
		out:    out,
	}
}

// Run parses every configuration that has a ledger entry in the capture
// directory. The first failure aborts the whole pass.
func (a *Aggregator) Run(ctx context.Context) error {
	if info, err := os.Stat(a.layout.Dir); err != nil || !info.IsDir() {
		return fmt.Errorf("capture folder %s not found, run the capture command first", a.layout.Dir)
	}
	if err := a.layout.Ensure(); err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, a.layout.Dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		a.logger.Warn().Str("dir", a.layout.Dir).Msg("No run metadata found")
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.aggregate(ctx, entry.Meta); err != nil {
			return fmt.Errorf("%s: %w", entry.Meta.Name, err)
		}
	}
	return nil
}

// Parse folds the artifact of meta into a report.
func (a *Aggregator) Parse(ctx context.Context, meta model.RunMetadata) (*report.Report, *report.Stats, error) {
	path := a.layout.Current(OutputFile(meta))
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open results: %w", err)
	}
	defer f.Close()

	builder := report.NewBuilder()
	stats := &report.Stats{}
	_, err = resultstream.Each(f, func(rec *model.TestResult) error {
		if stats.Lines%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		stats.Observe(rec)
		return builder.Add(rec)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return &report.Report{Children: builder.Tree(), Host: meta}, stats, nil
}

func (a *Aggregator) aggregate(ctx context.Context, meta model.RunMetadata) error {
	logger := a.logger.With().Str("name", meta.Name).Logger()
	logger.Info().
		Str("engine", meta.Engine).
		Str("version", meta.Version).
		Str("revision", meta.Revision).
		Msg("Parsing data")

	rep, stats, err := a.Parse(ctx, meta)
	if err != nil {
		return err
	}

	file := ParsedFile(meta)
	target, historic := a.layout.Current(file), a.layout.HistoricPath(file)
	if err := writeJSON(target, rep); err != nil {
		return err
	}
	if err := copyFile(target, historic); err != nil {
		return fmt.Errorf("failed to save historic report: %w", err)
	}
	logger.Info().Str("path", historic).Msg("History saved")
	logger.Info().Str("path", target).Msg("Done saving parsed data")

	if a.Profiles {
		if err := a.writeProfile(meta, rep); err != nil {
			return err
		}
	}

	report.WriteSummary(a.out, meta, stats, rep.Children)
	return nil
}

func (a *Aggregator) writeProfile(meta model.RunMetadata, rep *report.Report) error {
	file := ProfileFile(meta)
	target := a.layout.Current(file)

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	defer f.Close()

	if err := report.WriteProfile(f, rep.Children, time.UnixMilli(meta.TimeStamp)); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := copyFile(target, a.layout.HistoricPath(file)); err != nil {
		return fmt.Errorf("failed to save historic profile: %w", err)
	}

	a.logger.Info().Str("path", target).Msg("Profile saved, view with go tool pprof -http=:")
	return nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// LoadReport reads a parsed report back.
func LoadReport(path string) (*report.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rep report.Report
	if err := json.NewDecoder(f).Decode(&rep); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &rep, nil
}
