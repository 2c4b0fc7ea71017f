// Package harness runs test262-harness for an engine and streams its
// JSON reporter output into a capture artifact.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// ReporterKeys are the record fields kept in the artifact.
const ReporterKeys = "relative,scenario,result,rawResult,attrs.features"

// Options describe a single harness invocation.
type Options struct {
	// Harness executable
	Binary string
	// Concurrent test workers
	Threads int
	// test262-harness --hostType
	HostType string
	// Engine binary
	HostPath string
	// Preprocessor script, empty for none
	Preprocessor string
	// Directory searched for <hostType>.js when Preprocessor is empty
	PreprocessorDir string
	// test262 checkout
	Test262Dir string
	// Extra arguments passed to the engine binary
	HostArgs string
}

// BuildArgs builds the harness argument list. The test glob is expanded
// by the harness itself.
func BuildArgs(opts Options) []string {
	test262Dir := opts.Test262Dir
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, opts.Test262Dir); err == nil {
			test262Dir = rel
		}
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = 8
	}

	args := []string{
		fmt.Sprintf("--t=%d", threads),
		"--reporter=json",
		"--hostType=" + opts.HostType,
		"--hostPath=" + opts.HostPath,
		"--test262Dir=" + test262Dir,
		"--hostArgs=" + opts.HostArgs,
	}
	if opts.Preprocessor != "" {
		args = append(args, "--preprocessor="+opts.Preprocessor)
	}
	args = append(args,
		"--reporter-keys="+ReporterKeys,
		"--",
		filepath.Join(test262Dir, "test", "**", "*"),
	)
	return args
}

// CommandLine renders the invocation as a copy-pasteable shell command.
func CommandLine(binary string, args []string) string {
	parts := []string{shellescape.Quote(binary)}
	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// ResolvePreprocessor fills in the default preprocessor of the host type
// when none is configured and one exists on disk.
func ResolvePreprocessor(opts Options) Options {
	if opts.Preprocessor != "" || opts.PreprocessorDir == "" {
		return opts
	}
	candidate := filepath.Join(opts.PreprocessorDir, opts.HostType+".js")
	if _, err := os.Stat(candidate); err == nil {
		opts.Preprocessor = candidate
	}
	return opts
}

// Runner executes the harness.
type Runner struct {
	logger zerolog.Logger
	// Harness diagnostics, os.Stderr by default
	Stderr io.Writer
	// How often transfer progress is logged
	ProgressInterval time.Duration
}

func New(logger zerolog.Logger) *Runner {
	interval := time.Second
	if os.Getenv("CI") != "" {
		interval = time.Minute
	}
	return &Runner{
		logger:           logger,
		Stderr:           os.Stderr,
		ProgressInterval: interval,
	}
}

// Run executes the harness and copies its stdout into out. Test failures
// make the harness exit non-zero; that is logged and not treated as an error.
func (r *Runner) Run(ctx context.Context, opts Options, out io.Writer) error {
	opts = ResolvePreprocessor(opts)
	args := BuildArgs(opts)

	r.logger.Info().Msg("Running the tests...")
	r.logger.Info().Str("cmd", CommandLine(opts.Binary, args)).Msg("Harness command")

	progress := newProgressWriter(r.logger, out, r.ProgressInterval)

	cmd := exec.CommandContext(ctx, opts.Binary, args...)
	cmd.Stdout = progress
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	progress.done()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		r.logger.Info().
			Int("exit_code", exitErr.ExitCode()).
			Msg("Harness completed with failures")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run test harness: %w", err)
	}

	r.logger.Info().Msg("Finished running the tests")
	return nil
}
