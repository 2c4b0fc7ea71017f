package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"

	"github.com/test262-automator/automator/engines"
)

const AppName = "test262-automator"

// DefaultStore is where published captures live.
const DefaultStore = "https://s3.amazonaws.com/test262-automator/captures"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
	out    io.Writer
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		out:    os.Stdout,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Capture and aggregate test262 results of JavaScript engines",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.PathFlag{
					Name:  "capture-dir",
					Usage: "Directory holding ledgers, artifacts and reports",
					Value: "capture",
				},
				&cli.PathFlag{
					Name:  "engines",
					Usage: "YAML engine registry replacing the built-in one",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}

	captureFlags := []cli.Flag{
		&cli.PathFlag{
			Name:  "config",
			Usage: "YAML file providing defaults for the capture flags",
		},
		altsrc.NewPathFlag(&cli.PathFlag{
			Name:     "test262-dir",
			Aliases:  []string{"t"},
			Usage:    "test262 checkout to run",
			EnvVars:  []string{"TEST262_DIR"},
			Required: true,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "engine",
			Aliases: []string{"e"},
			Usage:   "Engine to run, see the engines command",
			EnvVars: []string{"ENGINE_NAME"},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "args",
			Aliases: []string{"a"},
			Usage:   "Extra arguments passed to the engine binary",
			EnvVars: []string{"HOSTARGS"},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Configuration label (default: the engine name, suffixed with the args)",
			EnvVars: []string{"ENGINE_LABEL"},
		}),
		altsrc.NewPathFlag(&cli.PathFlag{
			Name:    "bin-path",
			Aliases: []string{"p"},
			Usage:   "Directory holding the engine binaries",
			EnvVars: []string{"BIN_PATH"},
			Value:   "binpath",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "store",
			Usage:   "Remote store of previous captures (file, http(s), s3 or gs location)",
			EnvVars: []string{"AUTOMATOR_STORE"},
			Value:   DefaultStore,
		}),
		altsrc.NewPathFlag(&cli.PathFlag{
			Name:  "status",
			Usage: "jsvu status file with the installed engine versions",
			Value: "status.json",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "engine-version",
			Usage: "Engine version, overrides the status file",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "folder",
			Usage: "Sub-suite label appended to the artifact names",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "harness",
			Usage: "test262-harness executable",
			Value: "./node_modules/.bin/test262-harness",
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:  "threads",
			Usage: "Concurrent harness workers",
			Value: 8,
		}),
		altsrc.NewPathFlag(&cli.PathFlag{
			Name:  "preprocessors",
			Usage: "Directory searched for <hostType>.js preprocessors",
			Value: "preprocessors",
		}),
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "capture",
		Usage:  "Run test262 against an engine, reusing the stored results when nothing changed",
		Action: app.capture,
		Flags:  captureFlags,
		Before: altsrc.InitInputSourceWithContext(captureFlags, altsrc.NewYamlSourceFromFlagFunc("config")),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "parse",
		Usage:  "Fold every captured artifact into a report",
		Action: app.parse,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "profile",
				Usage: "Also write a pprof profile of every report",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "publish",
		Usage:     "Upload ledgers, artifacts and reports to the remote store",
		ArgsUsage: "[NAME...]",
		Action:    app.publish,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Remote store (file, http(s), s3 or gs location)",
				EnvVars: []string{"AUTOMATOR_STORE"},
				Value:   DefaultStore,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List the captured configurations",
		Action: app.list,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View a level of a parsed report",
		ArgsUsage:       "[NAME|INDEX] [PATH]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View a level of a parsed report.

Arguments:
  0           View the most recent capture (default)
  -1          View the 2nd most recent capture
  <name>      View the configuration with this name
  PATH        Folder or file inside the report, e.g. built-ins/Array

Examples:
  test262-automator view                     # top level of the latest report
  test262-automator view v8 built-ins/Array  # Array folder of the v8 report`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "engines",
		Usage:  "List the supported engines",
		Action: app.listEngines,
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

func (a *App) registry(ctx *cli.Context) (*engines.Registry, error) {
	path := ctx.Path("engines")
	if path == "" {
		return engines.Default(), nil
	}
	a.logger.Debug().Str("path", path).Msg("Loading engine registry")
	return engines.Load(path)
}
