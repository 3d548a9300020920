package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/strideapp/stride/internal/commands"
	"github.com/strideapp/stride/internal/core/config"
	"github.com/strideapp/stride/internal/stride"
	"github.com/strideapp/stride/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		appCloser func()
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "stride",
		Usage:     "Track a diet or lifestyle program from the terminal",
		UsageText: "stride [global options] command [command options]",
		Description: `Stride keeps your active program in sync with the progress service.

Checklist toggles apply instantly and are written back in coalesced
batches; a flaky connection never blanks your progress.

Run 'stride tui' to open the interactive tracker.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("STRIDE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/stride.log)",
				Sources:     cli.EnvVars("STRIDE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("STRIDE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("STRIDE_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "api-url",
				Usage:       "progress API base URL",
				Sources:     cli.EnvVars("STRIDE_API_URL"),
				Destination: &flags.APIURL,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "progress API token",
				Sources:     cli.EnvVars("STRIDE_TOKEN"),
				Destination: &flags.Token,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/stride.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "stride.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			if err := os.MkdirAll(flags.DataDir, 0o755); err != nil {
				return ctx, fmt.Errorf("create data dir: %w", err)
			}

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			// Flags override config file values.
			if flags.APIURL != "" {
				cfg.API.BaseURL = flags.APIURL
			}
			if flags.Token != "" {
				cfg.API.Token = flags.Token
			}
			flags.Config = cfg

			strideApp, closeApp, err := stride.NewApp(cfg)
			if err != nil {
				return ctx, err
			}
			flags.App = strideApp
			appCloser = closeApp

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// A mutation still inside the debounce window must not be lost
			// to process exit.
			if flags.App != nil {
				if err := flags.App.Progress.Flush(); err != nil {
					log.Warn().Err(err).Msg("final checklist write failed")
				}
			}

			if appCloser != nil {
				appCloser()
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewStatusCmd(flags).Register(app)
	app = commands.NewCheckCmd(flags).Register(app)
	app = commands.NewDayCmd(flags).Register(app)
	app = commands.NewPauseCmd(flags).Register(app)
	app = commands.NewStopCmd(flags).Register(app)
	app = commands.NewTuiCmd(flags).Register(app)

	if err := app.Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
