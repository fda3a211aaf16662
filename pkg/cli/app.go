package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mchmarny/brisque/pkg/assets"
	"github.com/mchmarny/brisque/pkg/data"
	"github.com/mchmarny/brisque/pkg/logging"
	"github.com/mchmarny/brisque/pkg/quality"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	debugFlagName        = "debug"
	logLevelFlagName     = "log-level"
	cacheDirFlagName     = "cache-dir"
	formatFlagName       = "format"
	maxDimensionFlagName = "max-dimension"
	scoreCacheFlagName   = "score-cache"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute runs the CLI with the process arguments and standard streams and
// exits with the resulting code.
func Execute(engine quality.Engine) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr, engine)
	stop()
	os.Exit(code)
}

// run returns the process exit code. Failures are reported as one line on stderr.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, engine quality.Engine, storeOpts ...assets.Option) int {
	app := newApp(engine, storeOpts...)
	app.Reader = stdin
	app.Writer = stdout
	app.ErrWriter = stderr

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

type appConfig struct {
	CacheDir     string
	Format       string
	MaxDimension int
	ScoreCache   string
	DB           *sql.DB

	engine    quality.Engine
	storeOpts []assets.Option
}

func (c *appConfig) store() *assets.Store {
	return assets.NewStore(c.CacheDir, c.storeOpts...)
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp(engine quality.Engine, storeOpts ...assets.Option) *urfave.Command {
	return &urfave.Command{
		Name:                  "brisque",
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Score the perceptual quality of a base64 encoded image read from stdin",
		UsageText: `base64 -w0 photo.jpg | brisque                  # prints {"score": <value>}
   base64 -w0 photo.jpg | brisque --format yaml    # same result as YAML
   brisque assets                                  # download model files and show their status`,
		Metadata: map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  logLevelFlagName,
				Usage: "Log level [debug, info, warn, error]",
				Value: logging.DefaultLevel,
			},
			&urfave.StringFlag{
				Name:  cacheDirFlagName,
				Usage: "Directory holding the BRISQUE model files",
				Value: defaultCacheDir(),
			},
			&urfave.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&urfave.IntFlag{
				Name:  maxDimensionFlagName,
				Usage: "Downscale images whose longer side exceeds this many pixels before scoring (0 disables)",
			},
			&urfave.StringFlag{
				Name:  scoreCacheFlagName,
				Usage: "Sqlite database file, or directory for " + data.DataFileName + ", used to memoize scores (optional)",
			},
		},
		Commands: []*urfave.Command{
			newAssetsCmd(),
		},
		Action: cmdScore,
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			level := cmd.String(logLevelFlagName)
			if cmd.Bool(debugFlagName) {
				level = "debug"
			}
			initLogging(cmd.ErrWriter, level)

			cfg := &appConfig{
				CacheDir:     cmd.String(cacheDirFlagName),
				Format:       formatJSON,
				MaxDimension: cmd.Int(maxDimensionFlagName),
				ScoreCache:   cmd.String(scoreCacheFlagName),
				engine:       engine,
				storeOpts:    storeOpts,
			}

			f := cmd.String(formatFlagName)
			if f == formatYAML || f == "yml" {
				cfg.Format = formatYAML
			}

			if cfg.ScoreCache != "" {
				cfg.DB = openScoreCache(cfg.ScoreCache)
			}

			cmd.Metadata[appConfigKey] = cfg
			slog.Debug("config", "cache_dir", cfg.CacheDir, "format", cfg.Format, "max_dimension", cfg.MaxDimension)
			return ctx, nil
		},
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

// openScoreCache returns nil when the database cannot be used; scoring then
// runs without memoization. A directory path holds the default database file.
func openScoreCache(path string) *sql.DB {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, data.DataFileName)
	}

	if err := data.Init(path); err != nil {
		slog.Warn("score cache disabled", "path", path, "error", err)
		return nil
	}
	db, err := data.GetDB(path)
	if err != nil {
		slog.Warn("score cache disabled", "path", path, "error", err)
		return nil
	}

	if n, err := data.CountScores(db); err == nil {
		slog.Debug("score cache opened", "path", path, "scores", n)
	}
	return db
}

func initLogging(w io.Writer, level string) {
	logging.SetDefaultCLILogger(w, level)
}

// defaultCacheDir is the .cache directory next to the executable.
func defaultCacheDir() string {
	exe, err := os.Executable()
	if err != nil {
		return assets.CacheDirName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), assets.CacheDirName)
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
