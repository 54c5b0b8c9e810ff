package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Inputs and persisted state
	Subscriptions string `long:"subscriptions" env:"SUBSCRIPTIONS" default:"./data/subscription_manager.xml" description:"Subscription list (OPML export or YAML)"`
	WatermarkFile string `long:"watermark-file" env:"WATERMARK_FILE" default:"./data/lastRun" description:"File holding the timestamp of the last successful run"`
	OutputDir     string `long:"output-dir" env:"OUTPUT_DIR" default:"./videos" description:"Base directory; each run downloads into a YYYY-MM-DD subdirectory"`
	LogDir        string `long:"log-dir" env:"LOG_DIR" default:"./logs" description:"Directory for daily log files"`
	HistoryDB     string `long:"history-db" env:"HISTORY_DB" description:"SQLite file recording runs and downloads (optional)"`
	MetricsFile   string `long:"metrics-file" env:"METRICS_FILE" description:"Prometheus textfile written after each live run (optional)"`

	// Downloader invocation
	Downloader     string   `long:"downloader" env:"DOWNLOADER" default:"youtube-dl" description:"Downloader executable"`
	Format         string   `long:"format" env:"DOWNLOAD_FORMAT" default:"bestvideo[width<2000]+bestaudio/best" description:"Format selector passed with -f"`
	DownloaderArgs []string `long:"downloader-arg" env:"DOWNLOADER_ARGS" env-delim:"," description:"Extra downloader argument, placed before the URL (repeatable; use --downloader-arg=--opt for dashed values, or pass them after --)"`

	// Feed fetching
	FetchTimeout time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"Per-feed fetch timeout, 0 disables"`
	UserAgent    string        `long:"user-agent" env:"USER_AGENT" default:"Feed Dispatch/1.0" description:"User agent string for HTTP requests"`

	// Run behaviour
	DryRun         bool `long:"dry-run" env:"DRY_RUN" description:"Plan and log without downloading, creating directories or updating the watermark"`
	SkipDownloaded bool `long:"skip-downloaded" env:"SKIP_DOWNLOADED" description:"Skip items already downloaded successfully according to --history-db"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for the run date (e.g., UTC, Europe/Berlin)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses args (without the program name) and the environment. It
// returns nil, nil when help was requested. Arguments left after the
// options, normally those following --, are appended to DownloaderArgs.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Subscriptions:  raw.Subscriptions,
		WatermarkFile:  raw.WatermarkFile,
		OutputDir:      raw.OutputDir,
		LogDir:         raw.LogDir,
		HistoryDB:      raw.HistoryDB,
		MetricsFile:    raw.MetricsFile,
		Downloader:     raw.Downloader,
		Format:         raw.Format,
		DownloaderArgs: append(raw.DownloaderArgs, rest...),
		FetchTimeout:   raw.FetchTimeout,
		UserAgent:      raw.UserAgent,
		DryRun:         raw.DryRun,
		SkipDownloaded: raw.SkipDownloaded,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.Downloader == "" {
		return errors.New("downloader must not be empty")
	}
	if cfg.Format == "" {
		return errors.New("format must not be empty")
	}
	if cfg.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", cfg.FetchTimeout)
	}
	if cfg.SkipDownloaded && cfg.HistoryDB == "" {
		return errors.New("--skip-downloaded requires --history-db")
	}
	return nil
}

func loadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(timezone)
}
