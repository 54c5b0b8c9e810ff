package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/feed-dispatch/app/cfg"
	"github.com/lysyi3m/feed-dispatch/app/database"
	"github.com/lysyi3m/feed-dispatch/app/dispatch"
	"github.com/lysyi3m/feed-dispatch/app/downloader"
	"github.com/lysyi3m/feed-dispatch/app/effects"
	"github.com/lysyi3m/feed-dispatch/app/feed"
	"github.com/lysyi3m/feed-dispatch/app/metrics"
	"github.com/lysyi3m/feed-dispatch/app/pipeline"
	"github.com/lysyi3m/feed-dispatch/app/runlog"
	"github.com/lysyi3m/feed-dispatch/app/watermark"
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(pipeline.ExitError)
	}
	if appCfg == nil {
		return
	}

	runDate := time.Now().In(appCfg.Location)

	sink, err := runlog.Open(appCfg.LogDir, runDate, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(pipeline.ExitError)
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := run(ctx, appCfg, sink, runDate)

	stop()
	sink.Close()
	os.Exit(code)
}

func run(ctx context.Context, appCfg *cfg.Cfg, sink *runlog.Sink, runDate time.Time) int {
	fx := effects.FromDryRun(appCfg.DryRun)

	slog.Info("Starting feed-dispatch",
		"version", appCfg.Version,
		"mode", fx,
		"subscriptions", appCfg.Subscriptions,
		"log_file", sink.Path())

	store := watermark.NewFileStore(appCfg.WatermarkFile, fx)

	runCfg, err := pipeline.NewRunConfig(store, runDate, appCfg.OutputDir, appCfg.Subscriptions, fx)
	if err != nil {
		slog.Error("Failed to read watermark", "error", err)
		return pipeline.ExitCode(err, nil)
	}
	runCfg.SkipDownloaded = appCfg.SkipDownloaded
	runCfg.MetricsFile = appCfg.MetricsFile

	deps := pipeline.Deps{
		Loader:     feed.NewSubscriptionLoader(),
		Fetcher:    feed.NewFetcher(&http.Client{}, feed.NewParser(), appCfg.UserAgent, appCfg.FetchTimeout),
		Selector:   feed.NewSelector(),
		Planner:    dispatch.NewPlanner(appCfg.Downloader, appCfg.Format, appCfg.DownloaderArgs, sink),
		Downloader: downloader.NewInvoker(appCfg.Downloader, fx, sink),
		Watermarks: store,
		Reporter:   sink,
	}

	if appCfg.HistoryDB != "" {
		db, err := database.Open(appCfg.HistoryDB)
		if err != nil {
			slog.Error("Failed to open history database", "path", appCfg.HistoryDB, "error", err)
			return pipeline.ExitError
		}
		defer db.Close()
		deps.History = database.NewHistoryRepository(db)
	}

	if appCfg.MetricsFile != "" {
		deps.Metrics = metrics.NewRecorder()
	}

	summary, err := pipeline.NewRunner(runCfg, deps).Run(ctx)
	code := pipeline.ExitCode(err, summary)

	slog.Info("Exiting", "run_id", runCfg.RunID, "exit_code", code)
	return code
}
