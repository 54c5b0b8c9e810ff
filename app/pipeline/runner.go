package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/feed-dispatch/app/database"
	"github.com/lysyi3m/feed-dispatch/app/dispatch"
	"github.com/lysyi3m/feed-dispatch/app/downloader"
	"github.com/lysyi3m/feed-dispatch/app/feed"
	"github.com/lysyi3m/feed-dispatch/app/metrics"
)

type Runner struct {
	cfg  RunConfig
	deps Deps
}

func NewRunner(cfg RunConfig, deps Deps) *Runner {
	if deps.Selector == nil {
		deps.Selector = feed.NewSelector()
	}
	return &Runner{cfg: cfg, deps: deps}
}

// Run executes one load, fetch, select, plan, download and watermark cycle.
// The summary is returned even on error and reflects the stages that ran.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	summary := &Summary{
		RunID:     r.cfg.RunID,
		StartedAt: r.cfg.RunDate,
		Watermark: r.cfg.Watermark,
		DryRun:    !r.cfg.Effects.Enabled(),
	}

	slog.Info("Run started",
		"run_id", r.cfg.RunID,
		"mode", r.cfg.Effects,
		"watermark", r.cfg.Watermark.Format(time.RFC3339))

	historyOn := r.startHistory()

	err := r.run(ctx, summary)
	summary.Duration = time.Since(started)

	if historyOn {
		r.finishHistory(summary)
	}
	r.writeMetrics(summary, err)

	if err != nil {
		slog.Error("Run aborted", "run_id", r.cfg.RunID, "error", err)
		return summary, err
	}

	slog.Info("Run finished",
		"run_id", r.cfg.RunID,
		"feeds", summary.Feeds,
		"feed_failures", summary.FeedFailures,
		"candidates", summary.Candidates,
		"skipped", summary.Skipped,
		"dispatched", summary.Dispatched,
		"failures", summary.Failures(),
		"duration", summary.Duration.Round(time.Millisecond))

	return summary, nil
}

func (r *Runner) run(ctx context.Context, summary *Summary) error {
	descriptors, err := r.deps.Loader.Run(r.cfg.Subscriptions)
	if err != nil {
		return err
	}
	summary.Feeds = len(descriptors)
	slog.Info("Subscriptions loaded", "path", r.cfg.Subscriptions, "feeds", len(descriptors))

	results := r.deps.Fetcher.FetchAll(ctx, descriptors)
	for _, result := range results {
		if result.Failed() {
			summary.FeedFailures++
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted while fetching feeds: %w", err)
	}

	items := r.deps.Selector.Run(feed.ItemLists(results), r.cfg.Watermark)
	summary.Candidates = len(items)

	items, err = r.excludeDownloaded(items)
	if err != nil {
		return err
	}
	summary.Skipped = summary.Candidates - len(items)

	outputDir := dispatch.OutputDir(r.cfg.OutputBase, r.cfg.RunDate)
	if len(items) > 0 {
		outputDir, err = dispatch.PrepareOutputDir(r.cfg.OutputBase, r.cfg.RunDate, r.cfg.Effects)
		if err != nil {
			return err
		}
	}
	summary.OutputDir = outputDir

	plan := r.deps.Planner.Run(items, outputDir)
	summary.Plan = plan
	summary.Dispatched = len(plan)

	if r.deps.Reporter != nil {
		if err := r.deps.Reporter.Dump(plan); err != nil {
			slog.Warn("Failed to dump dispatch plan", "error", err)
		}
	}

	summary.Outcomes = r.deps.Downloader.RunAll(ctx, plan)
	r.recordOutcomes(summary.Outcomes)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted while downloading: %w", err)
	}

	return r.advanceWatermark(summary)
}

func (r *Runner) excludeDownloaded(items []feed.Item) ([]feed.Item, error) {
	if !r.cfg.SkipDownloaded || r.deps.History == nil || len(items) == 0 {
		return items, nil
	}

	seen, err := r.deps.History.SucceededURLs()
	if err != nil {
		return nil, fmt.Errorf("failed to load download history: %w", err)
	}

	kept := r.deps.Selector.Exclude(items, seen)
	if skipped := len(items) - len(kept); skipped > 0 {
		slog.Info("Skipping previously downloaded items", "count", skipped)
	}
	return kept, nil
}

// advanceWatermark stores the later of the run start time and the newest
// dispatched publish time, unless that would move the watermark backwards.
// Items dated after the run started are thus not dispatched again.
func (r *Runner) advanceWatermark(summary *Summary) error {
	next := NextWatermark(r.cfg.RunDate, summary.Plan)

	if !next.After(r.cfg.Watermark) {
		slog.Warn("New watermark is not after the current one, leaving it unchanged",
			"candidate", next.Format(time.RFC3339),
			"watermark", r.cfg.Watermark.Format(time.RFC3339))
		return nil
	}

	if err := r.deps.Watermarks.Write(next); err != nil {
		return err
	}
	summary.NextWatermark = next
	summary.WatermarkWritten = r.cfg.Effects.Enabled()
	return nil
}

// NextWatermark is max(runDate, latest PublishedAt in plan).
func NextWatermark(runDate time.Time, plan []dispatch.Item) time.Time {
	next := runDate
	for _, item := range plan {
		if item.Source.PublishedAt.After(next) {
			next = item.Source.PublishedAt
		}
	}
	return next
}

func (r *Runner) startHistory() bool {
	if r.deps.History == nil || !r.cfg.Effects.Enabled() {
		return false
	}

	err := r.deps.History.StartRun(database.Run{
		ID:        r.cfg.RunID,
		StartedAt: r.cfg.RunDate,
		Watermark: r.cfg.Watermark,
	})
	if err != nil {
		slog.Warn("History unavailable for this run", "error", err)
		return false
	}
	return true
}

func (r *Runner) recordOutcomes(outcomes []downloader.Outcome) {
	if r.deps.History == nil || !r.cfg.Effects.Enabled() {
		return
	}

	for _, o := range outcomes {
		err := r.deps.History.RecordDownload(database.Download{
			RunID:       r.cfg.RunID,
			Index:       o.Item.Index,
			SourceURL:   o.Item.SourceURL,
			Title:       o.Item.Source.Title,
			Author:      o.Item.Source.AuthorName,
			Path:        o.Item.DisplayPath,
			Status:      string(o.Status),
			ExitCode:    o.ExitCode,
			Duration:    o.Duration,
			PublishedAt: o.Item.Source.PublishedAt,
		})
		if err != nil {
			slog.Warn("Failed to record download", "index", o.Item.PaddedIndex, "error", err)
		}
	}
}

func (r *Runner) finishHistory(summary *Summary) {
	err := r.deps.History.FinishRun(r.cfg.RunID, time.Now(), database.RunCounts{
		Feeds:        summary.Feeds,
		FeedFailures: summary.FeedFailures,
		Candidates:   summary.Candidates,
		Dispatched:   summary.Dispatched,
		Failures:     summary.Failures(),
	})
	if err != nil {
		slog.Warn("Failed to finish run in history", "error", err)
	}
}

func (r *Runner) writeMetrics(summary *Summary, runErr error) {
	if r.deps.Metrics == nil || r.cfg.MetricsFile == "" || !r.cfg.Effects.Enabled() {
		return
	}

	r.deps.Metrics.Observe(metrics.Run{
		Feeds:        summary.Feeds,
		FeedFailures: summary.FeedFailures,
		Candidates:   summary.Candidates,
		Dispatched:   summary.Dispatched,
		Downloads:    summary.statusCounts(),
		Duration:     summary.Duration,
		Succeeded:    runErr == nil && summary.Failures() == 0,
		FinishedAt:   summary.StartedAt.Add(summary.Duration),
	})

	if err := r.deps.Metrics.WriteFile(r.cfg.MetricsFile); err != nil {
		slog.Warn("Failed to write metrics", "path", r.cfg.MetricsFile, "error", err)
	}
}
