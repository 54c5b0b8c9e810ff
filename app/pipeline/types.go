package pipeline

import (
	"context"
	"time"

	"github.com/lysyi3m/feed-dispatch/app/database"
	"github.com/lysyi3m/feed-dispatch/app/dispatch"
	"github.com/lysyi3m/feed-dispatch/app/downloader"
	"github.com/lysyi3m/feed-dispatch/app/effects"
	"github.com/lysyi3m/feed-dispatch/app/feed"
	"github.com/lysyi3m/feed-dispatch/app/metrics"
)

// RunConfig is fixed for the lifetime of one run.
type RunConfig struct {
	RunID          string
	RunDate        time.Time
	OutputBase     string
	Subscriptions  string
	Watermark      time.Time
	SkipDownloaded bool
	MetricsFile    string
	Effects        effects.Mode
}

type SubscriptionLoader interface {
	Run(path string) ([]feed.Descriptor, error)
}

type FeedFetcher interface {
	FetchAll(ctx context.Context, descriptors []feed.Descriptor) []feed.Result
}

type Downloader interface {
	RunAll(ctx context.Context, items []dispatch.Item) []downloader.Outcome
}

type WatermarkStore interface {
	Read() (time.Time, error)
	Write(ts time.Time) error
}

type Reporter interface {
	Line(format string, args ...any)
	Dump(v any) error
}

// Deps are the stage implementations a Runner drives. History and Metrics
// are optional.
type Deps struct {
	Loader     SubscriptionLoader
	Fetcher    FeedFetcher
	Selector   *feed.Selector
	Planner    *dispatch.Planner
	Downloader Downloader
	Watermarks WatermarkStore
	Reporter   Reporter
	History    database.RunRepository
	Metrics    *metrics.Recorder
}

type Summary struct {
	RunID            string
	StartedAt        time.Time
	Duration         time.Duration
	Watermark        time.Time
	NextWatermark    time.Time
	WatermarkWritten bool
	DryRun           bool
	Feeds            int
	FeedFailures     int
	Candidates       int
	Skipped          int
	Dispatched       int
	OutputDir        string
	Plan             []dispatch.Item
	Outcomes         []downloader.Outcome
}

// Failures counts downloads that failed or could not be started.
func (s *Summary) Failures() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

func (s *Summary) statusCounts() map[string]int {
	counts := make(map[string]int)
	for _, o := range s.Outcomes {
		counts[string(o.Status)]++
	}
	return counts
}
