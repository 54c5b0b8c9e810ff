package cfg

import (
	"time"
)

type Cfg struct {
	// Inputs and persisted state
	Subscriptions string
	WatermarkFile string
	OutputDir     string
	LogDir        string
	HistoryDB     string
	MetricsFile   string

	// Downloader invocation
	Downloader     string
	Format         string
	DownloaderArgs []string

	// Feed fetching
	FetchTimeout time.Duration
	UserAgent    string

	// Run behaviour
	DryRun         bool
	SkipDownloaded bool

	// Application metadata
	Timezone string
	Location *time.Location
	Debug    bool
	Version  string
}
