package database

import (
	"time"
)

// Run is one pipeline execution.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Watermark    time.Time
	DryRun       bool
	Feeds        int
	FeedFailures int
	Candidates   int
	Dispatched   int
	Failures     int
}

// RunCounts are the totals recorded when a run finishes.
type RunCounts struct {
	Feeds        int
	FeedFailures int
	Candidates   int
	Dispatched   int
	Failures     int
}

// Download is the outcome of one downloader invocation.
type Download struct {
	ID          int64
	RunID       string
	Index       int
	SourceURL   string
	Title       string
	Author      string
	Path        string
	Status      string // succeeded, failed, launch_failed
	ExitCode    int
	Duration    time.Duration
	PublishedAt time.Time
	CreatedAt   time.Time
}
