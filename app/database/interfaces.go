package database

import (
	"time"
)

type RunRepository interface {
	StartRun(run Run) error
	FinishRun(runID string, finishedAt time.Time, counts RunCounts) error
	GetRun(runID string) (*Run, error)

	RecordDownload(d Download) error
	GetDownloads(runID string) ([]Download, error)
	SucceededURLs() (map[string]bool, error)
}
