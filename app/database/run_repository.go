package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const timeLayout = time.RFC3339Nano

// HistoryRepository handles database operations for runs and downloads
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// StartRun inserts the run row before any download is recorded
func (r *HistoryRepository) StartRun(run Run) error {
	_, err := r.db.Exec(`
		INSERT INTO runs (id, started_at, watermark, dry_run)
		VALUES (?, ?, ?, ?)
	`, run.ID, formatTime(run.StartedAt), formatTime(run.Watermark), run.DryRun)

	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	return nil
}

// FinishRun stores the final counts of a run
func (r *HistoryRepository) FinishRun(runID string, finishedAt time.Time, counts RunCounts) error {
	res, err := r.db.Exec(`
		UPDATE runs
		SET finished_at = ?, feeds = ?, feed_failures = ?, candidates = ?, dispatched = ?, failures = ?
		WHERE id = ?
	`, formatTime(finishedAt), counts.Feeds, counts.FeedFailures, counts.Candidates,
		counts.Dispatched, counts.Failures, runID)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run: run %s not found", runID)
	}

	return nil
}

// GetRun returns a run by ID, or nil if it does not exist
func (r *HistoryRepository) GetRun(runID string) (*Run, error) {
	var run Run
	var startedAt, watermark string
	var finishedAt sql.NullString

	err := r.db.QueryRow(`
		SELECT id, started_at, finished_at, watermark, dry_run,
		       feeds, feed_failures, candidates, dispatched, failures
		FROM runs
		WHERE id = ?
	`, runID).Scan(&run.ID, &startedAt, &finishedAt, &watermark, &run.DryRun,
		&run.Feeds, &run.FeedFailures, &run.Candidates, &run.Dispatched, &run.Failures)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.Watermark, err = parseTime(watermark); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		ts, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &ts
	}

	return &run, nil
}

// RecordDownload stores the outcome of one downloader invocation
func (r *HistoryRepository) RecordDownload(d Download) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO downloads (
			run_id, item_index, source_url, title, author, path,
			status, exit_code, duration_ms, published_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.RunID, d.Index, d.SourceURL, d.Title, d.Author, d.Path,
		d.Status, d.ExitCode, d.Duration.Milliseconds(),
		formatTime(d.PublishedAt), formatTime(createdAt))

	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}

	return nil
}

// GetDownloads returns the downloads of a run in plan order
func (r *HistoryRepository) GetDownloads(runID string) ([]Download, error) {
	rows, err := r.db.Query(`
		SELECT id, run_id, item_index, source_url, title, author, path,
		       status, exit_code, duration_ms, published_at, created_at
		FROM downloads
		WHERE run_id = ?
		ORDER BY item_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get downloads: %w", err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		var d Download
		var durationMS int64
		var publishedAt, createdAt string

		err := rows.Scan(
			&d.ID, &d.RunID, &d.Index, &d.SourceURL, &d.Title, &d.Author, &d.Path,
			&d.Status, &d.ExitCode, &durationMS, &publishedAt, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download row: %w", err)
		}

		d.Duration = time.Duration(durationMS) * time.Millisecond
		if d.PublishedAt, err = parseTime(publishedAt); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate download rows: %w", err)
	}

	return downloads, nil
}

// SucceededURLs returns every source URL with at least one successful download
func (r *HistoryRepository) SucceededURLs() (map[string]bool, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT source_url FROM downloads WHERE status = 'succeeded'
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get succeeded downloads: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan source url: %w", err)
		}
		urls[url] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source urls: %w", err)
	}

	return urls, nil
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	ts, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return ts, nil
}
