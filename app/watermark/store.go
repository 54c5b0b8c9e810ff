package watermark

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lysyi3m/feed-dispatch/app/effects"
)

// Layout matches the one-line ISO-8601 record written after each run.
const Layout = "2006-01-02T15:04:05.000Z07:00"

var readLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("watermark %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

type FileStore struct {
	path string
	fx   effects.Mode
}

func NewFileStore(path string, fx effects.Mode) *FileStore {
	return &FileStore{path: path, fx: fx}
}

func (s *FileStore) Path() string {
	return s.path
}

// Read returns the timestamp on the first line of the watermark file.
func (s *FileStore) Read() (time.Time, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return time.Time{}, &StoreError{Op: "read", Path: s.path, Err: err}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var line string
	if scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
	}
	if line == "" {
		return time.Time{}, &StoreError{Op: "read", Path: s.path, Err: fmt.Errorf("file is empty")}
	}

	ts, err := parse(line)
	if err != nil {
		return time.Time{}, &StoreError{Op: "parse", Path: s.path, Err: err}
	}

	slog.Debug("Watermark loaded", "path", s.path, "watermark", ts)
	return ts, nil
}

// Write replaces the stored value. Previous values are not kept.
func (s *FileStore) Write(ts time.Time) error {
	if !s.fx.Enabled() {
		slog.Debug("Dry run, watermark left unchanged", "path", s.path)
		return nil
	}

	line := Format(ts) + "\n"
	if err := os.WriteFile(s.path, []byte(line), 0o644); err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}

	slog.Debug("Watermark written", "path", s.path, "watermark", line[:len(line)-1])
	return nil
}

func Format(ts time.Time) string {
	return ts.UTC().Format(Layout)
}

func parse(value string) (time.Time, error) {
	for _, layout := range readLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
