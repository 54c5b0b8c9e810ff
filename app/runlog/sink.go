package runlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink appends to the daily log file and mirrors every write to the console.
type Sink struct {
	mu   sync.Mutex
	file *os.File
	out  io.Writer
	path string
}

func FileName(runDate time.Time) string {
	return runDate.Format(time.DateOnly) + ".log"
}

// Open creates dir if needed and opens dir/YYYY-MM-DD.log for append.
func Open(dir string, runDate time.Time, console io.Writer) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, FileName(runDate))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	if console == nil {
		console = os.Stdout
	}

	return &Sink{
		file: file,
		out:  io.MultiWriter(file, console),
		path: path,
	}, nil
}

func (s *Sink) Path() string {
	return s.path
}

func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

func (s *Sink) Line(format string, args ...any) {
	_, _ = fmt.Fprintf(s, format+"\n", args...)
}

// Dump writes v as indented JSON.
func (s *Sink) Dump(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode dump: %w", err)
	}
	_, err = s.Write(append(data, '\n'))
	return err
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
