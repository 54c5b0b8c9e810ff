package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/feed-dispatch/app/effects"
)

const dirPermissions = 0o755

// OutputDir is the per-day destination under base, dated in runDate's location.
func OutputDir(base string, runDate time.Time) string {
	return filepath.Join(base, runDate.Format(time.DateOnly))
}

// PrepareOutputDir creates base/YYYY-MM-DD. A live run refuses to reuse an
// existing directory; a dry run only reports what would happen.
func PrepareOutputDir(base string, runDate time.Time, fx effects.Mode) (string, error) {
	dir := OutputDir(base, runDate)

	_, err := os.Stat(dir)
	switch {
	case err == nil:
		if !fx.Enabled() {
			slog.Warn("Output directory already exists, dry run continues", "path", dir)
			return dir, nil
		}
		return "", &DispatchError{Path: dir, Err: errors.New("already exists")}
	case !errors.Is(err, os.ErrNotExist):
		return "", &DispatchError{Path: dir, Err: err}
	}

	if !fx.Enabled() {
		slog.Info("Dry run, output directory not created", "path", dir)
		return dir, nil
	}

	if err := os.MkdirAll(base, dirPermissions); err != nil {
		return "", &DispatchError{Path: dir, Err: fmt.Errorf("failed to create base directory: %w", err)}
	}
	if err := os.Mkdir(dir, dirPermissions); err != nil {
		return "", &DispatchError{Path: dir, Err: err}
	}

	slog.Info("Output directory created", "path", dir)
	return dir, nil
}
