package watermark

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/feed-dispatch/app/effects"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lastRun")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFormats(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected time.Time
	}{
		{
			name:     "iso with milliseconds",
			content:  "2024-01-01T00:00:00.000Z\n",
			expected: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "rfc3339 with offset",
			content:  "2024-01-01T02:00:00+02:00",
			expected: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			content:  "2023-12-24",
			expected: time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "only first line is used",
			content:  "2024-03-05T10:11:12Z\ngarbage\n",
			expected: time.Date(2024, 3, 5, 10, 11, 12, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewFileStore(writeFile(t, tt.content), effects.Live)
			ts, err := store.Read()
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(ts), "expected %v, got %v", tt.expected, ts)
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing"), effects.Live)
	_, err := store.Read()

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "read", storeErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadUnparsable(t *testing.T) {
	for _, content := range []string{"", "\n", "yesterday\n"} {
		store := NewFileStore(writeFile(t, content), effects.Live)
		_, err := store.Read()

		var storeErr *StoreError
		assert.True(t, errors.As(err, &storeErr), "content %q should fail", content)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := writeFile(t, "2024-01-01T00:00:00.000Z\n")
	store := NewFileStore(path, effects.Live)

	ts := time.Date(2024, 2, 3, 4, 5, 6, 789_000_000, time.UTC)
	require.NoError(t, store.Write(ts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-03T04:05:06.789Z\n", string(data))

	read, err := store.Read()
	require.NoError(t, err)
	assert.True(t, ts.Equal(read))
}

func TestWriteDryRunLeavesFileUntouched(t *testing.T) {
	path := writeFile(t, "2024-01-01T00:00:00.000Z\n")
	store := NewFileStore(path, effects.Dry)

	require.NoError(t, store.Write(time.Now()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00.000Z\n", string(data))
}

func TestWriteFailure(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "no-such-dir", "lastRun"), effects.Live)
	err := store.Write(time.Now())

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "write", storeErr.Op)
}
