package dispatch

import (
	"fmt"

	"github.com/lysyi3m/feed-dispatch/app/feed"
)

const (
	// DefaultFormat picks the best video narrower than 2000px merged with the
	// best audio, or the best single file when no such pair exists.
	DefaultFormat = "bestvideo[width<2000]+bestaudio/best"

	// ExtensionPlaceholder is expanded by the downloader, not by us.
	ExtensionPlaceholder = "%(ext)s"

	MinIndexWidth = 3
)

type Item struct {
	Index       int       `json:"index"`
	PaddedIndex string    `json:"padded_index"`
	DisplayPath string    `json:"path"`
	SourceURL   string    `json:"url"`
	Args        []string  `json:"args"`
	Source      feed.Item `json:"item"`
}

type DispatchError struct {
	Path string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("output directory %s: %v", e.Path, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
