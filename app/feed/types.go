package feed

import (
	"time"
)

// Subscription types

type Descriptor struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Feed processing types

type Item struct {
	Title       string    `json:"title"` // filesystem-safe, see filename.Sanitize
	SourceURL   string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	AuthorName  string    `json:"author"`
	FeedName    string    `json:"feed"`
}

// Result is the outcome of fetching and parsing one subscription.
type Result struct {
	Descriptor Descriptor
	Items      []Item
	Dropped    int
	Err        error
}

func (r Result) Failed() bool {
	return r.Err != nil
}
