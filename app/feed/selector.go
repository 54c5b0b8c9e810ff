package feed

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// Selector merges per-feed item lists into the chronological run queue.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// Run flattens perFeed in feed-list then within-feed order, keeps items
// published strictly after watermark and stable-sorts them oldest first.
func (s *Selector) Run(perFeed [][]Item, watermark time.Time) []Item {
	merged := lo.Flatten(perFeed)

	fresh := lo.Filter(merged, func(item Item, _ int) bool {
		return item.PublishedAt.After(watermark)
	})

	slices.SortStableFunc(fresh, func(a, b Item) int {
		return a.PublishedAt.Compare(b.PublishedAt)
	})

	return fresh
}

// Exclude drops items whose source URL is in seen, preserving order.
func (s *Selector) Exclude(items []Item, seen map[string]bool) []Item {
	if len(seen) == 0 {
		return items
	}
	return lo.Reject(items, func(item Item, _ int) bool {
		return seen[item.SourceURL]
	})
}

// ItemLists extracts the per-feed item slices from fetch results, in order.
func ItemLists(results []Result) [][]Item {
	return lo.Map(results, func(r Result, _ int) []Item {
		return r.Items
	})
}
