package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves and parses subscription feeds.
type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string
	timeout    time.Duration
}

// NewFetcher returns a Fetcher. A zero timeout leaves each request bounded
// only by the client and the caller's context.
func NewFetcher(httpClient *http.Client, parser *Parser, userAgent string, timeout time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// FetchAll fetches every descriptor concurrently and waits for all of them.
// Results are positional: results[i] belongs to descriptors[i]. A failing
// feed yields an empty item list and a non-nil Err in its own slot only.
func (f *Fetcher) FetchAll(ctx context.Context, descriptors []Descriptor) []Result {
	results := make([]Result, len(descriptors))

	var g errgroup.Group
	for i, d := range descriptors {
		g.Go(func() error {
			results[i] = f.Run(ctx, d)
			return nil
		})
	}
	// Goroutines never fail the group; per-feed errors live in Result.Err.
	g.Wait()

	return results
}

// Run fetches and parses a single feed.
func (f *Fetcher) Run(ctx context.Context, d Descriptor) Result {
	start := time.Now()
	result := Result{Descriptor: d}

	data, err := f.fetchFeed(ctx, d)
	if err != nil {
		result.Err = err
		slog.Warn("Feed fetch failed, skipping", "feed", d.Name, "url", d.URL, "error", err)
		return result
	}

	items, dropped, err := f.parser.Run(data, d.Name)
	if err != nil {
		result.Err = &ParseError{Feed: d.Name, Err: err}
		slog.Warn("Feed parse failed, skipping", "feed", d.Name, "url", d.URL, "error", err)
		return result
	}

	result.Items = items
	result.Dropped = dropped

	slog.Debug("Feed fetched",
		"feed", d.Name,
		"duration", time.Since(start),
		"items", len(items),
		"dropped", dropped)

	return result
}

func (f *Fetcher) fetchFeed(ctx context.Context, d Descriptor) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, &FetchError{Feed: d.Name, URL: d.URL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Feed: d.Name, URL: d.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Feed:       d.Name,
			URL:        d.URL,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Feed: d.Name, URL: d.URL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return data, nil
}
