package feed

import "fmt"

// LoaderError means the subscription document cannot be used at all.
type LoaderError struct {
	Path string
	Err  error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("subscriptions %s: %v", e.Path, e.Err)
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}

// FetchError is a per-feed retrieval failure. Other feeds are unaffected.
type FetchError struct {
	Feed       string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (%s): HTTP %d", e.Feed, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Feed, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is a per-feed document failure. Other feeds are unaffected.
type ParseError struct {
	Feed string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Feed, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
