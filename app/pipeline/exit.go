package pipeline

import (
	"errors"

	"github.com/lysyi3m/feed-dispatch/app/dispatch"
	"github.com/lysyi3m/feed-dispatch/app/feed"
	"github.com/lysyi3m/feed-dispatch/app/watermark"
)

const (
	ExitOK             = 0
	ExitError          = 1
	ExitStore          = 2
	ExitLoader         = 3
	ExitDispatch       = 4
	ExitDownloadFailed = 5
)

// ExitCode maps the result of a run to the process exit status.
func ExitCode(err error, summary *Summary) int {
	if err == nil {
		if summary != nil && summary.Failures() > 0 {
			return ExitDownloadFailed
		}
		return ExitOK
	}

	var storeErr *watermark.StoreError
	var loaderErr *feed.LoaderError
	var dispatchErr *dispatch.DispatchError

	switch {
	case errors.As(err, &storeErr):
		return ExitStore
	case errors.As(err, &loaderErr):
		return ExitLoader
	case errors.As(err, &dispatchErr):
		return ExitDispatch
	default:
		return ExitError
	}
}
