package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/feed-dispatch/app/effects"
)

// NewRunConfig reads the watermark and stamps the run. A StoreError from
// the watermark store is returned unchanged.
func NewRunConfig(store WatermarkStore, runDate time.Time, outputBase, subscriptions string, fx effects.Mode) (RunConfig, error) {
	watermark, err := store.Read()
	if err != nil {
		return RunConfig{}, err
	}

	return RunConfig{
		RunID:         uuid.NewString(),
		RunDate:       runDate,
		OutputBase:    outputBase,
		Subscriptions: subscriptions,
		Watermark:     watermark,
		Effects:       fx,
	}, nil
}
