// Package metrics collects per-run gauges and writes them in the node
// exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feed_dispatch"

type Run struct {
	Feeds, FeedFailures, Candidates, Dispatched int
	Downloads                                   map[string]int
	Duration                                    time.Duration
	Succeeded                                   bool
	FinishedAt                                  time.Time
}

type Recorder struct {
	registry *prometheus.Registry

	feeds          prometheus.Gauge
	feedFailures   prometheus.Gauge
	candidates     prometheus.Gauge
	dispatched     prometheus.Gauge
	downloads      *prometheus.GaugeVec
	duration       prometheus.Gauge
	lastSuccess    prometheus.Gauge
	lastRunSuccess prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		feeds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feeds",
			Help:      "Number of subscriptions loaded in the last run",
		}),
		feedFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_fetch_failures",
			Help:      "Number of feeds that could not be fetched or parsed in the last run",
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Number of items newer than the watermark in the last run",
		}),
		dispatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatched",
			Help:      "Number of items handed to the downloader in the last run",
		}),
		downloads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads",
			Help:      "Downloader outcomes in the last run",
		}, []string{"status"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run without failed downloads",
		}),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run had no failed downloads, 0 otherwise",
		}),
	}

	r.registry.MustRegister(
		r.feeds, r.feedFailures, r.candidates, r.dispatched,
		r.downloads, r.duration, r.lastSuccess, r.lastRunSuccess,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Observe(run Run) {
	r.feeds.Set(float64(run.Feeds))
	r.feedFailures.Set(float64(run.FeedFailures))
	r.candidates.Set(float64(run.Candidates))
	r.dispatched.Set(float64(run.Dispatched))
	for status, n := range run.Downloads {
		r.downloads.WithLabelValues(status).Set(float64(n))
	}
	r.duration.Set(run.Duration.Seconds())

	if run.Succeeded {
		r.lastRunSuccess.Set(1)
		r.lastSuccess.Set(float64(run.FinishedAt.Unix()))
	} else {
		r.lastRunSuccess.Set(0)
	}
}

// WriteFile replaces path atomically with the current gauge values.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
