// Package metrics exports run results in Prometheus text format.
//
// postbot is usually started by cron, so nothing is served over HTTP. After
// each run the registry is written to a file for node_exporter's textfile
// collector. A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/postbot/internal/session"
)

const namespace = "postbot"

// Recorder holds the run metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	runs            *prometheus.CounterVec
	lastRun         prometheus.Gauge
	lastSuccess     prometheus.Gauge
	ledgerEntries   prometheus.Gauge
	publishDuration prometheus.Histogram

	now func() time.Time
}

// New creates a Recorder. now may be nil.
func New(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Publish runs by outcome.",
		}, []string{"outcome"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that posted and recorded a text.",
		}),
		ledgerEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_entries",
			Help:      "Distinct fingerprints in the ledger after the last run.",
		}),
		publishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Time spent in the publisher call.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		now: now,
	}
	r.registry.MustRegister(r.runs, r.lastRun, r.lastSuccess, r.ledgerEntries, r.publishDuration)

	// Zero series for every outcome so rate() works from the first scrape.
	for _, o := range session.Outcomes() {
		r.runs.WithLabelValues(o.String())
	}
	return r
}

// Observe records one finished run.
func (r *Recorder) Observe(res session.Result) {
	if r == nil {
		return
	}
	now := float64(r.now().UnixNano()) / 1e9

	r.runs.WithLabelValues(res.Outcome.String()).Inc()
	r.lastRun.Set(now)
	if res.OK() {
		r.lastSuccess.Set(now)
	}
	if res.LedgerSize > 0 {
		r.ledgerEntries.Set(float64(res.LedgerSize))
	}
	if res.PostID != "" {
		r.publishDuration.Observe(res.PublishDuration.Seconds())
	}
}

// WriteTextfile atomically replaces path with the current metrics.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
