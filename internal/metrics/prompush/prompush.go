// Package prompush pushes run metrics to a Prometheus Pushgateway. A batch
// ETL run exits before any scraper would see it, so the collectors built
// from metrics.Catalog are pushed once when the run flushes.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Storbiic/ETL-Dashboard/internal/metrics"
)

// DefaultJob is the Pushgateway job used when none is given.
const DefaultJob = "etl-dashboard"

// Stage timings are mostly sub-second; whole runs take seconds to minutes.
var (
	stageBuckets = prometheus.ExponentialBuckets(0.001, 4, 8)
	runBuckets   = []float64{1, 5, 10, 30, 60, 120, 300, 600}
)

// Backend implements metrics.Sink. The job travels as the Pushgateway
// grouping key, so it is not a label on the collectors.
type Backend struct {
	gatewayURL string
	job        string
	reg        *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labels     map[string][]string
}

// NewBackend registers one collector per catalog entry.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if job == "" {
		job = DefaultJob
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		job:        job,
		reg:        prometheus.NewRegistry(),
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
		labels:     map[string][]string{},
	}
	for _, d := range metrics.Catalog {
		var c prometheus.Collector
		switch d.Kind {
		case metrics.Counter:
			cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: d.Name, Help: d.Help}, d.Labels)
			b.counters[d.Name] = cv
			c = cv
		case metrics.Histogram:
			hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    d.Name,
				Help:    d.Help,
				Buckets: bucketsFor(d.Name),
			}, d.Labels)
			b.histograms[d.Name] = hv
			c = hv
		default:
			return nil, fmt.Errorf("prompush: %s: unknown metric kind %d", d.Name, d.Kind)
		}
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", d.Name, err)
		}
		b.labels[d.Name] = d.Labels
	}
	return b, nil
}

func bucketsFor(name string) []float64 {
	if name == metrics.RunSeconds {
		return runBuckets
	}
	return stageBuckets
}

// values orders labels as the collector declares them. Missing labels are "".
func (b *Backend) values(name string, labels metrics.Labels) []string {
	names := b.labels[name]
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = labels[n]
	}
	return out
}

// Add implements metrics.Sink. Unknown names and negative deltas are dropped.
func (b *Backend) Add(name string, delta float64, labels metrics.Labels) {
	cv, ok := b.counters[name]
	if !ok || delta < 0 {
		return
	}
	cv.WithLabelValues(b.values(name, labels)...).Add(delta)
}

// Observe implements metrics.Sink.
func (b *Backend) Observe(name string, value float64, labels metrics.Labels) {
	hv, ok := b.histograms[name]
	if !ok {
		return
	}
	hv.WithLabelValues(b.values(name, labels)...).Observe(value)
}

// Flush replaces the job's group on the Pushgateway with the current values.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.job).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
