// Package datadog sends run metrics to a DogStatsD agent. Counters become
// statsd counts and histograms become distributions, so percentiles are
// computed by the agent across runs.
package datadog

import (
	"fmt"
	"math"
	"sort"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/Storbiic/ETL-Dashboard/internal/metrics"
)

// Config holds the agent settings.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or
	// "unix:///var/run/datadog/dsd.socket".
	Addr string
	// Namespace prefixes every metric name, e.g. "etl.".
	Namespace string
	// GlobalTags are sent with every metric, e.g. "env:prod".
	GlobalTags []string
}

// client is the part of *statsd.Client the backend uses.
type client interface {
	Count(name string, value int64, tags []string, rate float64) error
	Distribution(name string, value float64, tags []string, rate float64) error
	Flush() error
	Close() error
}

// Backend implements metrics.Sink.
type Backend struct {
	c client
}

// NewBackend dials the agent with client telemetry disabled.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}
	opts := []statsd.Option{statsd.WithoutTelemetry()}
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{c: c}, nil
}

// Add implements metrics.Sink. Row counts are whole numbers; any fraction
// is rounded.
func (b *Backend) Add(name string, delta float64, labels metrics.Labels) {
	if b.c == nil {
		return
	}
	_ = b.c.Count(name, int64(math.Round(delta)), tags(labels), 1)
}

// Observe implements metrics.Sink.
func (b *Backend) Observe(name string, value float64, labels metrics.Labels) {
	if b.c == nil {
		return
	}
	_ = b.c.Distribution(name, value, tags(labels), 1)
}

// Flush sends buffered metrics and closes the client. It is called once, at
// the end of a run.
func (b *Backend) Flush() error {
	if b.c == nil {
		return nil
	}
	if err := b.c.Flush(); err != nil {
		return fmt.Errorf("datadog: flush: %w", err)
	}
	return b.c.Close()
}

// tags renders labels as sorted "key:value" tags. Empty values are dropped.
func tags(labels metrics.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		if v == "" {
			continue
		}
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
