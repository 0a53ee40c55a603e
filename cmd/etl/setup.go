package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
	"github.com/Storbiic/ETL-Dashboard/internal/metrics"
	"github.com/Storbiic/ETL-Dashboard/internal/metrics/datadog"
	"github.com/Storbiic/ETL-Dashboard/internal/metrics/prompush"
	"github.com/Storbiic/ETL-Dashboard/internal/publish"
)

// setupMetrics installs the configured backend and returns its flush func.
// A backend that cannot be built leaves metrics disabled.
func setupMetrics(job string, cfg config.Metrics, zl *zap.Logger) func() {
	var b metrics.Sink
	switch cfg.Backend {
	case "prometheus":
		pb, err := prompush.NewBackend(job, cfg.PushgatewayURL)
		if err != nil {
			zl.Warn("metrics: prometheus backend unavailable, using nop", zap.Error(err))
			return func() {}
		}
		b = pb
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:      cfg.DatadogAddr,
			Namespace: "etl.",
		})
		if err != nil {
			zl.Warn("metrics: datadog backend unavailable, using nop", zap.Error(err))
			return func() {}
		}
		b = db
	case "", "none":
		return func() {}
	default:
		zl.Warn("metrics: unknown backend, metrics disabled", zap.String("backend", cfg.Backend))
		return func() {}
	}

	zl.Info("metrics enabled", zap.String("backend", cfg.Backend), zap.String("job", job))
	metrics.SetSink(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			zl.Warn("metrics: flush error", zap.Error(err))
		}
	}
}

// setupPublishers builds every configured publisher. One that cannot be
// built is skipped with a warning.
func setupPublishers(ctx context.Context, cfg config.Publish, zl *zap.Logger) ([]publish.Publisher, func()) {
	var (
		pubs    []publish.Publisher
		closers []func()
	)
	if cfg.Postgres != nil {
		pg, closeFn, err := publish.NewPostgres(ctx, *cfg.Postgres)
		if err != nil {
			zl.Warn("publish: postgres disabled", zap.Error(err))
		} else {
			pubs = append(pubs, pg)
			closers = append(closers, closeFn)
		}
	}
	if cfg.S3 != nil {
		s3p, err := publish.NewS3(ctx, *cfg.S3)
		if err != nil {
			zl.Warn("publish: s3 disabled", zap.Error(err))
		} else {
			pubs = append(pubs, s3p)
		}
	}
	return pubs, func() {
		for _, c := range closers {
			c()
		}
	}
}
