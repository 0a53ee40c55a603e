// Package publish ships a finished run to optional downstream targets: a
// Postgres schema (one relation per table) and an S3 bucket (one object per
// artifact). Publishing happens after the local artifacts are written and a
// failing publisher never fails the run.
package publish

import (
	"context"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/storage"
)

// Run is what publishers receive.
type Run struct {
	ID        string
	Tables    []storage.Named
	Artifacts []storage.Artifact
}

// Publisher delivers a run to one target.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, run Run) error
}

// All runs every publisher in order. Failures are logged as warnings; the
// number of failed publishers is returned.
func All(ctx context.Context, pubs []Publisher, run Run, log *runlog.Log) int {
	if log == nil {
		log = runlog.Discard()
	}
	failed := 0
	for _, p := range pubs {
		start := time.Now()
		if err := p.Publish(ctx, run); err != nil {
			failed++
			log.Warn("publish failed", runlog.Fields{"publisher": p.Name(), "error": err.Error()})
			continue
		}
		log.Info("published", runlog.Fields{"publisher": p.Name(), "elapsed_ms": time.Since(start).Milliseconds()})
	}
	return failed
}
