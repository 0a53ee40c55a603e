package storage

import (
	"context"
	"fmt"
	"time"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to 'columns' order) and return the number of rows
// reported as inserted. SQLite uses a prepared INSERT per transaction and
// Postgres uses COPY.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// Progress reports what LoadBatches did.
type Progress struct {
	Rows    int64
	Batches int64
	Elapsed time.Duration
}

// RowsPerSecond is the overall insert rate.
func (p Progress) RowsPerSecond() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Rows) / p.Elapsed.Seconds()
}

// LoadBatches hands rows to copyFn in consecutive slices of at most batchSize
// rows. It stops at the first copy error or when ctx is cancelled and returns
// the progress made so far.
func LoadBatches(ctx context.Context, columns []string, rows [][]any, batchSize int, copyFn CopyFn) (Progress, error) {
	var p Progress
	if batchSize <= 0 {
		return p, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return p, fmt.Errorf("copyFn must not be nil")
	}

	start := time.Now()

	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			p.Elapsed = time.Since(start)
			return p, err
		}
		hi := min(lo+batchSize, len(rows))
		n, err := copyFn(ctx, columns, rows[lo:hi])
		p.Rows += n
		if err != nil {
			p.Elapsed = time.Since(start)
			return p, fmt.Errorf("batch %d (rows %d-%d): %w", p.Batches+1, lo, hi-1, err)
		}
		p.Batches++
	}
	p.Elapsed = time.Since(start)
	return p, nil
}
