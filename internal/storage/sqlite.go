package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/metrics"
	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/storage/sqlite"
	"github.com/Storbiic/ETL-Dashboard/internal/storage/sqlite/ddl"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// writeSQLite rebuilds etl.sqlite from scratch with one relation per table.
// A table that fails to load is logged and skipped; the artifact is returned
// as long as at least one table made it in.
func (w *Writer) writeSQLite(ctx context.Context, tables []Named) *Artifact {
	log := w.log()
	path := filepath.Join(w.Dir, SQLiteFile)

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Error("failed to save SQLite database", runlog.Fields{"error": err.Error()})
		return nil
	}

	repo, closeFn, err := sqlite.NewRepository(ctx, sqlite.Config{DSN: path})
	if err != nil {
		log.Error("failed to save SQLite database", runlog.Fields{"error": err.Error()})
		return nil
	}

	saved, rows := 0, 0
	for _, nt := range tables {
		p, err := w.loadSQLiteTable(ctx, repo, nt)
		if err != nil {
			log.Error("failed to save table to SQLite", runlog.Fields{"table": nt.Name, "error": err.Error()})
			metrics.TableSkipped(w.Job, nt.Name, FormatSQLite)
			continue
		}
		saved++
		rows += nt.Table.Len()
		log.Info("saved table to SQLite", runlog.Fields{
			"table":           nt.Name,
			"rows":            p.Rows,
			"batches":         p.Batches,
			"rows_per_second": p.RowsPerSecond(),
		})
	}
	names, err := repo.Tables(ctx)
	closeFn()
	if err != nil {
		log.Error("failed to save SQLite database", runlog.Fields{"error": err.Error()})
		return nil
	}

	if saved == 0 {
		log.Error("failed to save SQLite database", runlog.Fields{"error": "no tables written"})
		return nil
	}
	a, err := statArtifact(SQLiteFile, path, FormatSQLite, intPtr(rows))
	if err != nil {
		log.Error("failed to save SQLite database", runlog.Fields{"error": err.Error()})
		return nil
	}
	log.Info("saved SQLite database", runlog.Fields{"path": path, "tables": names, "size_bytes": a.SizeBytes})
	metrics.Artifact(w.Job, FormatSQLite)
	return a
}

// loadSQLiteTable recreates nt's relation, loads its rows in batches and
// checks the stored row count.
func (w *Writer) loadSQLiteTable(ctx context.Context, repo *sqlite.Repository, nt Named) (Progress, error) {
	def := ddl.FromTable(nt.Name, nt.Table)
	if err := ddl.ReplaceTable(ctx, repo, def); err != nil {
		return Progress{}, err
	}
	rows := SQLiteRows(nt.Table)
	copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
		return repo.CopyFrom(ctx, nt.Name, cols, batch)
	}
	p, err := LoadBatches(ctx, nt.Table.Columns, rows, w.batchSize(), copyFn)
	if err != nil {
		return p, err
	}
	n, err := repo.Count(ctx, nt.Name)
	if err != nil {
		return p, err
	}
	if n != int64(len(rows)) {
		return p, fmt.Errorf("stored %d of %d rows", n, len(rows))
	}
	return p, nil
}

// SQLiteRows converts cells to values SQLite stores faithfully: dates become
// ISO strings, bools become 0/1, text columns are stringified and blank
// strings become NULL.
func SQLiteRows(t *table.Table) [][]any {
	kinds := t.Kinds()
	out := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]any, len(t.Columns))
		for j := range r {
			var v any
			if j < len(row) {
				v = row[j]
			}
			r[j] = sqliteValue(v, kinds[j])
		}
		out[i] = r
	}
	return out
}

func sqliteValue(v any, k table.Kind) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x.Format(table.DateLayout)
	case bool:
		if k != table.KindBool {
			return table.String(x)
		}
		if x {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(x)
	}
	if k == table.KindString {
		s := table.String(v)
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return s
	}
	return v
}
