// Package storage persists named tables as durable artifacts: one CSV and one
// Parquet file per table, a single SQLite database holding every table and a
// Markdown data dictionary.
//
// A failure to write one table in one format is logged and that artifact is
// left out of the result; sibling writes carry on.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Storbiic/ETL-Dashboard/internal/metrics"
	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// Format tags reported on artifacts.
const (
	FormatCSV      = "CSV"
	FormatParquet  = "Parquet"
	FormatSQLite   = "SQLite"
	FormatMarkdown = "Markdown"
)

const (
	// SQLiteFile is the name of the consolidated database.
	SQLiteFile = "etl.sqlite"
	// DictionaryFile is the name of the data dictionary.
	DictionaryFile = "data_dictionary.md"

	defaultParallel  = 4
	defaultBatchSize = 1000
)

// Named pairs a table with its output name. A slice keeps output order
// deterministic.
type Named struct {
	Name  string
	Table *table.Table
}

// Artifact describes one persisted file.
type Artifact struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	RowCount  *int   `json:"row_count,omitempty"`
}

// Writer writes tables under Dir.
type Writer struct {
	Dir string
	Job string
	Log *runlog.Log

	// Parallel bounds concurrent per-table file writes; <= 0 means 4.
	Parallel int
	// BatchSize is the SQLite insert batch size; <= 0 means 1000.
	BatchSize int
}

// Write persists every non-empty table and returns the artifacts that were
// written, in table order (CSV, Parquet per table) followed by the SQLite
// database and the data dictionary. The only error returned is failure to
// create Dir.
func (w *Writer) Write(ctx context.Context, tables []Named) ([]Artifact, error) {
	log := w.log()
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create output dir %s: %w", w.Dir, err)
	}

	kept := make([]Named, 0, len(tables))
	names := make([]string, 0, len(tables))
	for _, nt := range tables {
		if nt.Table.Empty() {
			log.Warn("skipping empty table", runlog.Fields{"table": nt.Name})
			metrics.TableSkipped(w.Job, nt.Name, "all")
			continue
		}
		kept = append(kept, nt)
		names = append(names, nt.Name)
	}
	log.Info("starting data storage", runlog.Fields{"tables": names, "total_tables": len(kept)})

	// slots[i] holds the CSV and Parquet artifacts of kept[i]
	slots := make([][2]*Artifact, len(kept))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallel())
	for i, nt := range kept {
		g.Go(func() error {
			slots[i][0] = w.writeFile(gctx, nt, "csv", FormatCSV, writeCSVFile)
			slots[i][1] = w.writeFile(gctx, nt, "parquet", FormatParquet, writeParquetFile)
			return nil
		})
	}
	_ = g.Wait()

	var out []Artifact
	for _, s := range slots {
		for _, a := range s {
			if a != nil {
				out = append(out, *a)
			}
		}
	}

	if len(kept) > 0 {
		if a := w.writeSQLite(ctx, kept); a != nil {
			out = append(out, *a)
		}
	}
	if a := w.writeDictionary(kept); a != nil {
		out = append(out, *a)
	}

	log.Info("data storage complete", runlog.Fields{"total_artifacts": len(out)})
	return out, nil
}

type fileWriteFn func(ctx context.Context, path string, t *table.Table) error

func (w *Writer) writeFile(ctx context.Context, nt Named, ext, format string, fn fileWriteFn) *Artifact {
	log := w.log()
	name := nt.Name + "." + ext
	path := filepath.Join(w.Dir, name)

	fail := func(err error) *Artifact {
		log.Error("failed to save "+format, runlog.Fields{"table": nt.Name, "error": err.Error()})
		metrics.TableSkipped(w.Job, nt.Name, format)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := fn(ctx, path, nt.Table); err != nil {
		return fail(err)
	}
	a, err := statArtifact(name, path, format, intPtr(nt.Table.Len()))
	if err != nil {
		return fail(err)
	}
	log.Info("saved "+format, runlog.Fields{"table": nt.Name, "path": path, "size_bytes": a.SizeBytes})
	metrics.Artifact(w.Job, format)
	return a
}

func (w *Writer) writeDictionary(tables []Named) *Artifact {
	log := w.log()
	path := filepath.Join(w.Dir, DictionaryFile)
	if err := writeDictionaryFile(path, tables); err != nil {
		log.Error("failed to create data dictionary", runlog.Fields{"error": err.Error()})
		return nil
	}
	a, err := statArtifact(DictionaryFile, path, FormatMarkdown, nil)
	if err != nil {
		log.Error("failed to create data dictionary", runlog.Fields{"error": err.Error()})
		return nil
	}
	log.Info("created data dictionary", runlog.Fields{"path": path})
	metrics.Artifact(w.Job, FormatMarkdown)
	return a
}

func statArtifact(name, path, format string, rows *int) (*Artifact, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: name, Path: path, Format: format, SizeBytes: fi.Size(), RowCount: rows}, nil
}

func (w *Writer) log() *runlog.Log {
	if w.Log == nil {
		return runlog.Discard()
	}
	return w.Log
}

func (w *Writer) parallel() int {
	if w.Parallel <= 0 {
		return defaultParallel
	}
	return w.Parallel
}

func (w *Writer) batchSize() int {
	if w.BatchSize <= 0 {
		return defaultBatchSize
	}
	return w.BatchSize
}

func intPtr(n int) *int { return &n }
