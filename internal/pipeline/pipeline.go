// Package pipeline runs one transformation: parts and status processing, the
// date dimension, artifact writing and the optional publishers. Run never
// returns an error; failures are reported on the Result together with the
// messages logged so far.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
	"github.com/Storbiic/ETL-Dashboard/internal/dimdate"
	"github.com/Storbiic/ETL-Dashboard/internal/fieldnorm"
	"github.com/Storbiic/ETL-Dashboard/internal/metrics"
	"github.com/Storbiic/ETL-Dashboard/internal/parts"
	"github.com/Storbiic/ETL-Dashboard/internal/publish"
	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/status"
	"github.com/Storbiic/ETL-Dashboard/internal/storage"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
	"github.com/Storbiic/ETL-Dashboard/internal/transformer/builtin"
)

// Input is the pair of raw sheets plus the column options of one run.
type Input struct {
	Parts  *table.Table
	Status *table.Table

	// IDColumn defaults to config.DefaultIDColumn.
	IDColumn string
	// DateColumns are always processed when present in Parts, ahead of
	// auto-detected ones. Names missing from Parts are skipped.
	DateColumns []string
}

// Options configure where and how a run is persisted.
type Options struct {
	OutputDir string
	Job       string
	Logger    *zap.Logger

	// Publishers run after the artifacts are written.
	Publishers []publish.Publisher

	// Parallel and BatchSize are passed to the storage writer.
	Parallel  int
	BatchSize int
}

// Summary holds the headline numbers of a run.
type Summary struct {
	TotalParts     int `json:"total_parts"`
	ActiveParts    int `json:"active_parts"`
	InactiveParts  int `json:"inactive_parts"`
	NewParts       int `json:"new_parts"`
	DuplicateParts int `json:"duplicate_parts"`
	PlantsDetected int `json:"plants_detected"`

	DuplicatesRemoved     int                   `json:"duplicates_removed"`
	DateColumnsProcessed  []string              `json:"date_columns_processed"`
	ProcessingTimeSeconds float64               `json:"processing_time_seconds"`
	Projects              status.ProjectSummary `json:"project_summary"`
}

// Result is what a caller shows for one run.
type Result struct {
	Success   bool               `json:"success"`
	RunID     string             `json:"run_id"`
	Artifacts []storage.Artifact `json:"artifacts"`
	Summary   Summary            `json:"summary"`
	Messages  []runlog.Entry     `json:"messages"`
	Error     string             `json:"error,omitempty"`
}

// Run executes one transformation.
func Run(ctx context.Context, in Input, opts Options) Result {
	start := time.Now()
	runID := uuid.NewString()
	if opts.Job == "" {
		opts.Job = config.DefaultJob
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.DefaultOutputDir
	}
	log := runlog.New(opts.Logger).With(zap.String("run_id", runID), zap.String("job", opts.Job))
	log.Info("starting transformation", runlog.Fields{"run_id": runID})

	res, err := run(ctx, in, opts, runID, log)
	if err != nil {
		log.Error("transformation failed", runlog.Fields{"error": err.Error()})
		metrics.RunFinished(opts.Job, false, time.Since(start))
		return Result{
			RunID:     runID,
			Artifacts: []storage.Artifact{},
			Summary:   zeroSummary(),
			Messages:  log.Entries(),
			Error:     err.Error(),
		}
	}

	elapsed := time.Since(start)
	res.Summary.ProcessingTimeSeconds = elapsed.Seconds()
	metrics.RunFinished(opts.Job, true, elapsed)
	log.Info("transformation complete", runlog.Fields{
		"artifacts":       len(res.Artifacts),
		"elapsed_seconds": res.Summary.ProcessingTimeSeconds,
	})
	res.Success = true
	res.RunID = runID
	res.Messages = log.Entries()
	return res
}

func run(ctx context.Context, in Input, opts Options, runID string, log *runlog.Log) (Result, error) {
	if in.Parts == nil || in.Status == nil {
		return Result{}, fmt.Errorf("both parts and status tables are required")
	}

	roles := dateRoles(in.Parts, in.DateColumns, log)

	p, err := parts.Process(ctx, in.Parts, parts.Options{
		IDColumn:    in.IDColumn,
		DateColumns: roles,
		Job:         opts.Job,
		Log:         log,
	})
	if err != nil {
		return Result{}, fmt.Errorf("parts processing: %w", err)
	}

	st, err := status.Process(ctx, in.Status, status.Options{Job: opts.Job, Log: log})
	if err != nil {
		return Result{}, fmt.Errorf("status processing: %w", err)
	}

	dates := dimdate.Build(dimdate.FromTable(p.Clean, roles), log)

	tables := []storage.Named{
		{Name: parts.TableClean, Table: p.Clean},
		{Name: parts.TablePlantStatus, Table: p.PlantStatus},
		{Name: parts.TableFact, Table: p.Fact},
		{Name: status.TableClean, Table: st},
		{Name: dimdate.TableName, Table: dates},
	}
	for _, nt := range tables {
		metrics.Rows(opts.Job, nt.Name, nt.Table.Len())
	}

	w := &storage.Writer{
		Dir:       opts.OutputDir,
		Job:       opts.Job,
		Log:       log,
		Parallel:  opts.Parallel,
		BatchSize: opts.BatchSize,
	}
	artifacts, err := w.Write(ctx, tables)
	if err != nil {
		return Result{}, fmt.Errorf("storage: %w", err)
	}

	if len(opts.Publishers) > 0 {
		publish.All(ctx, opts.Publishers, publish.Run{ID: runID, Tables: tables, Artifacts: artifacts}, log)
	}

	sum := summarize(p.PlantStatus)
	sum.DuplicatesRemoved = p.DuplicatesRemoved
	metrics.Duplicates(opts.Job, p.DuplicatesRemoved)
	metrics.StatusClasses(opts.Job, map[string]int{
		parts.StatusActive:    sum.ActiveParts,
		parts.StatusInactive:  sum.InactiveParts,
		parts.StatusNew:       sum.NewParts,
		parts.StatusDuplicate: sum.DuplicateParts,
	})
	sum.DateColumnsProcessed = append([]string{}, roles...)
	sum.Projects = status.Summarize(st, log)

	return Result{Artifacts: artifacts, Summary: sum}, nil
}

// dateRoles merges the requested date columns that exist in raw with the
// auto-detected ones. Header whitespace is normalized the same way the parts
// processor does it, so requested names match cleaned headers.
func dateRoles(raw *table.Table, requested []string, log *runlog.Log) []string {
	headers := table.New(builtin.NormalizeHeaders(raw.Columns, false)...)
	headers.Rows = raw.Rows

	explicit := make([]string, 0, len(requested))
	for _, c := range requested {
		if headers.Has(c) {
			explicit = append(explicit, c)
			continue
		}
		log.Info("requested date column not present, skipping", runlog.Fields{"column": c})
	}
	roles := dimdate.Roles(explicit, fieldnorm.DetectDateColumns(headers))
	log.Info("date columns resolved", runlog.Fields{"explicit": len(explicit), "total": len(roles)})
	return roles
}

// summarize counts distinct parts and plants and the rows per status class.
func summarize(ps *table.Table) Summary {
	s := zeroSummary()
	partSet := map[string]struct{}{}
	plantSet := map[string]struct{}{}

	ids := ps.Column(parts.ColPartIDStd)
	plants := ps.Column(parts.ColProjectPlant)
	classes := ps.Column(parts.ColStatusClass)
	for i := 0; i < ps.Len(); i++ {
		if ids != nil {
			partSet[table.String(ids[i])] = struct{}{}
		}
		if plants != nil {
			plantSet[table.String(plants[i])] = struct{}{}
		}
		if classes == nil {
			continue
		}
		switch classes[i] {
		case parts.StatusActive:
			s.ActiveParts++
		case parts.StatusInactive:
			s.InactiveParts++
		case parts.StatusNew:
			s.NewParts++
		case parts.StatusDuplicate:
			s.DuplicateParts++
		}
	}
	s.TotalParts = len(partSet)
	s.PlantsDetected = len(plantSet)
	return s
}

func zeroSummary() Summary {
	return Summary{
		DateColumnsProcessed: []string{},
		Projects:             status.ProjectSummary{ProjectsByOEM: map[string]int{}},
	}
}
