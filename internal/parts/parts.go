// Package parts turns the wide parts-by-plant sheet into three tables:
//
//   - masterbom_clean   : the sheet with identifier and date columns added
//     and exact duplicate rows dropped
//   - plant_item_status : one row per (part, plant) with a status class and
//     per-part status counters
//   - fact_parts        : one row per part with quality flags
//
// Processing runs as a lenient transformer chain: a failing stage is logged
// and skipped, except for structural errors (nothing to identify columns in)
// which abort the run.
package parts

import (
	"context"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
	"github.com/Storbiic/ETL-Dashboard/internal/transformer"
)

// Output table names.
const (
	TableClean       = "masterbom_clean"
	TablePlantStatus = "plant_item_status"
	TableFact        = "fact_parts"
)

// Status classes.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusNew       = "new"
	StatusDuplicate = "duplicate"
)

// Options configure one Process call.
type Options struct {
	// IDColumn is matched case-insensitively; empty means config.DefaultIDColumn.
	IDColumn string
	// DateColumns are processed when present. Nil means auto-detect.
	DateColumns []string
	Job         string
	Log         *runlog.Log
}

// Schema is the resolved column layout of the parts sheet.
type Schema struct {
	ID          string
	IDFallback  bool // ID is the first column because IDColumn was not found
	Plants      []string
	Descriptive []string
	Dates       []string
}

// Result holds the three output tables.
type Result struct {
	Clean       *table.Table
	PlantStatus *table.Table
	Fact        *table.Table

	Schema            Schema
	DuplicatesRemoved int
}

// state is threaded through the stages; each stage returns a new value.
type state struct {
	opts Options

	work   *table.Table
	schema Schema
	// idCount is how often each part_id_std occurs in the sheet
	idCount map[string]int

	plantStatus *table.Table
	fact        *table.Table
	removed     int
}

func stages() transformer.Chain[state] {
	return transformer.Chain[state]{
		{Name: "headers", Run: cleanHeaders},
		{Name: "resolve", Run: resolveColumns},
		{Name: "ids", Run: cleanIDs},
		{Name: "dates", Run: processDates},
		{Name: "text", Run: standardizeText},
		{Name: "melt", Run: melt},
		{Name: "classify", Run: classify},
		{Name: "duplicates", Run: confirmDuplicates},
		{Name: "counts", Run: plantCounts},
		{Name: "fact", Run: buildFact},
		{Name: "finalize", Run: finalize},
	}
}

// Process applies the parts rules to raw. raw is not modified.
func Process(ctx context.Context, raw *table.Table, opts Options) (Result, error) {
	if opts.IDColumn == "" {
		opts.IDColumn = config.DefaultIDColumn
	}
	log := opts.Log
	if log == nil {
		log = runlog.Discard()
		opts.Log = log
	}
	log.Info("starting parts processing", runlog.Fields{"input_rows": raw.Len(), "input_cols": len(raw.Columns)})

	in := state{opts: opts, work: raw.Clone()}
	out, err := stages().Apply(ctx, in, transformer.Options{
		Component: "parts",
		Policy:    transformer.Lenient,
		Log:       log,
		Job:       opts.Job,
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Clean:             out.work,
		PlantStatus:       out.plantStatus,
		Fact:              out.fact,
		Schema:            out.schema,
		DuplicatesRemoved: out.removed,
	}
	if res.PlantStatus == nil {
		res.PlantStatus = table.New(plantStatusColumns(out.schema.ID)...)
	}
	if res.Fact == nil {
		res.Fact = table.New(FactIDColumns...)
	}
	log.Info("parts processing complete", runlog.Fields{
		"masterbom_rows":    res.Clean.Len(),
		"plant_status_rows": res.PlantStatus.Len(),
		"fact_parts_rows":   res.Fact.Len(),
	})
	return res, nil
}
