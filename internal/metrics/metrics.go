// Package metrics records what a transformation run did. It covers:
//
//   - every stage of the parts and status chains, with its outcome
//   - rows per output table and per plant status class
//   - artifacts persisted and tables a storage format left out
//   - exact duplicates removed, and the run as a whole
//
// Events go to a process-wide Sink that discards everything until SetSink
// installs a backend. Backends (prompush, datadog) live in subpackages and
// build their instruments from Catalog.
package metrics

import (
	"strconv"
	"time"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Kind is the instrument type of a metric.
type Kind int

const (
	Counter Kind = iota
	Histogram
)

// Metric names.
const (
	StageRuns         = "etl_stage_runs_total"
	StageSeconds      = "etl_stage_duration_seconds"
	TableRows         = "etl_table_rows_total"
	StatusClassRows   = "etl_status_class_rows_total"
	Artifacts         = "etl_artifacts_total"
	TablesSkipped     = "etl_tables_skipped_total"
	DuplicatesRemoved = "etl_duplicates_removed_total"
	Runs              = "etl_runs_total"
	RunSeconds        = "etl_run_duration_seconds"
)

// Stage outcomes. A lenient chain that carries on past a failing stage
// records it as skipped.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Desc describes one metric. Every event also carries a "job" label, which
// is not listed here; backends attach it as a grouping key or tag.
type Desc struct {
	Name   string
	Help   string
	Kind   Kind
	Labels []string
}

// Catalog lists every metric the pipeline emits.
var Catalog = []Desc{
	{StageRuns, "Stage executions per chain component, stage and outcome.", Counter, []string{"component", "stage", "outcome"}},
	{StageSeconds, "Stage wall time in seconds.", Histogram, []string{"component", "stage"}},
	{TableRows, "Rows produced per output table.", Counter, []string{"table"}},
	{StatusClassRows, "plant_item_status rows per status class.", Counter, []string{"class"}},
	{Artifacts, "Artifacts persisted per format.", Counter, []string{"format"}},
	{TablesSkipped, "Tables left out of a format, either empty or failed.", Counter, []string{"table", "format"}},
	{DuplicatesRemoved, "Exact duplicate rows dropped from masterbom_clean.", Counter, nil},
	{Runs, "Finished runs by success.", Counter, []string{"success"}},
	{RunSeconds, "Run wall time in seconds.", Histogram, nil},
}

// Sink receives metric events.
type Sink interface {
	// Add increments the counter name by delta.
	Add(name string, delta float64, labels Labels)
	// Observe records one histogram sample.
	Observe(name string, value float64, labels Labels)
	// Flush delivers buffered data, e.g. a Pushgateway push.
	Flush() error
}

type discard struct{}

func (discard) Add(string, float64, Labels)     {}
func (discard) Observe(string, float64, Labels) {}
func (discard) Flush() error                    { return nil }

var sink Sink = discard{}

// SetSink installs s and returns the sink it replaced. A nil s leaves the
// current sink in place.
func SetSink(s Sink) Sink {
	prev := sink
	if s != nil {
		sink = s
	}
	return prev
}

// Flush flushes the current sink.
func Flush() error { return sink.Flush() }

// Stage records one stage execution of a chain component ("parts" or
// "status").
func Stage(job, component, stage, outcome string, d time.Duration) {
	sink.Add(StageRuns, 1, Labels{"job": job, "component": component, "stage": stage, "outcome": outcome})
	sink.Observe(StageSeconds, d.Seconds(), Labels{"job": job, "component": component, "stage": stage})
}

// Rows adds the row count of one output table. Empty tables are not counted.
func Rows(job, table string, n int) {
	if n <= 0 {
		return
	}
	sink.Add(TableRows, float64(n), Labels{"job": job, "table": table})
}

// StatusClasses adds plant_item_status row counts keyed by status class.
func StatusClasses(job string, counts map[string]int) {
	for class, n := range counts {
		if n > 0 {
			sink.Add(StatusClassRows, float64(n), Labels{"job": job, "class": class})
		}
	}
}

// Artifact counts one persisted artifact of format (CSV, Parquet, SQLite,
// Markdown).
func Artifact(job, format string) {
	sink.Add(Artifacts, 1, Labels{"job": job, "format": format})
}

// TableSkipped counts a table missing from format. format is "all" when the
// table was empty and no format was attempted.
func TableSkipped(job, table, format string) {
	sink.Add(TablesSkipped, 1, Labels{"job": job, "table": table, "format": format})
}

// Duplicates adds the exact duplicate rows removed by a run.
func Duplicates(job string, n int) {
	if n > 0 {
		sink.Add(DuplicatesRemoved, float64(n), Labels{"job": job})
	}
}

// RunFinished records the end of a run.
func RunFinished(job string, success bool, d time.Duration) {
	sink.Add(Runs, 1, Labels{"job": job, "success": strconv.FormatBool(success)})
	sink.Observe(RunSeconds, d.Seconds(), Labels{"job": job})
}
