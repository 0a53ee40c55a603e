// Package dimdate builds the calendar dimension (dim_dates) from every
// date-bearing column of a run.
package dimdate

import (
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/fieldnorm"
	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// TableName is the output table name.
const TableName = "dim_dates"

// Columns is the dim_dates header.
var Columns = []string{
	"date", "role", "year", "month", "day", "quarter", "week", "weekday", "month_name", "day_name",
}

// Source is one date-bearing column; Role is the column name it came from.
type Source struct {
	Role   string
	Values []any
}

// Roles merges explicit and auto-detected date column names. Explicit names
// come first and keep their order; detected names already listed are skipped.
func Roles(explicit, detected []string) []string {
	seen := make(map[string]struct{}, len(explicit)+len(detected))
	out := make([]string, 0, len(explicit)+len(detected))
	for _, group := range [][]string{explicit, detected} {
		for _, name := range group {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// FromTable returns a Source for each role that is a column of t. Roles
// missing from t are skipped.
func FromTable(t *table.Table, roles []string) []Source {
	out := make([]Source, 0, len(roles))
	for _, r := range roles {
		if !t.Has(r) {
			continue
		}
		out = append(out, Source{Role: r, Values: t.Column(r)})
	}
	return out
}

type key struct {
	date time.Time
	role string
}

// Build emits one row per distinct (date, role) across sources, in first-seen
// order. Unparseable values are skipped. When nothing parses the result is an
// empty dim_dates table and a warning is logged.
func Build(sources []Source, log *runlog.Log) *table.Table {
	if log == nil {
		log = runlog.Discard()
	}
	out := table.New(Columns...)
	seen := make(map[key]struct{})

	for _, src := range sources {
		for _, v := range src.Values {
			d, ok := fieldnorm.ParseDate(v)
			if !ok {
				continue
			}
			k := key{date: d, role: src.Role}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out.Append(row(d, src.Role))
		}
	}

	if out.Empty() {
		log.Warn("no valid dates found for date dimension", runlog.Fields{"sources": len(sources)})
		return out
	}
	log.Info("built date dimension", runlog.Fields{"rows": out.Len(), "roles": len(sources)})
	return out
}

func row(d time.Time, role string) []any {
	_, week := d.ISOWeek()
	// Monday is 0
	weekday := (int(d.Weekday()) + 6) % 7
	return []any{
		d,
		role,
		int64(d.Year()),
		int64(d.Month()),
		int64(d.Day()),
		int64(fieldnorm.Quarter(d)),
		int64(week),
		int64(weekday),
		d.Month().String(),
		d.Weekday().String(),
	}
}
