package fieldnorm

import (
	"strings"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// dateLayouts are tried in order. Month-first slash layouts win over day-first
// ones when both would parse.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"01-02-06",
	"1/2/06",
	"02.01.2006",
	"2-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// dateNameHints are the substrings that make a column a date candidate.
var dateNameHints = []string{
	"date", "time", "approved", "promised", "created", "updated", "modified", "sop", "milestone",
}

const (
	dateSampleSize = 10
	dateMinRatio   = 0.5
)

// ParseDate parses a cell as a calendar date. time.Time values pass through
// truncated to midnight UTC. Numbers are never read as dates.
func ParseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return civil(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return civil(t), true
			}
		}
	}
	return time.Time{}, false
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DetectDateColumns returns, in header order, the columns whose name carries a
// date hint and whose first non-null values mostly parse as dates.
func DetectDateColumns(t *table.Table) []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, col := range t.Columns {
		if !hasDateHint(col) {
			continue
		}
		if looksLikeDates(t.Column(col)) {
			out = append(out, col)
		}
	}
	return out
}

func hasDateHint(col string) bool {
	lower := strings.ToLower(col)
	for _, h := range dateNameHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func looksLikeDates(vals []any) bool {
	sampled, parsed := 0, 0
	for _, v := range vals {
		if table.IsBlank(v) {
			continue
		}
		sampled++
		if _, ok := ParseDate(v); ok {
			parsed++
		}
		if sampled == dateSampleSize {
			break
		}
	}
	if sampled == 0 {
		return false
	}
	return float64(parsed)/float64(sampled) >= dateMinRatio
}

// DatePartSuffixes are the derived columns ParseDateColumn produces, in order.
var DatePartSuffixes = []string{"_date", "_year", "_month", "_day", "_qtr", "_week"}

// ParseDateColumn derives the calendar parts of vals into a table with the
// columns name+DatePartSuffixes. Unparseable values yield a row of nulls.
func ParseDateColumn(vals []any, name string) *table.Table {
	cols := make([]string, len(DatePartSuffixes))
	for i, s := range DatePartSuffixes {
		cols[i] = name + s
	}
	out := table.New(cols...)
	out.Rows = make([][]any, 0, len(vals))
	for _, v := range vals {
		d, ok := ParseDate(v)
		if !ok {
			out.Append(nil)
			continue
		}
		_, week := d.ISOWeek()
		out.Append([]any{
			d,
			int64(d.Year()),
			int64(d.Month()),
			int64(d.Day()),
			int64(Quarter(d)),
			int64(week),
		})
	}
	return out
}

// Quarter returns the calendar quarter (1-4) of d.
func Quarter(d time.Time) int { return (int(d.Month())-1)/3 + 1 }
