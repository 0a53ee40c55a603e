// Package status cleans the project status sheet into status_clean.
//
// Stages run under the strict policy: the first failing stage is logged with
// its name and the error is returned to the caller.
package status

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Storbiic/ETL-Dashboard/internal/fieldnorm"
	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
	"github.com/Storbiic/ETL-Dashboard/internal/transformer"
	"github.com/Storbiic/ETL-Dashboard/internal/transformer/builtin"
)

// TableClean is the output table name.
const TableClean = "status_clean"

// Canonical header names.
const (
	ColOEM                = "OEM"
	ColProject            = "Project"
	ColPPAP               = "PPAP"
	ColPSW                = "PSW"
	ColTotalPartNumbers   = "Total_Part_Numbers"
	ColPSWAvailable       = "PSW_Available"
	ColDrawingAvailable   = "Drawing_Available"
	ColFirstPPAPMilestone = "First_PPAP_Milestone"
	ColManagedBy          = "Managed_By"
)

// headerRule maps any header containing pattern (lower-cased) to name.
type headerRule struct {
	pattern string
	name    string
}

// HeaderRules are tried in order; the first match wins, so longer patterns
// come before the shorter ones they contain ("psw available" before "psw").
var HeaderRules = []headerRule{
	{"total part numbers", ColTotalPartNumbers},
	{"psw available", ColPSWAvailable},
	{"drawing available", ColDrawingAvailable},
	{"1st ppap milestone", ColFirstPPAPMilestone},
	{"managed by", ColManagedBy},
	{"oem", ColOEM},
	{"project", ColProject},
	{"ppap", ColPPAP},
	{"psw", ColPSW},
}

// TextColumns are standardized with fieldnorm.StandardizeText when present.
var TextColumns = []string{ColOEM, ColProject, ColManagedBy}

var percentHints = []string{"%", "percent", "available", "complete"}

var projectNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Project\s*:?\s*`),
	regexp.MustCompile(`(?i)\s*-\s*Project$`),
	regexp.MustCompile(`(?i)\s*\(.*\)$`),
}

// Options configure one Process call.
type Options struct {
	Job string
	Log *runlog.Log
}

// Process applies the status rules to raw. raw is not modified.
func Process(ctx context.Context, raw *table.Table, opts Options) (*table.Table, error) {
	log := opts.Log
	if log == nil {
		log = runlog.Discard()
	}
	log.Info("starting status sheet processing", runlog.Fields{"input_rows": raw.Len(), "input_cols": len(raw.Columns)})

	chain := transformer.Chain[*table.Table]{
		{Name: "headers", Run: func(_ context.Context, t *table.Table) (*table.Table, error) { return cleanHeaders(t, log) }},
		{Name: "text", Run: func(_ context.Context, t *table.Table) (*table.Table, error) { return standardizeText(t, log) }},
		{Name: "percentages", Run: func(_ context.Context, t *table.Table) (*table.Table, error) { return convertPercentages(t, log) }},
		{Name: "projects", Run: func(_ context.Context, t *table.Table) (*table.Table, error) { return cleanProjects(t, log) }},
		{Name: "empty_rows", Run: func(_ context.Context, t *table.Table) (*table.Table, error) { return removeEmptyRows(t, log), nil }},
	}
	out, err := chain.Apply(ctx, raw.Clone(), transformer.Options{
		Component: "status",
		Policy:    transformer.Strict,
		Log:       log,
		Job:       opts.Job,
	})
	if err != nil {
		return nil, err
	}
	log.Info("status sheet processing complete", runlog.Fields{"output_rows": out.Len(), "output_cols": len(out.Columns)})
	return out, nil
}

// StandardizeHeader maps one collapsed header to its canonical name, falling
// back to underscores for spaces and title case.
func StandardizeHeader(h string) string {
	lower := strings.ToLower(h)
	for _, r := range HeaderRules {
		if strings.Contains(lower, r.pattern) {
			return r.name
		}
	}
	return fieldnorm.TitleCase(strings.ReplaceAll(h, " ", "_"))
}

func cleanHeaders(t *table.Table, log *runlog.Log) (*table.Table, error) {
	collapsed := builtin.NormalizeHeaders(t.Columns, true)
	standard := make([]string, len(collapsed))
	for i, h := range collapsed {
		standard[i] = StandardizeHeader(h)
	}
	names, changed := builtin.UniqueHeaders(standard, "Unnamed_%d")
	for _, i := range changed {
		log.Warn("blank or duplicate header after normalization", runlog.Fields{"header": collapsed[i], "renamed": names[i]})
	}
	out, err := t.Rename(names)
	if err != nil {
		return nil, err
	}
	log.Info("cleaned column headers", runlog.Fields{"original_count": len(t.Columns), "cleaned_count": len(names)})
	return out, nil
}

func standardizeText(t *table.Table, log *runlog.Log) (*table.Table, error) {
	n := 0
	for _, c := range TextColumns {
		vals := t.Column(c)
		if vals == nil {
			continue
		}
		for i, v := range vals {
			vals[i] = fieldnorm.StandardizeText(v)
		}
		next, err := t.WithColumn(c, vals)
		if err != nil {
			return nil, fmt.Errorf("standardize %s: %w", c, err)
		}
		t = next
		n++
	}
	log.Info("standardized text columns", runlog.Fields{"count": n})
	return t, nil
}

// IsPercentColumn reports whether a normalized header names a percentage.
func IsPercentColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, h := range percentHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func convertPercentages(t *table.Table, log *runlog.Log) (*table.Table, error) {
	n := 0
	for _, c := range append([]string(nil), t.Columns...) {
		if !IsPercentColumn(c) {
			continue
		}
		vals := t.Column(c)
		for i, v := range vals {
			vals[i] = fieldnorm.PercentageValue(v)
		}
		next, err := t.WithColumn(c, vals)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", c, err)
		}
		t = next
		n++
	}
	log.Info("converted percentage columns", runlog.Fields{"count": n})
	return t, nil
}

// CleanProjectName strips "Project:" prefixes, "- Project" suffixes and a
// trailing parenthetical note.
func CleanProjectName(v any) any {
	if v == nil {
		return nil
	}
	name := strings.TrimSpace(table.String(v))
	for _, re := range projectNoise {
		name = re.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(name)
}

func cleanProjects(t *table.Table, log *runlog.Log) (*table.Table, error) {
	vals := t.Column(ColProject)
	if vals == nil {
		return t, nil
	}
	for i, v := range vals {
		vals[i] = CleanProjectName(v)
	}
	out, err := t.WithColumn(ColProject, vals)
	if err != nil {
		return nil, err
	}
	log.Info("cleaned project names", nil)
	return out, nil
}

func removeEmptyRows(t *table.Table, log *runlog.Log) *table.Table {
	out := t.Filter(func(row []any) bool {
		for _, v := range row {
			if !table.IsBlank(v) {
				return true
			}
		}
		return false
	})
	if removed := t.Len() - out.Len(); removed > 0 {
		log.Info("removed empty rows", runlog.Fields{"count": removed})
	}
	return out
}
