package status

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// ProjectSummary aggregates status_clean.
type ProjectSummary struct {
	TotalProjects       int            `json:"total_projects"`
	TotalParts          int64          `json:"total_parts"`
	AvgPSWAvailable     float64        `json:"avg_psw_available"`
	AvgDrawingAvailable float64        `json:"avg_drawing_available"`
	ProjectsByOEM       map[string]int `json:"projects_by_oem"`
}

// Summarize computes the project summary of a cleaned status table. Missing
// columns leave their fields at zero; non-numeric cells are ignored.
func Summarize(t *table.Table, log *runlog.Log) ProjectSummary {
	if log == nil {
		log = runlog.Discard()
	}
	s := ProjectSummary{ProjectsByOEM: map[string]int{}}

	if projects := t.Column(ColProject); projects != nil {
		s.TotalProjects = len(distinct(projects))
	}
	if parts := t.Column(ColTotalPartNumbers); parts != nil {
		if sum, n := sumNumeric(parts); n > 0 {
			s.TotalParts = sum.IntPart()
		}
	}
	s.AvgPSWAvailable = mean3(t.Column(ColPSWAvailable))
	s.AvgDrawingAvailable = mean3(t.Column(ColDrawingAvailable))

	oems, projects := t.Column(ColOEM), t.Column(ColProject)
	if oems != nil && projects != nil {
		byOEM := map[string]map[string]struct{}{}
		for i, o := range oems {
			if table.IsNull(o) || table.IsNull(projects[i]) {
				continue
			}
			k := table.String(o)
			if byOEM[k] == nil {
				byOEM[k] = map[string]struct{}{}
			}
			byOEM[k][table.String(projects[i])] = struct{}{}
		}
		for k, ps := range byOEM {
			s.ProjectsByOEM[k] = len(ps)
		}
	}

	log.Info("generated project summary", runlog.Fields{
		"total_projects": s.TotalProjects,
		"total_parts":    s.TotalParts,
	})
	return s
}

func distinct(vals []any) map[string]struct{} {
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if table.IsNull(v) {
			continue
		}
		out[table.String(v)] = struct{}{}
	}
	return out
}

func numeric(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case int64:
		return decimal.NewFromInt(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case float64:
		return decimal.NewFromFloat(x), true
	}
	d, err := decimal.NewFromString(strings.TrimSpace(table.String(v)))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func sumNumeric(vals []any) (decimal.Decimal, int) {
	sum, n := decimal.Zero, 0
	for _, v := range vals {
		if d, ok := numeric(v); ok {
			sum = sum.Add(d)
			n++
		}
	}
	return sum, n
}

// mean3 is the mean of the numeric values rounded to three places, or 0.
func mean3(vals []any) float64 {
	sum, n := sumNumeric(vals)
	if n == 0 {
		return 0
	}
	f, _ := sum.Div(decimal.NewFromInt(int64(n))).Round(3).Float64()
	return f
}
