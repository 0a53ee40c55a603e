package parts

import (
	"context"
	"strings"

	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
	"github.com/Storbiic/ETL-Dashboard/internal/transformer/builtin"
)

// FactIDColumns lead every fact_parts row.
var FactIDColumns = []string{ColPartIDStd, ColPartIDRaw}

// BusinessColumns are copied into fact_parts when present.
var BusinessColumns = []string{
	"Item Description", "Supplier Name", "Supplier PN",
	"PSW", "PSW Type", "PSW Sub Type", "YPN Status",
	"Handling Manual", "IMDS STATUS (Yes, No, N/A)",
	"FAR Status", "PPAP Details",
}

// Quality flag columns and their sources.
const (
	FlagPSW            = "psw_ok"
	FlagHandlingManual = "has_handling_manual"
	FlagFAR            = "far_ok"
	FlagIMDS           = "imds_ok"

	srcPSW            = "PSW"
	srcHandlingManual = "Handling Manual"
	srcFAR            = "FAR Status"
	srcIMDS           = "IMDS STATUS (Yes, No, N/A)"
)

type flagRule struct {
	flag, source string
	test         func(v any) bool
}

var flagRules = []flagRule{
	{FlagPSW, srcPSW, func(v any) bool { return v != nil && table.String(v) != "" }},
	{FlagHandlingManual, srcHandlingManual, func(v any) bool { return v != nil }},
	{FlagFAR, srcFAR, func(v any) bool { return containsFold(v, "OK") }},
	{FlagIMDS, srcIMDS, func(v any) bool { return containsFold(v, "Yes") }},
}

func containsFold(v any, sub string) bool {
	if v == nil {
		return false
	}
	return strings.Contains(strings.ToUpper(table.String(v)), strings.ToUpper(sub))
}

func buildFact(_ context.Context, s state) (state, error) {
	if !s.work.Has(ColPartIDStd) {
		s.fact = table.New(FactIDColumns...)
		return s, nil
	}
	cols := append(append([]string(nil), FactIDColumns...), s.schema.Descriptive...)
	fact := builtin.DeDup{Keys: []string{ColPartIDStd}}.Apply(s.work.Select(cols...))

	for _, r := range flagRules {
		src := fact.Column(r.source)
		if src == nil {
			continue
		}
		vals := make([]any, len(src))
		for i, v := range src {
			vals[i] = r.test(v)
		}
		next, err := fact.WithColumn(r.flag, vals)
		if err != nil {
			return s, err
		}
		fact = next
	}
	s.fact = fact
	s.opts.Log.Info("created fact parts table", runlog.Fields{"total_parts": fact.Len(), "columns": len(fact.Columns)})
	return s, nil
}
