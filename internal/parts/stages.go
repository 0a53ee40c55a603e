package parts

import (
	"context"
	"fmt"
	"strings"

	"github.com/Storbiic/ETL-Dashboard/internal/fieldnorm"
	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
	"github.com/Storbiic/ETL-Dashboard/internal/transformer"
	"github.com/Storbiic/ETL-Dashboard/internal/transformer/builtin"
)

// TextColumns are standardized with fieldnorm.StandardizeText when present.
var TextColumns = []string{"Supplier Name", "Original Supplier Name", "Item Description", "Part Specification"}

func cleanHeaders(_ context.Context, s state) (state, error) {
	w := s.work.Clone()
	trimmed := builtin.NormalizeHeaders(w.Columns, false)
	names, changed := builtin.UniqueHeaders(trimmed, "Unnamed: %d")
	for _, i := range changed {
		s.opts.Log.Warn("blank or duplicate header renamed", runlog.Fields{"header": trimmed[i], "renamed": names[i]})
	}
	w.Columns = names
	s.work = w
	return s, nil
}

func resolveColumns(_ context.Context, s state) (state, error) {
	cols := s.work.Columns
	if len(cols) == 0 {
		return s, transformer.Structuralf("parts sheet has no columns")
	}
	log := s.opts.Log

	sc := Schema{}
	idIdx := -1
	for i, c := range cols {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(s.opts.IDColumn)) {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		log.Warn(fmt.Sprintf("ID column '%s' not found, using first column", s.opts.IDColumn), nil)
		idIdx = 0
		sc.IDFallback = true
	}
	sc.ID = cols[idIdx]

	// plant columns sit between the id column and the item description
	end := len(cols)
	for i := idIdx + 1; i < len(cols); i++ {
		lc := strings.ToLower(cols[i])
		if strings.Contains(lc, "item") && strings.Contains(lc, "description") {
			end = i
			break
		}
	}
	sc.Plants = append([]string(nil), cols[idIdx+1:end]...)

	for _, c := range BusinessColumns {
		if s.work.Has(c) {
			sc.Descriptive = append(sc.Descriptive, c)
		}
	}
	dates := s.opts.DateColumns
	if dates == nil {
		dates = fieldnorm.DetectDateColumns(s.work)
	}
	for _, c := range dates {
		if s.work.Has(c) {
			sc.Dates = append(sc.Dates, c)
		}
	}

	preview := sc.Plants
	if len(preview) > 5 {
		preview = preview[:5]
	}
	log.Info("identified columns", runlog.Fields{
		"id_column":             sc.ID,
		"project_columns_count": len(sc.Plants),
		"project_columns":       preview,
	})
	s.schema = sc
	return s, nil
}

func cleanIDs(_ context.Context, s state) (state, error) {
	ids := s.work.Column(s.schema.ID)
	if ids == nil {
		return s, fmt.Errorf("id column %q missing", s.schema.ID)
	}
	raw := make([]any, len(ids))
	std := make([]any, len(ids))
	count := make(map[string]int, len(ids))
	valid := 0
	for i, v := range ids {
		raw[i] = rawID(v)
		id := fieldnorm.CleanIdentifier(v)
		std[i] = id
		count[id]++
		if id != "" {
			valid++
		}
	}

	w, err := s.work.WithColumn(ColPartIDRaw, raw)
	if err != nil {
		return s, err
	}
	if w, err = w.WithColumn(ColPartIDStd, std); err != nil {
		return s, err
	}
	s.work = w
	s.idCount = count
	s.opts.Log.Info("cleaned ID column", runlog.Fields{
		"total_parts": len(ids),
		"valid_ids":   valid,
		"empty_ids":   len(ids) - valid,
	})
	return s, nil
}

func processDates(_ context.Context, s state) (state, error) {
	w := s.work
	var done []string
	for _, col := range s.schema.Dates {
		derived := fieldnorm.ParseDateColumn(w.Column(col), col)
		next := w
		ok := true
		for _, dc := range derived.Columns {
			if dc == col {
				continue
			}
			n, err := next.WithColumn(dc, derived.Column(dc))
			if err != nil {
				s.opts.Log.Error(fmt.Sprintf("failed to process date column '%s'", col), runlog.Fields{"error": err.Error()})
				ok = false
				break
			}
			next = n
		}
		if ok {
			w = next
			done = append(done, col)
		}
	}
	s.work = w
	s.opts.Log.Info("processed date columns", runlog.Fields{
		"requested": len(s.schema.Dates),
		"processed": len(done),
		"columns":   done,
	})
	return s, nil
}

func standardizeText(_ context.Context, s state) (state, error) {
	w := s.work
	n := 0
	for _, c := range TextColumns {
		vals := w.Column(c)
		if vals == nil {
			continue
		}
		for i, v := range vals {
			vals[i] = fieldnorm.StandardizeText(v)
		}
		next, err := w.WithColumn(c, vals)
		if err != nil {
			return s, err
		}
		w = next
		n++
	}
	s.work = w
	s.opts.Log.Info("standardized text columns", runlog.Fields{"count": n})
	return s, nil
}

func finalize(_ context.Context, s state) (state, error) {
	out, removed := builtin.DedupRows(s.work)
	s.work = out
	s.removed = removed
	if removed > 0 {
		s.opts.Log.Info("removed duplicate rows", runlog.Fields{"count": removed})
	}
	return s, nil
}

// rawID is the identifier as text; a missing id is "".
func rawID(v any) string { return table.String(v) }
