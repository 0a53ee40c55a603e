package parts

import (
	"context"
	"errors"
	"strings"

	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// Identifier columns added to the sheet.
const (
	ColPartIDRaw = "part_id_raw"
	ColPartIDStd = "part_id_std"
)

// plant_item_status columns after the carried identifier columns.
const (
	ColProjectPlant = "project_plant"
	ColRawStatus    = "raw_status"
	ColStatusClass  = "status_class"
	ColIsDuplicate  = "is_duplicate"
	ColIsNew        = "is_new"
	ColNotes        = "notes"
	ColNActive      = "n_active"
	ColNInactive    = "n_inactive"
	ColNNew         = "n_new"
	ColNDuplicate   = "n_duplicate"
)

var counterColumns = []string{ColNActive, ColNInactive, ColNNew, ColNDuplicate}

func carriedColumns(id string) []string {
	cols := []string{ColPartIDStd, ColPartIDRaw}
	if id != "" && id != ColPartIDStd && id != ColPartIDRaw {
		cols = append(cols, id)
	}
	return cols
}

func plantStatusColumns(id string) []string {
	cols := carriedColumns(id)
	cols = append(cols, ColProjectPlant, ColRawStatus, ColStatusClass, ColIsDuplicate, ColIsNew, ColNotes)
	return append(cols, counterColumns...)
}

// melt builds the long table with one row per (part, plant), plant by plant
// in column order. The row slice is sized up front.
func melt(_ context.Context, s state) (state, error) {
	if len(s.schema.Plants) == 0 {
		s.opts.Log.Warn("no project columns found for normalization", nil)
		s.plantStatus = table.New(plantStatusColumns(s.schema.ID)...)
		return s, nil
	}

	carry := carriedColumns(s.schema.ID)
	carryIdx := make([]int, len(carry))
	for i, c := range carry {
		carryIdx[i] = s.work.Index(c)
	}

	cols := append(append([]string(nil), carry...), ColProjectPlant, ColRawStatus)
	long := &table.Table{
		Columns: cols,
		Rows:    make([][]any, 0, s.work.Len()*len(s.schema.Plants)),
	}
	for _, plant := range s.schema.Plants {
		pi := s.work.Index(plant)
		for _, row := range s.work.Rows {
			r := make([]any, len(cols))
			for j, ci := range carryIdx {
				if ci >= 0 && ci < len(row) {
					r[j] = row[ci]
				}
			}
			r[len(carry)] = plant
			if pi >= 0 && pi < len(row) {
				r[len(carry)+1] = row[pi]
			}
			long.Rows = append(long.Rows, r)
		}
	}
	s.plantStatus = long
	return s, nil
}

// ClassifyStatus maps a raw plant cell to its status class.
func ClassifyStatus(v any) string {
	switch strings.ToUpper(strings.TrimSpace(table.String(v))) {
	case "X":
		return StatusActive
	case "D":
		return StatusInactive
	case "0":
		return StatusDuplicate
	default:
		// "", "NAN", "NONE" and anything unrecognised
		return StatusNew
	}
}

var errNoLongTable = errors.New("plant status table not built")

func classify(_ context.Context, s state) (state, error) {
	if s.plantStatus == nil {
		return s, errNoLongTable
	}
	raw := s.plantStatus.Column(ColRawStatus)
	cls := make([]any, len(raw))
	for i, v := range raw {
		cls[i] = ClassifyStatus(v)
	}
	out, err := s.plantStatus.WithColumn(ColStatusClass, cls)
	if err != nil {
		return s, err
	}
	s.plantStatus = out
	return s, nil
}

// confirmDuplicates sets is_duplicate on "duplicate" rows whose part id occurs
// more than once in the sheet, regardless of which plant cell held the 0.
func confirmDuplicates(_ context.Context, s state) (state, error) {
	if s.plantStatus == nil || !s.plantStatus.Has(ColStatusClass) {
		return s, errNoLongTable
	}
	n := s.plantStatus.Len()
	dup := make([]any, n)
	isNew := make([]any, n)
	notes := make([]any, n)
	ids := s.plantStatus.Column(ColPartIDStd)
	for i, c := range s.plantStatus.Column(ColStatusClass) {
		dup[i] = c == StatusDuplicate && s.idCount[table.String(ids[i])] > 1
		isNew[i] = c == StatusNew
	}

	out := s.plantStatus
	for _, col := range []struct {
		name string
		vals []any
	}{{ColIsDuplicate, dup}, {ColIsNew, isNew}, {ColNotes, notes}} {
		next, err := out.WithColumn(col.name, col.vals)
		if err != nil {
			return s, err
		}
		out = next
	}
	s.plantStatus = out
	return s, nil
}

// plantCounts broadcasts per-part status counts onto every row of that part.
func plantCounts(_ context.Context, s state) (state, error) {
	if s.plantStatus == nil || !s.plantStatus.Has(ColStatusClass) {
		return s, errNoLongTable
	}
	type counts [4]int64
	ids := s.plantStatus.Column(ColPartIDStd)
	cls := s.plantStatus.Column(ColStatusClass)

	byPart := make(map[string]*counts)
	for i, id := range ids {
		key := table.String(id)
		c := byPart[key]
		if c == nil {
			c = &counts{}
			byPart[key] = c
		}
		switch cls[i] {
		case StatusActive:
			c[0]++
		case StatusInactive:
			c[1]++
		case StatusNew:
			c[2]++
		case StatusDuplicate:
			c[3]++
		}
	}

	out := s.plantStatus
	for k, name := range counterColumns {
		vals := make([]any, len(ids))
		for i, id := range ids {
			vals[i] = byPart[table.String(id)][k]
		}
		next, err := out.WithColumn(name, vals)
		if err != nil {
			return s, err
		}
		out = next
	}
	s.plantStatus = out

	plants := make(map[string]struct{})
	for _, p := range out.Column(ColProjectPlant) {
		plants[table.String(p)] = struct{}{}
	}
	s.opts.Log.Info("created plant-item-status table", runlog.Fields{
		"total_records": out.Len(),
		"unique_parts":  len(byPart),
		"unique_plants": len(plants),
	})
	return s, nil
}
