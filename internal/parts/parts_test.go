package parts

import (
	"context"
	"errors"
	"testing"

	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
	"github.com/Storbiic/ETL-Dashboard/internal/transformer"
)

/*
sheet builds a small parts sheet: id, two plant columns, then descriptive
columns starting at "Item Description".
*/
func sheet(rows ...[]any) *table.Table {
	t := table.New(" YAZAKI PN ", "P1", "P2", "Item Description", "PSW", "FAR Status", "IMDS STATUS (Yes, No, N/A)", "Handling Manual")
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func process(t *testing.T, raw *table.Table, opts Options) Result {
	t.Helper()
	if opts.Log == nil {
		opts.Log = runlog.Discard()
	}
	res, err := Process(context.Background(), raw, opts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return res
}

func rowsFor(t *table.Table, id string) []int {
	var out []int
	for i := 0; i < t.Len(); i++ {
		if t.Value(i, ColPartIDStd) == id {
			out = append(out, i)
		}
	}
	return out
}

/*
TestProcessActivePart: an "X" in a plant column makes that (part, plant) row
active with n_active = 1.
*/
func TestProcessActivePart(t *testing.T) {
	res := process(t, sheet([]any{"ab-12 ", "X", nil, "widget", nil, nil, nil, nil}), Options{})

	if res.Schema.ID != "YAZAKI PN" || res.Schema.IDFallback {
		t.Fatalf("schema id = %q fallback=%v", res.Schema.ID, res.Schema.IDFallback)
	}
	if len(res.Schema.Plants) != 2 {
		t.Fatalf("plants = %v", res.Schema.Plants)
	}

	ps := res.PlantStatus
	if ps.Len() != 2 {
		t.Fatalf("plant_item_status rows = %d; want 2", ps.Len())
	}
	if ps.Value(0, ColProjectPlant) != "P1" || ps.Value(0, ColStatusClass) != StatusActive {
		t.Fatalf("row 0 = %#v", ps.Rows[0])
	}
	if ps.Value(0, ColNActive) != int64(1) || ps.Value(0, ColNNew) != int64(1) {
		t.Fatalf("counters = %v/%v", ps.Value(0, ColNActive), ps.Value(0, ColNNew))
	}
	if ps.Value(1, ColStatusClass) != StatusNew || ps.Value(1, ColIsNew) != true {
		t.Fatalf("empty cell should be new, got %#v", ps.Rows[1])
	}
	if ps.Value(0, ColPartIDStd) != "AB-12" || ps.Value(0, ColPartIDRaw) != "ab-12 " {
		t.Fatalf("ids = %v / %v", ps.Value(0, ColPartIDStd), ps.Value(0, ColPartIDRaw))
	}
	if ps.Value(0, ColNotes) != nil {
		t.Fatalf("notes = %v", ps.Value(0, ColNotes))
	}
}

/*
TestProcessDuplicateConfirmation: "0" is always classified duplicate, but
is_duplicate is only true when the part id repeats across sheet rows.
*/
func TestProcessDuplicateConfirmation(t *testing.T) {
	res := process(t, sheet(
		[]any{"A1", "0", "X", "first", nil, nil, nil, nil},
		[]any{"a1", "D", "X", "second", nil, nil, nil, nil},
		[]any{"B2", "0", "D", "only", nil, nil, nil, nil},
	), Options{})

	ps := res.PlantStatus
	for _, i := range rowsFor(ps, "A1") {
		if ps.Value(i, ColRawStatus) == "0" {
			if ps.Value(i, ColStatusClass) != StatusDuplicate || ps.Value(i, ColIsDuplicate) != true {
				t.Fatalf("A1 zero cell = %#v", ps.Rows[i])
			}
		}
	}
	b := rowsFor(ps, "B2")
	if len(b) != 2 {
		t.Fatalf("B2 rows = %d", len(b))
	}
	for _, i := range b {
		if ps.Value(i, ColRawStatus) == "0" {
			if ps.Value(i, ColStatusClass) != StatusDuplicate || ps.Value(i, ColIsDuplicate) != false {
				t.Fatalf("B2 zero cell = %#v", ps.Rows[i])
			}
		} else if ps.Value(i, ColIsDuplicate) != false {
			t.Fatalf("non-zero cell flagged duplicate: %#v", ps.Rows[i])
		}
	}

	if res.Fact.Len() != 2 {
		t.Fatalf("fact_parts rows = %d; want one per part", res.Fact.Len())
	}
	if res.Fact.Value(0, "Item Description") != "First" {
		t.Fatalf("fact keeps first occurrence, got %v", res.Fact.Value(0, "Item Description"))
	}
}

/*
TestProcessCountersSumToPlants: for every part the four counters are the same
on all of its rows and add up to its number of plant rows.
*/
func TestProcessCountersSumToPlants(t *testing.T) {
	res := process(t, sheet(
		[]any{"A", "X", "D", nil, nil, nil, nil, nil},
		[]any{"A", "0", "zz", nil, nil, nil, nil, nil},
		[]any{"B", nil, "nan", nil, nil, nil, nil, nil},
	), Options{})

	ps := res.PlantStatus
	for _, id := range []string{"A", "B"} {
		rows := rowsFor(ps, id)
		var first [4]int64
		for n, i := range rows {
			var sum int64
			var got [4]int64
			for k, c := range counterColumns {
				got[k] = ps.Value(i, c).(int64)
				sum += got[k]
			}
			if n == 0 {
				first = got
			} else if got != first {
				t.Fatalf("%s counters differ across rows: %v vs %v", id, got, first)
			}
			if sum != int64(len(rows)) {
				t.Fatalf("%s counters sum %d; want %d", id, sum, len(rows))
			}
		}
	}
}

func TestProcessFactFlags(t *testing.T) {
	res := process(t, sheet(
		[]any{"A", "X", nil, "w", "yes", "ok - signed", "YES", "v2"},
		[]any{"B", "X", nil, "w", "", "pending", "No", nil},
	), Options{})

	f := res.Fact
	want := map[string][2]bool{
		FlagPSW:            {true, false},
		FlagFAR:            {true, false},
		FlagIMDS:           {true, false},
		FlagHandlingManual: {true, false},
	}
	for col, w := range want {
		if f.Value(0, col) != w[0] || f.Value(1, col) != w[1] {
			t.Fatalf("%s = %v, %v; want %v", col, f.Value(0, col), f.Value(1, col), w)
		}
	}

	noFlags := process(t, table.New("YAZAKI PN", "P1"), Options{})
	for _, r := range flagRules {
		if noFlags.Fact.Has(r.flag) {
			t.Fatalf("flag %s computed without source column", r.flag)
		}
	}
}

/*
TestProcessEmptySheet: zero rows still succeed and yield empty tables.
*/
func TestProcessEmptySheet(t *testing.T) {
	res := process(t, sheet(), Options{})
	if !res.Clean.Empty() || !res.PlantStatus.Empty() || !res.Fact.Empty() {
		t.Fatalf("want empty outputs, got %d/%d/%d", res.Clean.Len(), res.PlantStatus.Len(), res.Fact.Len())
	}
	if res.DuplicatesRemoved != 0 {
		t.Fatalf("duplicates removed = %d", res.DuplicatesRemoved)
	}
}

func TestProcessNoColumnsIsStructural(t *testing.T) {
	_, err := Process(context.Background(), table.New(), Options{Log: runlog.Discard()})
	if !errors.Is(err, transformer.ErrStructural) {
		t.Fatalf("want structural error, got %v", err)
	}
}

func TestProcessIDFallbackWarns(t *testing.T) {
	log := runlog.Discard()
	raw := table.New("Part", "P1", "Item Description")
	raw.Append([]any{"z9", "X", "thing"})
	res := process(t, raw, Options{IDColumn: "Missing", Log: log})

	if res.Schema.ID != "Part" || !res.Schema.IDFallback {
		t.Fatalf("schema = %+v", res.Schema)
	}
	if log.Count(runlog.LevelWarning) == 0 {
		t.Fatalf("want fallback warning")
	}
	if len(res.Schema.Plants) != 1 || res.Schema.Plants[0] != "P1" {
		t.Fatalf("plants = %v", res.Schema.Plants)
	}
}

/*
TestProcessBlankAndRepeatedHeaders: a blank header gets a positional name and
a repeated plant header a suffix, so every cleaned column is addressable.
*/
func TestProcessBlankAndRepeatedHeaders(t *testing.T) {
	log := runlog.Discard()
	raw := table.New("YAZAKI PN", "P1", "P1", "Item Description", "")
	raw.Append([]any{"A", "X", "D", "clip", "note"})
	res := process(t, raw, Options{Log: log})

	if len(res.Schema.Plants) != 2 || res.Schema.Plants[0] != "P1" || res.Schema.Plants[1] != "P1_2" {
		t.Fatalf("plants = %v", res.Schema.Plants)
	}
	if !res.Clean.Has("Unnamed: 4") {
		t.Fatalf("clean columns = %v", res.Clean.Columns)
	}
	for _, c := range res.Clean.Columns {
		if c == "" {
			t.Fatalf("blank column survived: %v", res.Clean.Columns)
		}
	}
	if log.Count(runlog.LevelWarning) < 2 {
		t.Fatalf("want header warnings, got %v", log.Entries())
	}
}

func TestProcessNoDescriptionMeansAllPlants(t *testing.T) {
	raw := table.New("YAZAKI PN", "P1", "P2", "P3")
	raw.Append([]any{"A", "X", "X", "D"})
	res := process(t, raw, Options{})
	if len(res.Schema.Plants) != 3 || res.PlantStatus.Len() != 3 {
		t.Fatalf("plants = %v rows = %d", res.Schema.Plants, res.PlantStatus.Len())
	}
}

/*
TestProcessDatesAndFinalize checks derived date columns are appended without
touching the source column and that exact duplicate rows are dropped last.
*/
func TestProcessDatesAndFinalize(t *testing.T) {
	raw := table.New("YAZAKI PN", "P1", "Item Description", "SOP Date")
	raw.Append([]any{"A", "X", "x", "2024-01-15"})
	raw.Append([]any{"A", "X", "x", "2024-01-15"})
	raw.Append([]any{"B", "D", "y", "not a date"})

	res := process(t, raw, Options{DateColumns: []string{"SOP Date", "Ghost"}})
	c := res.Clean
	for _, suffix := range []string{"_date", "_year", "_month", "_day", "_qtr", "_week"} {
		if !c.Has("SOP Date" + suffix) {
			t.Fatalf("missing derived column SOP Date%s in %v", suffix, c.Columns)
		}
	}
	if c.Value(0, "SOP Date") != "2024-01-15" {
		t.Fatalf("source date column overwritten: %v", c.Value(0, "SOP Date"))
	}
	if c.Value(0, "SOP Date_year") != int64(2024) {
		t.Fatalf("year = %#v", c.Value(0, "SOP Date_year"))
	}
	if res.DuplicatesRemoved != 1 || c.Len() != 2 {
		t.Fatalf("removed = %d rows = %d", res.DuplicatesRemoved, c.Len())
	}
	if c.Value(1, "SOP Date_year") != nil {
		t.Fatalf("unparseable date should give nil parts, got %v", c.Value(1, "SOP Date_year"))
	}
	if len(res.Schema.Dates) != 1 {
		t.Fatalf("dates = %v", res.Schema.Dates)
	}
}

func TestClassifyStatus(t *testing.T) {
	cases := map[any]string{
		"X": StatusActive, " x ": StatusActive,
		"D": StatusInactive, "d": StatusInactive,
		"0": StatusDuplicate,
		"":  StatusNew, "nan": StatusNew, "None": StatusNew, "?": StatusNew,
	}
	for in, want := range cases {
		if got := ClassifyStatus(in); got != want {
			t.Fatalf("ClassifyStatus(%q) = %q; want %q", in, got, want)
		}
	}
	if ClassifyStatus(nil) != StatusNew || ClassifyStatus(int64(0)) != StatusDuplicate {
		t.Fatalf("non-string inputs misclassified")
	}
}
