package dimdate

import (
	"testing"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

/*
TestBuildSameDateTwoRoles verifies that one calendar date seen under two
different roles yields two rows, not one.
*/
func TestBuildSameDateTwoRoles(t *testing.T) {
	log := runlog.Discard()
	out := Build([]Source{
		{Role: "SOP Date", Values: []any{"2024-01-15"}},
		{Role: "Approved Date", Values: []any{"2024-01-15"}},
	}, log)

	if out.Len() != 2 {
		t.Fatalf("rows = %d; want 2", out.Len())
	}
	if out.Value(0, "role") != "SOP Date" || out.Value(1, "role") != "Approved Date" {
		t.Fatalf("roles = %v, %v", out.Value(0, "role"), out.Value(1, "role"))
	}
	d := out.Value(0, "date").(time.Time)
	if d.Format(table.DateLayout) != "2024-01-15" {
		t.Fatalf("date = %v", d)
	}
	if out.Value(0, "weekday") != int64(0) || out.Value(0, "day_name") != "Monday" {
		t.Fatalf("2024-01-15 is a Monday, got %v/%v", out.Value(0, "weekday"), out.Value(0, "day_name"))
	}
	if out.Value(0, "month_name") != "January" || out.Value(0, "quarter") != int64(1) || out.Value(0, "week") != int64(3) {
		t.Fatalf("row = %#v", out.Rows[0])
	}
}

func TestBuildDedupesWithinRole(t *testing.T) {
	out := Build([]Source{
		{Role: "SOP", Values: []any{"2024-01-15", "01/15/2024", "bad", nil, "2024-03-02"}},
	}, runlog.Discard())

	if out.Len() != 2 {
		t.Fatalf("rows = %d; want 2", out.Len())
	}
	seen := map[string]bool{}
	for i := 0; i < out.Len(); i++ {
		k := out.Value(i, "date").(time.Time).Format(table.DateLayout) + "|" + out.Value(i, "role").(string)
		if seen[k] {
			t.Fatalf("duplicate (date, role) %s", k)
		}
		seen[k] = true
	}
	// Saturday is 5 with Monday as 0
	if out.Value(1, "weekday") != int64(5) {
		t.Fatalf("weekday = %v", out.Value(1, "weekday"))
	}
}

func TestBuildEmptyWarns(t *testing.T) {
	log := runlog.Discard()
	out := Build([]Source{{Role: "SOP", Values: []any{"n/a", nil}}}, log)
	if !out.Empty() || len(out.Columns) != len(Columns) {
		t.Fatalf("want empty dim_dates with full header, got %d rows %v", out.Len(), out.Columns)
	}
	if log.Count(runlog.LevelWarning) != 1 {
		t.Fatalf("want one warning, got %v", log.Entries())
	}

	if out := Build(nil, nil); !out.Empty() {
		t.Fatalf("nil sources should give empty table")
	}
}

func TestRolesExplicitFirst(t *testing.T) {
	got := Roles([]string{"SOP Date", "PPAP Date"}, []string{"Approved", "SOP Date"})
	want := []string{"SOP Date", "PPAP Date", "Approved"}
	if len(got) != len(want) {
		t.Fatalf("Roles = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Roles = %v; want %v", got, want)
		}
	}
}

func TestFromTableSkipsMissing(t *testing.T) {
	tb := table.New("id", "SOP Date")
	tb.Append([]any{"a", "2024-01-15"})
	src := FromTable(tb, []string{"SOP Date", "Ghost Date"})
	if len(src) != 1 || src[0].Role != "SOP Date" || len(src[0].Values) != 1 {
		t.Fatalf("FromTable = %#v", src)
	}
}
