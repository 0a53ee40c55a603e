package ddl

import (
	"strings"
	"testing"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// TestInfer verifies column order, nullability and that the mapper sees the
// inferred kind of every column.
func TestInfer(t *testing.T) {
	t.Parallel()

	tb := table.New("id", "n", "pct", "ok", "d", "empty")
	tb.Append([]any{"A", int64(1), 0.5, true, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), nil})
	tb.Append([]any{"B", int64(2), int64(1), false, nil, nil})

	def := Infer("fact_parts", tb, strings.ToUpper)
	if def.FQN != "fact_parts" || len(def.Columns) != 6 {
		t.Fatalf("Infer = %+v", def)
	}
	want := []string{"STRING", "INT64", "FLOAT64", "BOOL", "DATE", "STRING"}
	for i, c := range def.Columns {
		if c.Name != tb.Columns[i] {
			t.Fatalf("column %d name = %q, want %q", i, c.Name, tb.Columns[i])
		}
		if c.SQLType != want[i] {
			t.Fatalf("column %q type = %q, want %q", c.Name, c.SQLType, want[i])
		}
		if !c.Nullable {
			t.Fatalf("column %q should be nullable", c.Name)
		}
	}
}
