package ddl

import (
	"context"
	"errors"
	"strings"
	"testing"

	gddl "github.com/Storbiic/ETL-Dashboard/internal/ddl"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// TestQuoteIdent verifies double-quoted identifier quoting with embedded
// double quotes escaped.
func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "name", want: `"name"`},
		{in: "", want: `""`},
		{in: "IMDS STATUS (Yes, No, N/A)", want: `"IMDS STATUS (Yes, No, N/A)"`},
		{in: `weird"name`, want: `"weird""name"`},
	}
	for _, tt := range tests {
		if got := QuoteIdent(tt.in); got != tt.want {
			t.Fatalf("QuoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := quoteFQN(" .main..events. "); got != `"main"."events"` {
		t.Fatalf("quoteFQN = %q", got)
	}
}

// TestBuildCreateTableSQLErrors validates input checks.
func TestBuildCreateTableSQLErrors(t *testing.T) {
	t.Parallel()

	defs := map[string]gddl.TableDef{
		"empty name":   {FQN: " ", Columns: []gddl.ColumnDef{{Name: "id", SQLType: "TEXT"}}},
		"no columns":   {FQN: "t"},
		"empty column": {FQN: "t", Columns: []gddl.ColumnDef{{Name: " ", SQLType: "TEXT"}}},
		"no type":      {FQN: "t", Columns: []gddl.ColumnDef{{Name: "id"}}},
		"duplicate":    {FQN: "t", Columns: []gddl.ColumnDef{{Name: "a", SQLType: "TEXT"}, {Name: "A", SQLType: "TEXT"}}},
	}
	for name, def := range defs {
		if sql, err := BuildCreateTableSQL(def); err == nil || sql != "" {
			t.Fatalf("%s: BuildCreateTableSQL = %q, %v; want error", name, sql, err)
		}
	}
}

func TestBuildCreateTableSQLBasic(t *testing.T) {
	t.Parallel()

	def := gddl.TableDef{
		FQN: "fact_parts",
		Columns: []gddl.ColumnDef{
			{Name: "part_id_std", SQLType: "TEXT", PrimaryKey: true},
			{Name: "psw_ok", SQLType: "INTEGER", Nullable: true, Default: "0"},
		},
	}
	got, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}
	want := "" +
		`CREATE TABLE "fact_parts" (` + "\n" +
		`  "part_id_std" TEXT NOT NULL,` + "\n" +
		`  "psw_ok" INTEGER DEFAULT 0,` + "\n" +
		`  PRIMARY KEY ("part_id_std")` + "\n" +
		`);`
	if got != want {
		t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", got, want)
	}
}

type recordingExec struct {
	stmts []string
	fail  int // 1-based statement that fails
}

func (r *recordingExec) Exec(_ context.Context, sql string) error {
	r.stmts = append(r.stmts, sql)
	if len(r.stmts) == r.fail {
		return errors.New("exec failed")
	}
	return nil
}

// TestReplaceTable verifies DROP runs before CREATE and that failures stop
// the sequence.
func TestReplaceTable(t *testing.T) {
	t.Parallel()

	def := gddl.TableDef{FQN: "dim_dates", Columns: []gddl.ColumnDef{{Name: "date", SQLType: "TEXT", Nullable: true}}}

	var ok recordingExec
	if err := ReplaceTable(context.Background(), &ok, def); err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}
	if len(ok.stmts) != 2 || !strings.HasPrefix(ok.stmts[0], `DROP TABLE IF EXISTS "dim_dates"`) || !strings.HasPrefix(ok.stmts[1], `CREATE TABLE "dim_dates"`) {
		t.Fatalf("statements = %q", ok.stmts)
	}

	bad := recordingExec{fail: 1}
	if err := ReplaceTable(context.Background(), &bad, def); err == nil || len(bad.stmts) != 1 {
		t.Fatalf("want error after failed drop, got %v with %d statements", err, len(bad.stmts))
	}

	var none recordingExec
	if err := ReplaceTable(context.Background(), &none, gddl.TableDef{FQN: "x"}); err == nil || len(none.stmts) != 0 {
		t.Fatalf("invalid def must fail before any Exec")
	}
}

func TestFromTable(t *testing.T) {
	t.Parallel()

	tb := table.New("part_id_std", "n_active", "psw_ok")
	tb.Append([]any{"A", int64(1), true})
	def := FromTable("plant_item_status", tb)
	got := []string{def.Columns[0].SQLType, def.Columns[1].SQLType, def.Columns[2].SQLType}
	if got[0] != "TEXT" || got[1] != "INTEGER" || got[2] != "INTEGER" {
		t.Fatalf("types = %v", got)
	}
}
