package ddl

import (
	"strings"

	gddl "github.com/Storbiic/ETL-Dashboard/internal/ddl"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// MapType maps an inferred column kind to a SQLite column type.
//
//   - int64  -> INTEGER
//   - bool   -> INTEGER (0/1)
//   - float64-> REAL
//   - date   -> TEXT (ISO calendar date)
//   - others -> TEXT
func MapType(kind string) string {
	switch table.Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case table.KindInt, table.KindBool:
		return "INTEGER"
	case table.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// FromTable infers the SQLite definition of t stored as name.
func FromTable(name string, t *table.Table) gddl.TableDef {
	return gddl.Infer(name, t, MapType)
}
