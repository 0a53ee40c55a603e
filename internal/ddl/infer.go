package ddl

import (
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// Infer derives a TableDef for t named name. Each column's SQL type comes from
// mapType applied to the column's inferred kind; all columns are nullable.
func Infer(name string, t *table.Table, mapType func(kind string) string) TableDef {
	kinds := t.Kinds()
	cols := make([]ColumnDef, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = ColumnDef{
			Name:     c,
			SQLType:  mapType(string(kinds[i])),
			Nullable: true,
		}
	}
	return TableDef{FQN: name, Columns: cols}
}
