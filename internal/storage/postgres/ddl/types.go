// Package ddl renders Postgres DDL for published tables.
package ddl

import (
	"strings"

	gddl "github.com/Storbiic/ETL-Dashboard/internal/ddl"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// MapType maps an inferred column kind to a Postgres type.
//
//	int64   -> BIGINT
//	float64 -> DOUBLE PRECISION
//	bool    -> BOOLEAN
//	date    -> DATE
//	others  -> TEXT
func MapType(kind string) string {
	switch table.Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case table.KindInt:
		return "BIGINT"
	case table.KindFloat:
		return "DOUBLE PRECISION"
	case table.KindBool:
		return "BOOLEAN"
	case table.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// FromTable infers the definition of t published as schema.name. An empty
// schema leaves the name unqualified.
func FromTable(schema, name string, t *table.Table) gddl.TableDef {
	fqn := name
	if s := strings.TrimSpace(schema); s != "" {
		fqn = s + "." + name
	}
	return gddl.Infer(fqn, t, MapType)
}
