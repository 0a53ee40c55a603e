package ddl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gddl "github.com/Storbiic/ETL-Dashboard/internal/ddl"
)

// BuildCreateTableSQL builds a deterministic Postgres CREATE TABLE statement
// for the given table definition.
//
//   - t.FQN must be non-empty; each column needs a Name and SQLType.
//   - Primary-key columns are always NOT NULL, even if Nullable=true.
//   - PRIMARY KEY columns are sorted for determinism.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("postgres ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("postgres ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("postgres ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("postgres ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, QuoteIdent(name))
		}
	}

	if len(pks) > 0 {
		sort.Strings(pks)
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}

// ReplaceTable drops and recreates def's table inside schema-qualified FQN.
// The schema itself is created when missing.
func ReplaceTable(ctx context.Context, ex gddl.Execer, def gddl.TableDef) error {
	create, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	if schema, _, ok := strings.Cut(def.FQN, "."); ok && schema != "" {
		if err := ex.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+QuoteIdent(schema)+";"); err != nil {
			return fmt.Errorf("postgres ddl: create schema %s: %w", schema, err)
		}
	}
	if err := ex.Exec(ctx, "DROP TABLE IF EXISTS "+QuoteFQN(def.FQN)+";"); err != nil {
		return fmt.Errorf("postgres ddl: drop %s: %w", def.FQN, err)
	}
	if err := ex.Exec(ctx, create); err != nil {
		return fmt.Errorf("postgres ddl: create %s: %w", def.FQN, err)
	}
	return nil
}

// QuoteIdent quotes a single identifier segment, e.g. `weird"name` => `"weird""name"`.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes a possibly schema-qualified name like "etl.fact_parts" to
// `"etl"."fact_parts"`. Empty segments are ignored.
func QuoteFQN(f string) string {
	parts := strings.Split(f, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, QuoteIdent(p))
	}
	return strings.Join(out, ".")
}
