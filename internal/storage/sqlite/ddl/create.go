// Package ddl renders SQLite DDL for the generic ddl.TableDef model.
//
// Identifiers are double-quoted with embedded quotes doubled, so column names
// taken straight from spreadsheet headers ("IMDS STATUS (Yes, No, N/A)") are
// safe to use. ColumnDef.Default is emitted as raw SQL.
package ddl

import (
	"context"
	"fmt"
	"strings"

	gddl "github.com/Storbiic/ETL-Dashboard/internal/ddl"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement:
//
//	CREATE TABLE "table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  "col2" TYPE,
//	  PRIMARY KEY ("pk1", "pk2")
//	);
//
// A dotted FQN ("main.events") has each segment quoted.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: table %s has no columns", fqn)
	}

	lines := make([]string, 0, len(t.Columns)+1)
	var pks []string
	seen := make(map[string]struct{}, len(t.Columns))

	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("sqlite ddl: column with empty name in table %s", fqn)
		}
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			return "", fmt.Errorf("sqlite ddl: duplicate column %q in table %s", c.Name, fqn)
		}
		seen[key] = struct{}{}

		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("sqlite ddl: column %s missing SQLType", c.Name)
		}

		line := quoteIdent(c.Name) + " " + typ
		if !c.Nullable {
			line += " NOT NULL"
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			line += " DEFAULT " + def
		}
		lines = append(lines, line)

		if c.PrimaryKey {
			pks = append(pks, quoteIdent(c.Name))
		}
	}
	if len(pks) > 0 {
		lines = append(lines, "PRIMARY KEY ("+strings.Join(pks, ", ")+")")
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", quoteFQN(fqn), strings.Join(lines, ",\n  ")), nil
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS for name.
func BuildDropTableSQL(name string) string {
	return "DROP TABLE IF EXISTS " + quoteFQN(name) + ";"
}

// ReplaceTable drops def's table if present and creates it again.
func ReplaceTable(ctx context.Context, ex gddl.Execer, def gddl.TableDef) error {
	create, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	if err := ex.Exec(ctx, BuildDropTableSQL(def.FQN)); err != nil {
		return fmt.Errorf("sqlite ddl: drop %s: %w", def.FQN, err)
	}
	if err := ex.Exec(ctx, create); err != nil {
		return fmt.Errorf("sqlite ddl: create %s: %w", def.FQN, err)
	}
	return nil
}

// QuoteIdent quotes one identifier.
func QuoteIdent(id string) string { return quoteIdent(id) }

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}
