package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
	"github.com/Storbiic/ETL-Dashboard/internal/storage"
	"github.com/Storbiic/ETL-Dashboard/internal/storage/postgres"
	pgddl "github.com/Storbiic/ETL-Dashboard/internal/storage/postgres/ddl"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// Loader is the part of postgres.Repository the publisher needs.
type Loader interface {
	Exec(ctx context.Context, sql string) error
	CopyFrom(ctx context.Context, fqn string, columns []string, rows [][]any) (int64, error)
}

// Postgres replaces each non-empty table in Schema and COPYs its rows.
type Postgres struct {
	Repo      Loader
	Schema    string
	BatchSize int
}

// NewPostgres connects to cfg.DSN. The returned func closes the pool.
func NewPostgres(ctx context.Context, cfg config.Postgres) (*Postgres, func(), error) {
	repo, closeFn, err := postgres.NewRepository(ctx, postgres.Config{DSN: cfg.DSN})
	if err != nil {
		return nil, nil, err
	}
	return &Postgres{Repo: repo, Schema: cfg.Schema}, closeFn, nil
}

func (p *Postgres) Name() string { return "postgres" }

// Publish stops at the first table that fails.
func (p *Postgres) Publish(ctx context.Context, run Run) error {
	batch := p.BatchSize
	if batch <= 0 {
		batch = 5000
	}
	for _, nt := range run.Tables {
		if nt.Table.Empty() {
			continue
		}
		def := pgddl.FromTable(p.Schema, nt.Name, nt.Table)
		if err := pgddl.ReplaceTable(ctx, p.Repo, def); err != nil {
			return fmt.Errorf("postgres: %s: %w", nt.Name, err)
		}
		copyFn := func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
			return p.Repo.CopyFrom(ctx, def.FQN, cols, rows)
		}
		if _, err := storage.LoadBatches(ctx, nt.Table.Columns, PostgresRows(nt.Table), batch, copyFn); err != nil {
			return fmt.Errorf("postgres: %s: %w", nt.Name, err)
		}
	}
	return nil
}

// PostgresRows aligns cells with the inferred column types: text columns are
// stringified, ints widened to int64 and dates kept as time.Time.
func PostgresRows(t *table.Table) [][]any {
	kinds := t.Kinds()
	out := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]any, len(t.Columns))
		for j := range r {
			var v any
			if j < len(row) {
				v = row[j]
			}
			r[j] = pgValue(v, kinds[j])
		}
		out[i] = r
	}
	return out
}

func pgValue(v any, k table.Kind) any {
	if v == nil {
		return nil
	}
	switch k {
	case table.KindString:
		return table.String(v)
	case table.KindFloat:
		switch x := v.(type) {
		case int64:
			return float64(x)
		case int:
			return float64(x)
		}
	case table.KindInt:
		if x, ok := v.(int); ok {
			return int64(x)
		}
	case table.KindDate:
		if x, ok := v.(time.Time); ok {
			return x.UTC()
		}
	}
	return v
}
