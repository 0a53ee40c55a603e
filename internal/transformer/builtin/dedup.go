// Package builtin contains reusable table transforms used by the processors.
//
// DeDup collapses rows that share a business key, keeping the first
// occurrence. DedupRows removes exact duplicate rows. Rows are bucketed by
// RowHash and compared cell by cell inside a bucket, so a hash collision
// never drops a distinct row.
package builtin

import (
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// DeDup keeps the first row of every business key.
type DeDup struct {
	// Keys are the column names that form the business key, e.g. ["part_id_std"].
	Keys []string
}

// Apply returns a new table with one row per key, in first-seen order. When
// a key column is missing from in, in is returned unchanged.
func (d DeDup) Apply(in *table.Table) *table.Table {
	if in.Len() == 0 || len(d.Keys) == 0 {
		return in
	}
	idx := make([]int, len(d.Keys))
	for i, k := range d.Keys {
		idx[i] = in.Index(k)
		if idx[i] < 0 {
			return in
		}
	}

	seen := make(map[string]struct{}, in.Len())
	out := &table.Table{Columns: append([]string(nil), in.Columns...), Rows: make([][]any, 0, in.Len())}
	for _, r := range in.Rows {
		key := keyOf(r, idx)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func keyOf(r []any, idx []int) string {
	var b strings.Builder
	for n, i := range idx {
		if n > 0 {
			b.WriteByte('\x1f')
		}
		var v any
		if i < len(r) {
			v = r[i]
		}
		writeCell(&b, v)
	}
	return b.String()
}

// writeCell renders v with a kind tag so "1" and int64(1) never compare equal.
func writeCell(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteByte('\x00')
	case string:
		b.WriteByte('s')
		b.WriteString(x)
	case int, int64:
		b.WriteByte('i')
		b.WriteString(table.String(x))
	case float64:
		b.WriteByte('f')
		b.WriteString(table.String(x))
	case bool:
		b.WriteByte('b')
		b.WriteString(table.String(x))
	case time.Time:
		b.WriteByte('t')
		b.WriteString(x.UTC().Format(time.RFC3339Nano))
	default:
		b.WriteByte('?')
		b.WriteString(fmt.Sprint(x))
	}
}

// RowHash returns the xxh3 hash of a row's tagged cell values.
func RowHash(r []any) uint64 {
	var b strings.Builder
	for i, v := range r {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		writeCell(&b, v)
	}
	return xxh3.HashString(b.String())
}

// DedupRows drops rows that exactly repeat an earlier row and reports how many
// were removed.
func DedupRows(in *table.Table) (*table.Table, int) {
	out := &table.Table{Columns: append([]string(nil), in.Columns...), Rows: make([][]any, 0, in.Len())}
	buckets := make(map[uint64][]int, in.Len())
	removed := 0

rows:
	for _, r := range in.Rows {
		h := RowHash(r)
		for _, j := range buckets[h] {
			if sameRow(out.Rows[j], r) {
				removed++
				continue rows
			}
		}
		buckets[h] = append(buckets[h], len(out.Rows))
		out.Rows = append(out.Rows, r)
	}
	return out, removed
}

func sameRow(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		var x, y strings.Builder
		writeCell(&x, a[i])
		writeCell(&y, b[i])
		if x.String() != y.String() {
			return false
		}
	}
	return true
}
