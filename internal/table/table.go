// Package table is the in-memory, column-ordered table model shared by every
// stage of the transformation. A Table is a header (ordered column names) plus
// rows of cells aligned to that header.
//
// Cell values are deliberately loosely typed. The loaders produce string or nil
// cells; stages add derived cells of the following kinds:
//
//   - nil       : missing / null
//   - string    : free text
//   - int64     : counters and calendar parts (year, month, ...)
//   - float64   : percentages and other numbers
//   - bool      : derived flags
//   - time.Time : calendar dates (date part only is meaningful)
//
// Tables are treated as values: stages return new tables instead of mutating
// their input. Clone is cheap enough for spreadsheet-sized inputs.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar layout used whenever a date is rendered as text.
const DateLayout = "2006-01-02"

// Table is an ordered set of named columns and rows aligned to them.
type Table struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given header.
func New(cols ...string) *Table {
	c := make([]string, len(cols))
	copy(c, cols)
	return &Table{Columns: c}
}

// Len returns the number of rows. A nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Index returns the position of col in the header, or -1.
func (t *Table) Index(col string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether col is part of the header.
func (t *Table) Has(col string) bool { return t.Index(col) >= 0 }

// Value returns the cell at (row, col), or nil when the column is absent.
func (t *Table) Value(row int, col string) any {
	i := t.Index(col)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return nil
	}
	r := t.Rows[row]
	if i >= len(r) {
		return nil
	}
	return r[i]
}

// Column returns a copy of all values of col; nil when the column is absent.
func (t *Table) Column(col string) []any {
	i := t.Index(col)
	if i < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Append adds a row. The row is padded or truncated to the header width.
func (t *Table) Append(row []any) {
	t.Rows = append(t.Rows, fit(row, len(t.Columns)))
}

// Clone returns a deep copy of the header and row slices. Cell values are
// immutable kinds and are shared.
func (t *Table) Clone() *Table {
	if t == nil {
		return New()
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = fit(r, len(t.Columns))
	}
	return out
}

// WithColumn returns a copy of t where col holds vals. An existing column is
// replaced in place; a new column is appended at the end. len(vals) must match
// the row count.
func (t *Table) WithColumn(col string, vals []any) (*Table, error) {
	if len(vals) != t.Len() {
		return nil, fmt.Errorf("table: column %q has %d values for %d rows", col, len(vals), t.Len())
	}
	out := t.Clone()
	i := out.Index(col)
	if i < 0 {
		out.Columns = append(out.Columns, col)
		for r := range out.Rows {
			out.Rows[r] = append(out.Rows[r], vals[r])
		}
		return out, nil
	}
	for r := range out.Rows {
		out.Rows[r][i] = vals[r]
	}
	return out, nil
}

// Select returns a new table with only the named columns, in the given order.
// Names missing from t are skipped.
func (t *Table) Select(cols ...string) *Table {
	idx := make([]int, 0, len(cols))
	keep := make([]string, 0, len(cols))
	for _, c := range cols {
		if i := t.Index(c); i >= 0 {
			idx = append(idx, i)
			keep = append(keep, c)
		}
	}
	out := &Table{Columns: keep, Rows: make([][]any, len(t.Rows))}
	for r, row := range t.Rows {
		nr := make([]any, len(idx))
		for j, i := range idx {
			if i < len(row) {
				nr[j] = row[i]
			}
		}
		out.Rows[r] = nr
	}
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(row []any) bool) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Rename returns a copy of t with a new header of the same width.
func (t *Table) Rename(cols []string) (*Table, error) {
	if len(cols) != len(t.Columns) {
		return nil, fmt.Errorf("table: rename with %d names for %d columns", len(cols), len(t.Columns))
	}
	out := t.Clone()
	copy(out.Columns, cols)
	return out, nil
}

// IsNull reports whether v is a missing value.
func IsNull(v any) bool { return v == nil }

// IsBlank reports whether v is null or stringifies to whitespace only.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	return strings.TrimSpace(String(v)) == ""
}

// String renders a cell as text. Dates use DateLayout; nil renders as "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(DateLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func fit(row []any, n int) []any {
	out := make([]any, n)
	copy(out, row)
	return out
}
