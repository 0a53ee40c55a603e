package table

import "time"

// Kind is the inferred logical type of a column.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int64"
	KindFloat  Kind = "float64"
	KindBool   Kind = "bool"
	KindDate   Kind = "date"
)

// InferKind looks at the non-null values of col and returns the narrowest kind
// that fits all of them. Integers mixed with floats widen to float; any other
// mix, or a column with no non-null values, is a string column.
func (t *Table) InferKind(col string) Kind {
	return t.kindAt(t.Index(col))
}

// Kinds returns the inferred kind of every column, in header order.
func (t *Table) Kinds() []Kind {
	out := make([]Kind, len(t.Columns))
	for j := range t.Columns {
		out[j] = t.kindAt(j)
	}
	return out
}

func (t *Table) kindAt(i int) Kind {
	if i < 0 {
		return KindString
	}
	var ints, floats, bools, dates, total int
	for _, row := range t.Rows {
		if i >= len(row) || row[i] == nil {
			continue
		}
		total++
		switch row[i].(type) {
		case int, int64:
			ints++
		case float64:
			floats++
		case bool:
			bools++
		case time.Time:
			dates++
		}
	}
	switch {
	case total == 0:
		return KindString
	case ints == total:
		return KindInt
	case ints+floats == total:
		return KindFloat
	case bools == total:
		return KindBool
	case dates == total:
		return KindDate
	default:
		return KindString
	}
}
