package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"

	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// ArrowSchema maps each column's inferred kind to an Arrow field. Every field
// is nullable; mixed columns become strings.
func ArrowSchema(t *table.Table) *arrow.Schema {
	kinds := t.Kinds()
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c, Type: arrowType(kinds[i]), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.KindInt:
		return arrow.PrimitiveTypes.Int64
	case table.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case table.KindBool:
		return arrow.FixedWidthTypes.Boolean
	case table.KindDate:
		return arrow.FixedWidthTypes.Date32
	default:
		return arrow.BinaryTypes.String
	}
}

// WriteParquet encodes t as one Snappy-compressed Parquet row group.
func WriteParquet(w io.Writer, t *table.Table) error {
	mem := memory.DefaultAllocator
	schema := ArrowSchema(t)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for j := range t.Columns {
		fb := b.Field(j)
		for _, row := range t.Rows {
			var v any
			if j < len(row) {
				v = row[j]
			}
			if v == nil {
				fb.AppendNull()
				continue
			}
			switch fb := fb.(type) {
			case *array.Int64Builder:
				fb.Append(toInt64(v))
			case *array.Float64Builder:
				fb.Append(toFloat64(v))
			case *array.BooleanBuilder:
				fb.Append(v.(bool))
			case *array.Date32Builder:
				fb.Append(arrow.Date32FromTime(v.(time.Time)))
			case *array.StringBuilder:
				fb.Append(table.String(v))
			default:
				return fmt.Errorf("parquet: column %s: unsupported builder %T", t.Columns[j], fb)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("parquet: new writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("parquet: write: %w", err)
	}
	return fw.Close()
}

// ReadParquet decodes a Parquet file into a table. Date32 columns come back
// as time.Time at UTC midnight.
func ReadParquet(ctx context.Context, data []byte) (*table.Table, error) {
	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("parquet: read: %w", err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	cols := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = f.Name
	}
	out := table.New(cols...)
	n := int(tbl.NumRows())
	out.Rows = make([][]any, n)
	for i := range out.Rows {
		out.Rows[i] = make([]any, len(cols))
	}

	for j := range cols {
		r := 0
		for _, chunk := range tbl.Column(j).Data().Chunks() {
			for k := 0; k < chunk.Len(); k++ {
				out.Rows[r][j] = arrowValue(chunk, k)
				r++
			}
		}
	}
	return out, nil
}

func arrowValue(a arrow.Array, i int) any {
	if a.IsNull(i) {
		return nil
	}
	switch a := a.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Date32:
		return a.Value(i).ToTime().UTC()
	case *array.String:
		return a.Value(i)
	default:
		return a.ValueStr(i)
	}
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	}
	return 0
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	}
	return 0
}

func writeParquetFile(_ context.Context, path string, t *table.Table) error {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, t); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
