// Package source loads the raw parts and status sheets into tables, either
// from a workbook (xlsx) or from one CSV file per sheet. The first row is the
// header; empty cells become nil.
package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// CSVOptions configures ReadCSV. The zero value reads comma-separated input
// without trimming cell values.
type CSVOptions struct {
	// Comma is the field delimiter; 0 means ','.
	Comma rune
	// TrimSpace trims leading/trailing whitespace from cell values. Headers
	// are always trimmed.
	TrimSpace bool
	// SkipRows drops that many lines (title rows, notes) before the header.
	SkipRows int
	// HeaderMap renames source headers, e.g. {"Part No": "YAZAKI PN"}.
	HeaderMap map[string]string
	// NullValues are cell texts read as nil in addition to "".
	NullValues []string
}

// CSVOptionsFrom reads comma, trim_space, skip_rows, header_map and
// null_values from loader options.
func CSVOptionsFrom(o config.Options) CSVOptions {
	return CSVOptions{
		Comma:      o.Rune("comma", ','),
		TrimSpace:  o.Bool("trim_space", false),
		SkipRows:   o.Int("skip_rows", 0),
		HeaderMap:  o.StringMap("header_map"),
		NullValues: o.StringSlice("null_values"),
	}
}

// ReadCSV reads a whole CSV document into a table. Rows may be ragged; short
// rows are padded with nil and long rows truncated to the header width.
func ReadCSV(r io.Reader, opt CSVOptions) (*table.Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	for i := 0; i < opt.SkipRows; i++ {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return table.New(), nil
			}
			return nil, fmt.Errorf("csv: skip row %d: %w", i+1, err)
		}
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	out := table.New(Header(header, opt.HeaderMap)...)

	nulls := nullSet(opt.NullValues)
	for line := 2 + opt.SkipRows; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		row := make([]any, len(rec))
		for i, s := range rec {
			row[i] = cell(s, opt.TrimSpace, nulls)
		}
		out.Append(row)
	}
	return out, nil
}

// ReadCSVFile opens path and calls ReadCSV.
func ReadCSVFile(path string, opt CSVOptions) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSVNamed(f, path, opt)
}

func readCSVNamed(r io.Reader, name string, opt CSVOptions) (*table.Table, error) {
	t, err := ReadCSV(r, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// Header strips a UTF-8 BOM from the first cell, trims every name and
// applies renames.
func Header(cols []string, renames map[string]string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		c = strings.TrimSpace(c)
		if to, ok := renames[c]; ok {
			c = to
		}
		out[i] = c
	}
	return out
}

func nullSet(vals []string) map[string]struct{} {
	if len(vals) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

func cell(s string, trim bool, nulls map[string]struct{}) any {
	if trim {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return nil
	}
	if _, ok := nulls[s]; ok {
		return nil
	}
	return s
}
