package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// ErrSheetNotFound is returned for a sheet name the workbook does not have.
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook is an open xlsx file.
type Workbook struct {
	f    *excelize.File
	path string
}

// OpenWorkbook opens an xlsx workbook. Close it when done.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

// ReadWorkbook reads an xlsx workbook from r; name labels errors.
func ReadWorkbook(r io.Reader, name string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", name, err)
	}
	return &Workbook{f: f, path: name}, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error { return w.f.Close() }

// Sheets lists sheet names in workbook order.
func (w *Workbook) Sheets() []string { return w.f.GetSheetList() }

// Sheet reads one sheet. Cells are the formatted text Excel would display.
func (w *Workbook) Sheet(name string) (*table.Table, error) {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%s: %w: %q (have %v)", w.path, ErrSheetNotFound, name, w.Sheets())
	}
	rows, err := w.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %q: %w", w.path, name, err)
	}
	return fromRows(rows), nil
}

// fromRows turns grid text into a table. excelize drops trailing empty cells,
// so rows are padded to the header width by Append.
func fromRows(rows [][]string) *table.Table {
	if len(rows) == 0 {
		return table.New()
	}
	out := table.New(Header(rows[0], nil)...)
	for _, rec := range rows[1:] {
		row := make([]any, len(rec))
		for i, s := range rec {
			row[i] = cell(s, false, nil)
		}
		out.Append(row)
	}
	return out
}
