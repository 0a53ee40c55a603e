package source

import (
	"context"
	"fmt"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// Sheets are the two raw inputs of a run.
type Sheets struct {
	Parts  *table.Table
	Status *table.Table
}

// Load reads both sheets as described by cfg. Workbook and CSV locations may
// be local paths or http(s) URLs.
func Load(ctx context.Context, cfg config.Source) (Sheets, error) {
	op := OpenerFrom(cfg.Options)

	switch cfg.Kind {
	case config.SourceXLSX:
		wb, err := openWorkbook(ctx, op, cfg.Workbook)
		if err != nil {
			return Sheets{}, err
		}
		defer wb.Close()

		parts, err := wb.Sheet(cfg.PartsSheet)
		if err != nil {
			return Sheets{}, err
		}
		status, err := wb.Sheet(cfg.StatusSheet)
		if err != nil {
			return Sheets{}, err
		}
		return Sheets{Parts: parts, Status: status}, nil

	case config.SourceCSV:
		opt := CSVOptionsFrom(cfg.Options)
		parts, err := loadCSV(ctx, op, cfg.PartsPath, opt)
		if err != nil {
			return Sheets{}, err
		}
		status, err := loadCSV(ctx, op, cfg.StatusPath, opt)
		if err != nil {
			return Sheets{}, err
		}
		return Sheets{Parts: parts, Status: status}, nil
	}
	return Sheets{}, fmt.Errorf("source: unknown kind %q", cfg.Kind)
}

func openWorkbook(ctx context.Context, op *Opener, loc string) (*Workbook, error) {
	if !IsRemote(loc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return OpenWorkbook(loc)
	}
	rc, err := op.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadWorkbook(rc, loc)
}

func loadCSV(ctx context.Context, op *Opener, loc string, opt CSVOptions) (*table.Table, error) {
	rc, err := op.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readCSVNamed(rc, loc, opt)
}
