package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
	"github.com/Storbiic/ETL-Dashboard/internal/logging"
	"github.com/Storbiic/ETL-Dashboard/internal/pipeline"
	"github.com/Storbiic/ETL-Dashboard/internal/source"
)

type transformOptions struct {
	configPath string
	envFile    string
	job        string

	workbook    string
	partsSheet  string
	statusSheet string
	partsCSV    string
	statusCSV   string

	idColumn    string
	dateColumns []string
	outputDir   string

	logLevel  string
	logFormat string
}

func newTransformCmd() *cobra.Command {
	var opts transformOptions

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Run one transformation and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "run config JSON path (flags override it)")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file overlaid before flags; ignored when missing")
	f.StringVar(&opts.job, "job", "", "job name used in logs and metrics")
	f.StringVar(&opts.workbook, "workbook", "", "xlsx workbook holding both sheets")
	f.StringVar(&opts.partsSheet, "parts-sheet", "", "parts (MasterBOM) sheet name")
	f.StringVar(&opts.statusSheet, "status-sheet", "", "status sheet name")
	f.StringVar(&opts.partsCSV, "parts-csv", "", "parts sheet as CSV (instead of --workbook)")
	f.StringVar(&opts.statusCSV, "status-csv", "", "status sheet as CSV (instead of --workbook)")
	f.StringVar(&opts.idColumn, "id-column", "", "part identifier column (default \""+config.DefaultIDColumn+"\")")
	f.StringSliceVar(&opts.dateColumns, "date-columns", nil, "date columns to process ahead of auto-detected ones")
	f.StringVar(&opts.outputDir, "output-dir", "", "artifact directory (default \""+config.DefaultOutputDir+"\")")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&opts.logFormat, "log-format", "", "json or console")

	cmd.MarkFlagsMutuallyExclusive("workbook", "parts-csv")
	cmd.MarkFlagsRequiredTogether("parts-csv", "status-csv")
	return cmd
}

// buildRun layers the config file, the env overlay and the flags, in that
// order, then fills defaults.
func buildRun(opts transformOptions) (config.Run, error) {
	var r config.Run
	if opts.configPath != "" {
		var err error
		if r, err = config.Decode(opts.configPath); err != nil {
			return r, err
		}
	}
	r, err := config.LoadEnv(r, opts.envFile)
	if err != nil {
		return r, err
	}

	setIf(&r.Job, opts.job)
	if opts.workbook != "" {
		r.Source = config.Source{Kind: config.SourceXLSX, Workbook: opts.workbook, Options: r.Source.Options}
	}
	if opts.partsCSV != "" {
		r.Source = config.Source{Kind: config.SourceCSV, PartsPath: opts.partsCSV, StatusPath: opts.statusCSV, Options: r.Source.Options}
	}
	setIf(&r.Source.PartsSheet, opts.partsSheet)
	setIf(&r.Source.StatusSheet, opts.statusSheet)
	setIf(&r.Transform.IDColumn, opts.idColumn)
	if len(opts.dateColumns) > 0 {
		r.Transform.DateColumns = opts.dateColumns
	}
	setIf(&r.Storage.OutputDir, opts.outputDir)
	setIf(&r.Logging.Level, opts.logLevel)
	setIf(&r.Logging.Format, opts.logFormat)
	return r.Normalize(), nil
}

func runTransform(ctx context.Context, stdout, stderr io.Writer, opts transformOptions) error {
	r, err := buildRun(opts)
	if err != nil {
		return err
	}
	if err := reportIssues(stderr, config.ValidateRun(r)); err != nil {
		return err
	}

	zl, err := logging.New(logging.Config{Level: r.Logging.Level, Format: r.Logging.Format})
	if err != nil {
		zl = logging.NewDefault()
	}
	defer func() { _ = zl.Sync() }()

	flush := setupMetrics(r.Job, r.Metrics, zl)
	defer flush()

	sheets, err := source.Load(ctx, r.Source)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	zl.Info("source loaded",
		zap.String("kind", r.Source.Kind),
		zap.Int("parts_rows", sheets.Parts.Len()),
		zap.Int("status_rows", sheets.Status.Len()),
	)

	pubs, closePubs := setupPublishers(ctx, r.Publish, zl)
	defer closePubs()

	res := pipeline.Run(ctx, pipeline.Input{
		Parts:       sheets.Parts,
		Status:      sheets.Status,
		IDColumn:    r.Transform.IDColumn,
		DateColumns: r.Transform.DateColumns,
	}, pipeline.Options{
		OutputDir:  r.Storage.OutputDir,
		Job:        r.Job,
		Logger:     zl,
		Publishers: pubs,
		Parallel:   getenvInt("ETL_WRITE_PARALLEL", 0),
		BatchSize:  getenvInt("ETL_BATCH_SIZE", 0),
	})

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("transformation failed: %s", res.Error)
	}
	return nil
}

// reportIssues prints every issue and fails when any is an error.
func reportIssues(w io.Writer, issues []config.Issue) error {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}
