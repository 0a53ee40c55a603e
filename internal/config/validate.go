// Package config provides configuration models and helpers for ETL pipelines.
//
// This file adds a lightweight linter/validator for Run values. It performs
// static checks over a decoded Run and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Run.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "publish.s3.bucket"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateRun performs static validation / linting of a Run.
//
// It does not mutate the run. Callers decide whether warnings are fatal; the
// CLI refuses to start when any error is present.
//
// Example:
//
//	r, err := config.Decode("run.json")
//	if err != nil { ... }
//	for _, iss := range config.ValidateRun(r.Normalize()) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateRun(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(r.Source)...)
	issues = append(issues, validateTransform(r.Transform)...)
	issues = append(issues, validateStorage(r.Storage)...)
	issues = append(issues, validatePublish(r.Publish)...)
	issues = append(issues, validateMetrics(r.Metrics)...)

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty (xlsx or csv)",
		})
	case SourceXLSX:
		if strings.TrimSpace(s.Workbook) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.workbook",
				Message:  "xlsx source requires a workbook path",
			})
		}
		if strings.TrimSpace(s.PartsSheet) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.parts_sheet",
				Message:  "xlsx source requires parts_sheet",
			})
		}
		if strings.TrimSpace(s.StatusSheet) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.status_sheet",
				Message:  "xlsx source requires status_sheet",
			})
		}
		if s.PartsSheet != "" && s.PartsSheet == s.StatusSheet {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.status_sheet",
				Message:  "parts_sheet and status_sheet name the same sheet",
			})
		}
	case SourceCSV:
		if strings.TrimSpace(s.PartsPath) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.parts_path",
				Message:  "csv source requires parts_path",
			})
		}
		if strings.TrimSpace(s.StatusPath) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.status_path",
				Message:  "csv source requires status_path",
			})
		}
		if c := s.Options.String("comma", ","); len([]rune(c)) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.options.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", c),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; use xlsx or csv", s.Kind),
		})
	}

	return issues
}

// validateTransform validates the transformation options.
func validateTransform(t Transform) []Issue {
	var issues []Issue

	if strings.TrimSpace(t.IDColumn) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform.id_column",
			Message:  "id_column is empty; the first parts column will be used as identifier",
		})
	}
	seen := map[string]struct{}{}
	for i, c := range t.DateColumns {
		path := fmt.Sprintf("transform.date_columns[%d]", i)
		if strings.TrimSpace(c) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "date column name must not be empty",
			})
			continue
		}
		if _, dup := seen[c]; dup {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("date column %q listed twice", c),
			})
		}
		seen[c] = struct{}{}
	}

	return issues
}

// validateStorage validates the artifact directory.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.OutputDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.output_dir",
			Message:  "storage.output_dir must not be empty",
		})
	}

	return issues
}

// validatePublish validates the optional publishers.
func validatePublish(p Publish) []Issue {
	var issues []Issue

	if pg := p.Postgres; pg != nil {
		if strings.TrimSpace(pg.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "publish.postgres.dsn",
				Message:  "publish.postgres.dsn must not be empty",
			})
		}
		if strings.TrimSpace(pg.Schema) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "publish.postgres.schema",
				Message:  "no schema set; tables will be created in the connection's search_path",
			})
		}
	}

	if s3 := p.S3; s3 != nil {
		if strings.TrimSpace(s3.Bucket) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "publish.s3.bucket",
				Message:  "publish.s3.bucket must not be empty",
			})
		}
		if (s3.AccessKeyID == "") != (s3.SecretAccessKey == "") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "publish.s3.access_key_id",
				Message:  "access_key_id and secret_access_key must be set together",
			})
		}
	}

	return issues
}

// validateMetrics validates the metrics backend selection.
func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "prometheus":
		if _, err := url.ParseRequestURI(m.PushgatewayURL); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires a valid pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}

	return issues
}
