package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validRun() Run {
	return Run{
		Job: "test-job",
		Source: Source{
			Kind:        "xlsx",
			Workbook:    "in.xlsx",
			PartsSheet:  "MasterBOM",
			StatusSheet: "Status",
			Options:     Options{},
		},
		Transform: Transform{IDColumn: "YAZAKI PN", DateColumns: []string{"SOP Date"}},
		Storage:   Storage{OutputDir: "out"},
	}
}

/*
TestValidateRun_ValidMinimal verifies that a well-formed run produces no
issues (errors or warnings).
*/
func TestValidateRun_ValidMinimal(t *testing.T) {
	if issues := ValidateRun(validRun()); len(issues) != 0 {
		t.Fatalf("expected no issues for valid run; got: %+v", issues)
	}
}

/*
TestValidateRun_MissingJob verifies that an empty Job field produces a
SeverityError with path "job".
*/
func TestValidateRun_MissingJob(t *testing.T) {
	r := validRun()
	r.Job = " "
	issues := ValidateRun(r)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false; want true")
	}
}

func TestValidateSource_Cases(t *testing.T) {
	t.Run("missing_kind", func(t *testing.T) {
		issues := validateSource(Source{})
		if !hasIssue(t, issues, SeverityError, "source.kind", "must not be empty") {
			t.Fatalf("expected error for empty kind; got %+v", issues)
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		issues := validateSource(Source{Kind: "xml"})
		if !hasIssue(t, issues, SeverityError, "source.kind", "unknown source kind") {
			t.Fatalf("expected error for unknown kind; got %+v", issues)
		}
	})

	t.Run("xlsx_missing_fields", func(t *testing.T) {
		issues := validateSource(Source{Kind: "xlsx"})
		for _, p := range []string{"source.workbook", "source.parts_sheet", "source.status_sheet"} {
			if !hasIssue(t, issues, SeverityError, p, "requires") {
				t.Fatalf("expected error at %s; got %+v", p, issues)
			}
		}
	})

	t.Run("xlsx_same_sheet", func(t *testing.T) {
		issues := validateSource(Source{Kind: "xlsx", Workbook: "a.xlsx", PartsSheet: "S", StatusSheet: "S"})
		if !hasIssue(t, issues, SeverityWarning, "source.status_sheet", "same sheet") {
			t.Fatalf("expected same-sheet warning; got %+v", issues)
		}
	})

	t.Run("csv_bad_comma", func(t *testing.T) {
		issues := validateSource(Source{Kind: "csv", PartsPath: "p.csv", StatusPath: "s.csv", Options: Options{"comma": ";;"}})
		if !hasIssue(t, issues, SeverityError, "source.options.comma", "single character") {
			t.Fatalf("expected comma error; got %+v", issues)
		}
	})

	t.Run("csv_ok", func(t *testing.T) {
		issues := validateSource(Source{Kind: "csv", PartsPath: "p.csv", StatusPath: "s.csv"})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
}

func TestValidateTransform_Cases(t *testing.T) {
	issues := validateTransform(Transform{DateColumns: []string{"SOP", "", "SOP"}})
	if !hasIssue(t, issues, SeverityWarning, "transform.id_column", "first parts column") {
		t.Fatalf("expected id_column warning; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "transform.date_columns[1]", "must not be empty") {
		t.Fatalf("expected empty date column error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "transform.date_columns[2]", "listed twice") {
		t.Fatalf("expected duplicate warning; got %+v", issues)
	}
}

/*
TestValidatePublish_Cases checks the optional publisher blocks: nil blocks
are fine, set blocks need their destination.
*/
func TestValidatePublish_Cases(t *testing.T) {
	if issues := validatePublish(Publish{}); len(issues) != 0 {
		t.Fatalf("nil publishers should be valid; got %+v", issues)
	}

	issues := validatePublish(Publish{
		Postgres: &Postgres{},
		S3:       &S3{AccessKeyID: "AK"},
	})
	if !hasIssue(t, issues, SeverityError, "publish.postgres.dsn", "must not be empty") {
		t.Fatalf("expected dsn error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "publish.postgres.schema", "search_path") {
		t.Fatalf("expected schema warning; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "publish.s3.bucket", "must not be empty") {
		t.Fatalf("expected bucket error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "publish.s3.access_key_id", "set together") {
		t.Fatalf("expected credentials error; got %+v", issues)
	}
}

func TestValidateMetrics_Cases(t *testing.T) {
	cases := []struct {
		m    Metrics
		sev  IssueSeverity
		path string
	}{
		{Metrics{Backend: "prometheus"}, SeverityError, "metrics.pushgateway_url"},
		{Metrics{Backend: "datadog"}, SeverityError, "metrics.datadog_addr"},
		{Metrics{Backend: "statsd"}, SeverityWarning, "metrics.backend"},
	}
	for _, c := range cases {
		issues := validateMetrics(c.m)
		if !hasIssue(t, issues, c.sev, c.path, "") {
			t.Fatalf("%+v: expected %s at %s; got %+v", c.m, c.sev, c.path, issues)
		}
	}
	if issues := validateMetrics(Metrics{Backend: "prometheus", PushgatewayURL: "http://pg:9091"}); len(issues) != 0 {
		t.Fatalf("valid prometheus config flagged: %+v", issues)
	}
}

// TestSampleConfig keeps configs/run.sample.json decodable and free of errors.
func TestSampleConfig(t *testing.T) {
	r, err := Decode("../../configs/run.sample.json")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	issues := ValidateRun(r.Normalize())
	if HasErrors(issues) {
		t.Fatalf("sample config has errors: %+v", issues)
	}
	if r.Source.Options.Int("retries", 0) != 3 {
		t.Fatalf("source.options.retries = %v", r.Source.Options["retries"])
	}
}
