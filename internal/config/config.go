// Package config defines the JSON-serializable run configuration for the
// transformation CLI, plus an environment overlay.
//
// A run file looks like (trimmed):
//
//	{
//	  "job": "masterbom",
//	  "source":    { "kind": "xlsx", "workbook": "in/MasterBOM.xlsx",
//	                 "parts_sheet": "MasterBOM", "status_sheet": "Status" },
//	  "transform": { "id_column": "YAZAKI PN", "date_columns": ["SOP Date"] },
//	  "storage":   { "output_dir": "data/processed" },
//	  "publish":   { "postgres": { "dsn": "postgres://...", "schema": "etl" } },
//	  "metrics":   { "backend": "prometheus", "pushgateway_url": "http://pg:9091" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults applied by Normalize.
const (
	DefaultIDColumn  = "YAZAKI PN"
	DefaultOutputDir = "data/processed"
	DefaultJob       = "etl-dashboard"
)

// Source kinds.
const (
	SourceXLSX = "xlsx"
	SourceCSV  = "csv"
)

// Run is the top-level object decoded from a run file.
type Run struct {
	// Job labels metrics and log entries.
	Job string `json:"job"`

	Source    Source    `json:"source"`
	Transform Transform `json:"transform"`
	Storage   Storage   `json:"storage"`
	Publish   Publish   `json:"publish"`
	Metrics   Metrics   `json:"metrics"`
	Logging   Logging   `json:"logging"`
}

// Source says where the two raw sheets come from.
type Source struct {
	// Kind is "xlsx" (one workbook, two sheets) or "csv" (two files).
	Kind string `json:"kind"`

	Workbook    string `json:"workbook"`
	PartsSheet  string `json:"parts_sheet"`
	StatusSheet string `json:"status_sheet"`

	PartsPath  string `json:"parts_path"`
	StatusPath string `json:"status_path"`

	// Options is interpreted by the loader: timeout_seconds and retries for
	// http(s) locations, and for CSV:
	//   comma (string), trim_space (bool), skip_rows (number),
	//   header_map (object), null_values (array of strings)
	Options Options `json:"options"`
}

// Transform carries the options of the transformation core.
type Transform struct {
	IDColumn    string   `json:"id_column"`
	DateColumns []string `json:"date_columns"`
}

// Storage configures the local artifact directory.
type Storage struct {
	OutputDir string `json:"output_dir"`
}

// Publish lists the optional destinations artifacts are pushed to after a
// successful write. Nil blocks are disabled.
type Publish struct {
	Postgres *Postgres `json:"postgres,omitempty"`
	S3       *S3       `json:"s3,omitempty"`
}

// Postgres publishes every table into Schema via COPY.
type Postgres struct {
	DSN    string `json:"dsn"`
	Schema string `json:"schema"`
}

// S3 uploads every artifact under Bucket/Prefix.
type S3 struct {
	Endpoint        string `json:"endpoint"`
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	UseSSL          bool   `json:"use_ssl"`
}

// Metrics selects the metrics backend: "", "prometheus" or "datadog".
type Metrics struct {
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`
}

// Logging mirrors logging.Config.
type Logging struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Decode reads a run file.
func Decode(path string) (Run, error) {
	var r Run
	b, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return r, nil
}

// LoadEnv loads the given .env files (missing files are ignored) and overlays
// the ETL_* and metrics environment variables onto r. Set variables win over
// the file values.
func LoadEnv(r Run, files ...string) (Run, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return r, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	setString(&r.Job, "ETL_JOB")
	setString(&r.Storage.OutputDir, "ETL_OUTPUT_DIR")
	setString(&r.Transform.IDColumn, "ETL_ID_COLUMN")
	if v := os.Getenv("ETL_DATE_COLUMNS"); v != "" {
		r.Transform.DateColumns = splitList(v)
	}

	if dsn := os.Getenv("ETL_PG_DSN"); dsn != "" {
		if r.Publish.Postgres == nil {
			r.Publish.Postgres = &Postgres{}
		}
		r.Publish.Postgres.DSN = dsn
		setString(&r.Publish.Postgres.Schema, "ETL_PG_SCHEMA")
	}

	if bucket := os.Getenv("ETL_S3_BUCKET"); bucket != "" {
		if r.Publish.S3 == nil {
			r.Publish.S3 = &S3{UseSSL: true}
		}
		s := r.Publish.S3
		s.Bucket = bucket
		setString(&s.Endpoint, "ETL_S3_ENDPOINT")
		setString(&s.Prefix, "ETL_S3_PREFIX")
		setString(&s.Region, "ETL_S3_REGION")
		setString(&s.AccessKeyID, "ETL_S3_ACCESS_KEY_ID")
		setString(&s.SecretAccessKey, "ETL_S3_SECRET_ACCESS_KEY")
		if v := os.Getenv("ETL_S3_USE_SSL"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				s.UseSSL = b
			}
		}
	}

	setString(&r.Metrics.Backend, "METRICS_BACKEND")
	setString(&r.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	setString(&r.Metrics.DatadogAddr, "DD_AGENT_ADDR")
	setString(&r.Logging.Level, "LOG_LEVEL")
	setString(&r.Logging.Format, "LOG_FORMAT")
	return r, nil
}

// Normalize fills defaults for empty fields.
func (r Run) Normalize() Run {
	if strings.TrimSpace(r.Job) == "" {
		r.Job = DefaultJob
	}
	if strings.TrimSpace(r.Transform.IDColumn) == "" {
		r.Transform.IDColumn = DefaultIDColumn
	}
	if strings.TrimSpace(r.Storage.OutputDir) == "" {
		r.Storage.OutputDir = DefaultOutputDir
	}
	if r.Source.Kind == "" {
		switch {
		case r.Source.Workbook != "":
			r.Source.Kind = SourceXLSX
		case r.Source.PartsPath != "":
			r.Source.Kind = SourceCSV
		}
	}
	if r.Source.Options == nil {
		r.Source.Options = Options{}
	}
	return r
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for loader-specific configuration where the shape varies
// by implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
