package ddl

import "testing"

// TestMapType verifies that MapType maps inferred kinds into SQLite column
// types and falls back to TEXT.
func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		want string
	}{
		{kind: "int64", want: "INTEGER"},
		{kind: "  INT64 ", want: "INTEGER"},
		{kind: "bool", want: "INTEGER"},
		{kind: "float64", want: "REAL"},
		{kind: "date", want: "TEXT"},
		{kind: "string", want: "TEXT"},
		{kind: "", want: "TEXT"},
	}
	for _, tt := range tests {
		if got := MapType(tt.kind); got != tt.want {
			t.Fatalf("MapType(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
