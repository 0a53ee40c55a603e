// Package fieldnorm holds the value-level cleaning rules used by every
// processor: identifier cleaning, free-text standardization, percentage and
// date parsing, and date column detection.
//
// Every function here is total. A value that cannot be normalized comes back
// unchanged (text) or as a null (numbers, dates); nothing in this package
// returns an error or panics on bad input, so a malformed cell can never fail
// a stage.
package fieldnorm

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/Storbiic/ETL-Dashboard/internal/table"
)

// CleanIdentifier canonicalizes a part identifier: null becomes "", anything
// other than ASCII letters, digits, whitespace, '-' and '_' is dropped, runs
// of whitespace/underscore collapse to one space, and the result is trimmed
// and upper-cased.
//
// CleanIdentifier(CleanIdentifier(x)) == CleanIdentifier(x) for every x.
func CleanIdentifier(v any) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(table.String(v))

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r) || r == '_':
			pendingSpace = true
			continue
		case r == '-' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))):
		default:
			// dropped characters do not break a whitespace run
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

var (
	escapedNewline = regexp.MustCompile(`\\n`)
	// \s is ASCII only; \p{Zs} adds NBSP and the other space separators
	textSpaceRun   = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// StandardizeText trims, unescapes literal "\n" sequences, collapses whitespace
// runs to a single space and title-cases the result. Other characters are
// kept as written. Null stays null. Values that are blank after trimming are
// returned unchanged.
func StandardizeText(v any) any {
	if v == nil {
		return nil
	}
	text := strings.TrimSpace(table.String(v))
	if text == "" {
		return v
	}
	text = escapedNewline.ReplaceAllString(text, "\n")
	text = textSpaceRun.ReplaceAllString(text, " ")
	return TitleCase(text)
}

// TitleCase upper-cases every letter that follows a non-letter and lower-cases
// every other letter, so "1ST ppap" becomes "1St Ppap".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

var (
	percentFull  = map[string]struct{}{"complete": {}, "done": {}, "finished": {}, "100": {}}
	percentEmpty = map[string]struct{}{"none": {}, "n/a": {}, "na": {}, "not available": {}, "0": {}}
	hundred      = decimal.NewFromInt(100)
)

// ParsePercentage converts a percentage-like cell to a 0–1 fraction. A trailing
// '%' is ignored; numbers above 1 are taken as 0–100 and divided by 100. Text
// falls back to a keyword table ("complete" → 1, "n/a" → 0). ok is false for
// null, blank and unrecognized values.
func ParsePercentage(v any) (frac float64, ok bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return scalePercent(decimal.NewFromFloat(x)), true
	case int64:
		return scalePercent(decimal.NewFromInt(x)), true
	case int:
		return scalePercent(decimal.NewFromInt(int64(x))), true
	}

	s := strings.TrimSpace(table.String(v))
	if s == "" {
		return 0, false
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))

	if d, err := decimal.NewFromString(s); err == nil {
		return scalePercent(d), true
	}

	lower := strings.ToLower(s)
	if _, hit := percentFull[lower]; hit {
		return 1, true
	}
	if _, hit := percentEmpty[lower]; hit {
		return 0, true
	}
	return 0, false
}

func scalePercent(d decimal.Decimal) float64 {
	if d.GreaterThan(decimal.NewFromInt(1)) {
		d = d.Div(hundred)
	}
	f, _ := d.Float64()
	return f
}

// PercentageValue is ParsePercentage shaped for a table cell: a float64 or nil.
func PercentageValue(v any) any {
	if f, ok := ParsePercentage(v); ok {
		return f
	}
	return nil
}
