package builtin

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeaders folds compatibility characters (NBSP becomes a plain
// space), trims every header and, when collapse is set, squeezes internal
// whitespace runs to one space. The input slice is not modified.
func NormalizeHeaders(cols []string, collapse bool) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		s := strings.TrimSpace(norm.NFKC.String(c))
		if collapse {
			s = strings.Join(strings.Fields(s), " ")
		}
		out[i] = s
	}
	return out
}

// UniqueHeaders names every blank header fmt.Sprintf(blankFormat, i), where i
// is its position, and suffixes a repeated header with "_<n>" (n from 2) so
// that no later header's own name is taken. It returns the new headers and
// the positions that changed.
func UniqueHeaders(cols []string, blankFormat string) ([]string, []int) {
	base := make([]string, len(cols))
	present := make(map[string]bool, len(cols))
	for i, c := range cols {
		if strings.TrimSpace(c) == "" {
			c = fmt.Sprintf(blankFormat, i)
		}
		base[i] = c
		present[c] = true
	}

	out := make([]string, len(cols))
	used := make(map[string]bool, len(cols))
	var changed []int
	for i, name := range base {
		if used[name] {
			for n := 2; ; n++ {
				cand := fmt.Sprintf("%s_%d", base[i], n)
				if !used[cand] && !present[cand] {
					name = cand
					break
				}
			}
		}
		used[name] = true
		out[i] = name
		if name != cols[i] {
			changed = append(changed, i)
		}
	}
	return out, changed
}
