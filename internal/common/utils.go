package common

import "strings"

// SplitList splits a comma-separated list, trimming blanks and dropping empty
// and repeated entries. Order of first appearance is kept.
func SplitList(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
