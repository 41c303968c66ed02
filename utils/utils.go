package utils

import (
	// Go Internal Packages
	"strings"
)

// SplitCSV splits a comma separated list, trimming blanks and dropping empty entries
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NormalizePEM turns literal "\n" sequences into newlines, the form PEM
// material takes when pasted into a single line environment variable.
func NormalizePEM(s string) string {
	if strings.Contains(s, "\n") {
		return s
	}
	return strings.ReplaceAll(s, `\n`, "\n")
}
