// Package strings holds small string and slice helpers shared by modules
package strings

import (
	"strconv"
	std "strings"
)

// IfEmpty returns def when in has no elements
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustString panics with name when s is blank
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// Set builds a lookup set from values, skipping blanks
func Set(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = std.TrimSpace(v); v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

// SplitCSV splits a comma separated list, trimming and dropping blanks
func SplitCSV(s string) []string {
	var out []string
	for part := range std.SplitSeq(s, ",") {
		if part = std.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Atoi parses s leniently; blank or malformed input is 0
func Atoi(s string) int {
	i, err := strconv.Atoi(std.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}
