package pipeline

import "strings"

// NormalizeText collapses every run of whitespace to a single space and
// trims both ends. Normalized text is a fixed point.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
