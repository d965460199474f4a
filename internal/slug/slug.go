// Package slug turns display names into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
)

var (
	disallowed = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[\s_-]+`)
)

// Make lowercases text, drops everything except word characters, whitespace
// and hyphens, collapses separator runs into a single hyphen and trims
// hyphens from both ends. Make(Make(s)) == Make(s).
func Make(text string) string {
	s := strings.ToLower(text)
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Segments returns the slug of every non-empty segment of a URL path, in
// order, e.g. "/collections/Raised_Beds/" -> ["collections", "raised-beds"].
func Segments(path string) []string {
	var out []string
	for _, part := range strings.Split(path, "/") {
		if s := Make(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
