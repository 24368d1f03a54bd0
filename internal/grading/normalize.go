package grading

import (
	"strings"
	"unicode"
)

// normalize strips every whitespace rune, then uppercases the remainder.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
