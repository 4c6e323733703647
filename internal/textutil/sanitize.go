package textutil

import (
	"strings"
	"unicode"
)

// CollapseWhitespace trims the string and folds internal runs of whitespace
// (including newlines) into single spaces.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// StripControl removes control characters other than tab and newline. Scraped
// pages occasionally carry raw control bytes that break JSON prompts.
func StripControl(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate shortens a string to at most max runes, appending an ellipsis
// marker when content was dropped. A max of zero or less returns the input.
func Truncate(value string, max int) string {
	if max <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max]) + "…"
}
