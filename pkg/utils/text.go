package utils

import (
	"strings"
	"unicode/utf8"
)

// NormalizeGuess lowercases and trims a chat message for answer comparison.
func NormalizeGuess(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Truncate cuts s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}

// SpacedUpper renders a word as spaced capitals, e.g. "garden" -> "G A R D E N".
func SpacedUpper(word string) string {
	letters := strings.Split(strings.ToUpper(word), "")
	return strings.Join(letters, " ")
}
