package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString trims whitespace, drops null bytes and caps the length.
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// PlainText turns provider text (possibly URL-encoded, entity-escaped and
// carrying stray markup) into plain text suitable for a poll.
func PlainText(input string) string {
	if decoded, err := url.QueryUnescape(input); err == nil && strings.ContainsRune(input, '%') {
		input = decoded
	}
	input = html.UnescapeString(input)
	// The strict policy re-escapes entities, so unescape once more after stripping.
	input = html.UnescapeString(htmlPolicy.Sanitize(input))
	return SanitizeString(input)
}

// EscapeHTML escapes user-supplied text for HTML parse mode messages.
func EscapeHTML(input string) string {
	return html.EscapeString(input)
}
