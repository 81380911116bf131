package app

import (
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// single-quoted literals, with '' escapes and an optional ::cast suffix
	queryLiteralRegex = regexp.MustCompile(`'(?:[^']|'')*'(::[a-z_]+)?`)
	// bare numbers, skipping $n placeholders and identifiers like t1
	queryNumberRegex = regexp.MustCompile(`(^|[^$\w.])\d+(?:\.\d+)?\b`)
)

// formatDBQueryForTrace collapses whitespace and replaces inline literals
// with '?' so span attributes never carry match documents or ids. Bind
// placeholders like $1 are left alone.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = queryLiteralRegex.ReplaceAllString(normalized, "'?'$1")
	normalized = queryNumberRegex.ReplaceAllString(normalized, "${1}?")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
