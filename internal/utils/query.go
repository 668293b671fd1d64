package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeQuery trims a search query and collapses runs of whitespace.
func NormalizeQuery(query string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(query), " ")
}

// QueryLength counts the characters of the trimmed query.
func QueryLength(query string) int {
	return utf8.RuneCountInString(strings.TrimSpace(query))
}
