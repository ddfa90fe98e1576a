package prompt

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// RedactionMarker replaces matched injection phrases in sanitized input.
const RedactionMarker = "[REDACTED]"

// DefaultMaxInputLen bounds sanitized input when no tighter bound applies.
const DefaultMaxInputLen = 10000

// denyList holds manipulation phrases stripped from any text that ends up in
// a model prompt. Matching is case-insensitive.
var denyList = []string{
	"ignore previous instructions",
	"ignore above instructions",
	"forget everything above",
	"system prompt",
	"act as",
	"pretend to be",
	"you are now",
	"new instructions:",
	"override:",
	"bypass",
	"ignore safety",
}

// denyPatterns are the deny-list phrases compiled for case-insensitive
// matching. Matching on the input itself keeps byte offsets honest: Unicode
// case mapping can change string length, so a lowered copy is useless for
// index bookkeeping.
var denyPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(denyList))
	for i, phrase := range denyList {
		patterns[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(phrase))
	}
	return patterns
}()

// Sanitize truncates input to maxLen bytes, replaces deny-listed phrases with
// the redaction marker, and trims surrounding whitespace. Sanitizing an
// already clean string returns it unchanged apart from trimming and
// truncation. The cut never splits a rune: output is valid UTF-8 whenever
// the input is.
func Sanitize(input string, maxLen int) string {
	if input == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxInputLen
	}
	if len(input) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		input = input[:cut]
	}

	for _, pattern := range denyPatterns {
		input = pattern.ReplaceAllLiteralString(input, RedactionMarker)
	}

	return strings.TrimSpace(input)
}
