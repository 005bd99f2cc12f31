// Package strings holds small text helpers shared by the CLI and the tool layer.
package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the width used for descriptions in table output.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the smallest maxLen TruncateDescription accepts; it leaves
// room for one character plus "...".
const MinTruncateLen = 4

// secretPreviewLen is the number of leading characters MaskSecret keeps.
const secretPreviewLen = 8

// TruncateDescription collapses all whitespace runs to single spaces and cuts the
// result to maxLen runes, ending in "..." when it had to cut.
//
// Args:
//   - s: The string to truncate
//   - maxLen: Maximum length of the result in runes (clamped to MinTruncateLen)
//
// Returns:
//   - Single-line, possibly truncated string
func TruncateDescription(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// MaskSecret returns a preview of a credential that is safe to log or show to a
// user: the first eight characters followed by "...". Short secrets are fully
// masked and an empty secret yields an empty string.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= secretPreviewLen {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:secretPreviewLen]) + "..."
}
