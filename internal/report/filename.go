// Package report serializes scraped data: per-session JSON/CSV/TXT
// files, run-wide aggregates and the debug text dumps. All outputs are
// whole-file writes.
package report

import (
	"strings"
	"unicode/utf8"
)

// MaxFilenameLength caps sanitized filenames.
const MaxFilenameLength = 180

// SafeFilename converts an arbitrary string (typically a session display
// name) into a safe filesystem name: forbidden and control characters are
// stripped, whitespace runs collapse to single spaces, leading and
// trailing spaces, dots and underscores are trimmed, and the result is
// capped at MaxFilenameLength, cut back to the last space boundary.
func SafeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name)

	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.Trim(cleaned, " ._")

	if len(cleaned) > MaxFilenameLength {
		cleaned = cutAtRune(cleaned, MaxFilenameLength)
		if i := strings.LastIndex(cleaned, " "); i > 0 {
			cleaned = cleaned[:i]
		}
		cleaned = strings.Trim(cleaned, " ._")
	}

	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}

// cutAtRune truncates s to at most n bytes without splitting a
// multi-byte rune.
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
