// CLAUDE:SUMMARY Canonical text forms for quote matching: display (whitespace) and match (punctuation-free) normalization.
// Package normalize produces the canonical comparable forms of fragment and
// quote text. Two forms exist: Display keeps punctuation and is used where
// text is shown back to the host; Match additionally folds punctuation away
// and is the form all quote matching runs on.
//
// Both forms are total and idempotent: Normalize(Normalize(s)) == Normalize(s),
// and empty input yields the empty string.
package normalize

import (
	"strings"
	"unicode"
)

// Display lower-cases, collapses whitespace runs to a single space, and trims
// leading/trailing non-alphanumeric characters. Internal punctuation is kept.
func Display(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimFunc(sb.String(), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Match lower-cases and reduces the string to letters, digits and single
// spaces. Punctuation behaves like whitespace, so "3.2" and "3 2" compare
// equal. This is the form the matcher searches in.
func Match(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace && sb.Len() > 0 {
			sb.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(sb.String())
}
