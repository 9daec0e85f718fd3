package library

import (
	"strings"
	"unicode"
)

// NormalizeKey canonicalizes a display string into a comparison key used
// for fuzzy identity matching: lowercase, separator punctuation folded to
// spaces, everything else that is not a letter or digit dropped, and runs
// of whitespace collapsed to one space.
//
// Tags and filenames disagree on punctuation and case ("Test-Song!" vs
// "Test Song"), so exact-string comparison would import the same track
// repeatedly.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true // Swallows leading whitespace
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
		// Remaining punctuation is dropped entirely.
	}

	return strings.TrimRight(b.String(), " ")
}
