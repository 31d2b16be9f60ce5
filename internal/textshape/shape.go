// Package textshape prepares right-to-left text for renderers that draw
// glyphs in logical order without shaping, such as PDF writers.
package textshape

import (
	"strings"

	"golang.org/x/text/unicode/bidi"
)

// NeedsShaping reports whether text has anything outside printable ASCII.
func NeedsShaping(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] < 0x20 || text[i] > 0x7E {
			return true
		}
	}
	return false
}

// ContainsRTL reports whether text holds right-to-left characters.
func ContainsRTL(text string) bool {
	for _, r := range text {
		if r < 0x0590 {
			continue
		}
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.R, bidi.AL:
			return true
		}
	}
	return false
}

// Shape returns text in visual order with Arabic letters joined. Printable
// ASCII passes through untouched. Lines are shaped independently.
func Shape(text string) string {
	if !NeedsShaping(text) {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		runes := []rune(line)
		runes = reshape(runes)
		runes = reorder(runes)
		lines[i] = string(runes)
	}
	return strings.Join(lines, "\n")
}

// Shaper is the function form consumed by document writers.
type Shaper func(string) string
