package views

import (
	"strings"
	"unicode"
)

// sanitizeForTerminal drops codepoints that tcell renders badly or that
// would move the cursor. Stream titles often carry emoji sequences:
//   - skin tone modifiers (U+1F3FB..U+1F3FF)
//   - zero width joiner (U+200D)
//   - variation selectors (U+FE00..U+FE0F, U+E0100..U+E01EF)
//
// Control characters, including newlines, become spaces.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F3FB && r <= 0x1F3FF,
			r == 0x200D,
			r >= 0xFE00 && r <= 0xFE0F,
			r >= 0xE0100 && r <= 0xE01EF:
			return -1
		case unicode.IsControl(r):
			return ' '
		}
		return r
	}, s)
}
