package template

import (
	"fmt"
	"strings"
)

const maxPatternLength = 256

// validatePattern checks a random fixed-value pattern at configuration
// time so per-record generation can never fail.
func validatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("random value requires a non-empty pattern")
	}
	if len(pattern) > maxPatternLength {
		return fmt.Errorf("pattern length %d exceeds %d", len(pattern), maxPatternLength)
	}
	return nil
}

// generateFromPattern produces a fresh value matching the pattern:
// '#' becomes a digit, '?' a letter, '*' an alphanumeric, and any
// other rune is copied through.
func generateFromPattern(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for _, r := range pattern {
		switch r {
		case '#':
			b.WriteByte(digitCharset[randomInt(0, int64(len(digitCharset)))])
		case '?':
			b.WriteByte(letterCharset[randomInt(0, int64(len(letterCharset)))])
		case '*':
			b.WriteByte(alnumCharset[randomInt(0, int64(len(alnumCharset)))])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
