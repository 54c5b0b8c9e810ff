// Package filename makes feed-provided strings safe to embed in a path.
package filename

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxBytes bounds a sanitized component so that the index, author,
	// separators and extension still fit within common 255-byte limits.
	MaxBytes = 200

	Fallback = "untitled"
)

const reserved = `/\?<>:*|"`

// Sanitize strips path separators, reserved and control characters, bounds
// the length and normalizes to NFC. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == unicode.ReplacementChar:
			return -1
		case strings.ContainsRune(reserved, r):
			return -1
		case unicode.IsControl(r):
			return ' '
		default:
			return r
		}
	}, s)

	mapped = norm.NFC.String(mapped)
	mapped = strings.Join(strings.Fields(mapped), " ")
	mapped = truncate(mapped, MaxBytes)
	mapped = strings.TrimRight(mapped, ". ")

	if mapped == "" {
		return Fallback
	}
	return mapped
}

// truncate cuts s to at most max bytes without splitting a rune or a
// combining sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	b := []byte(s[:cut])
	if i := norm.NFC.LastBoundary(b); i > 0 {
		return string(b[:i])
	}
	return string(b)
}
