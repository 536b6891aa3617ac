// Package naming converts free-form names into canonical dictionary
// identifiers and validates them against the naming rules.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// RootMaxLength is the maximum length of a root canonical name
	RootMaxLength = 64
	// FieldMaxLength is the maximum length of a field canonical name
	FieldMaxLength = 128
	// ModelMaxLength is the maximum length of a model canonical name
	ModelMaxLength = 128
	// RawMaxLength is the maximum length of a name as typed, which is stored
	// beside its canonical form
	RawMaxLength = 255

	// Unnamed is the fallback used when a name normalizes to nothing
	Unnamed = "unnamed"
)

// Normalize converts raw input into canonical snake_case form.
//
// The pipeline is applied in order: NFKC composition (full-width and
// half-width forms fold together), lowercasing, whitespace runs to a single
// underscore, removal of anything outside [a-z0-9_], collapse of repeated
// underscores and trimming of leading/trailing underscores.
//
// Example:
//
//	Normalize("  Order Amount ") // "order_amount"
//	Normalize("ＵＳＥＲ－ｉｄ")     // "userid"
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(norm.NFKC.String(raw))

	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	lastUnderscore := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			inSpace = false
			if b.Len() > 0 && !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}

		switch {
		case r == '_':
			if b.Len() > 0 && !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		}
	}

	return strings.TrimRight(b.String(), "_")
}

// NormalizeOr normalizes raw and returns fallback when nothing survives
func NormalizeOr(raw, fallback string) string {
	if n := Normalize(raw); n != "" {
		return n
	}
	return fallback
}

// IsAtomic reports whether a canonical name is a single morpheme
func IsAtomic(name string) bool {
	return !strings.Contains(name, "_")
}

// IsPhrase reports whether a canonical name is made of several morphemes
func IsPhrase(name string) bool {
	return strings.Contains(name, "_")
}

// Join builds the canonical field name for an ordered list of root names
func Join(roots []string) string {
	return strings.Join(roots, "_")
}
