// Package identifier cleans operator-supplied search input before dispatch.
package identifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Kind tells which cleaning rule an upstream expects.
type Kind string

const (
	KindDocument Kind = "document"
	KindUsername Kind = "username"
	KindEmail    Kind = "email"
)

// Normalize strips '.', '-', '/' and whitespace from a tax-ID-style identifier.
// Compatibility forms (full-width digits, no-break spaces) are folded first.
// It never fails; an empty input yields an empty string.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	folded := norm.NFKC.String(raw)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r == '.' || r == '-' || r == '/' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ForKind applies the cleaning rule for kind. Usernames are trimmed, emails
// are trimmed and lower-cased, documents go through Normalize.
func ForKind(kind Kind, raw string) string {
	switch kind {
	case KindUsername:
		return strings.TrimSpace(norm.NFKC.String(raw))
	case KindEmail:
		return strings.ToLower(strings.TrimSpace(norm.NFKC.String(raw)))
	default:
		return Normalize(raw)
	}
}
