package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldLabel upper-cases, trims and strips diacritics from a header label so
// that "Categoría " and "CATEGORIA" compare equal.
func FoldLabel(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}

// Canon is the canonical form of place names and other free-text keys:
// trimmed and upper-cased.
func Canon(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
