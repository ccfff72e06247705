package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader reduces a header to a comparison key: lowercase, no
// diacritics, and nothing but letters and digits ("Équipe / Projet" ->
// "equipeprojet").
func NormalizeHeader(header string) string {
	s := stripDiacritics(strings.ToLower(strings.TrimSpace(header)))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripDiacritics decomposes the string into NFD form and removes
// combining marks (unicode.Mn).
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
