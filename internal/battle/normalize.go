package battle

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize converts a species or move name to Showdown's ID format:
// diacritics folded (Flabébé -> flabebe), lower-cased, everything
// outside [a-z0-9] dropped.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	if folded, _, err := transform.String(foldDiacritics, name); err == nil {
		name = folded
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
