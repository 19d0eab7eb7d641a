package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeFileName makes name safe as a single path element. Path and drive
// separators and "*" become dashes; quoting, redirection and control
// characters are dropped. Surrounding whitespace and leading dots are
// trimmed, so "..", "." and hidden names come back empty or visible.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimLeft(strings.TrimSpace(mapped), ".")
}

// Slug converts value into a lowercase ASCII token made of letters, digits
// and single dashes. Accents are folded ("Protéine" becomes "proteine").
// Returns fallback when nothing usable remains.
func Slug(value, fallback string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		folded = value
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return fallback
	}
	return out
}

var titleCaser = cases.Title(language.English)

// TitleFromName turns a folder or file name such as "active_site-2" into a
// display title ("Active Site 2").
func TitleFromName(name string) string {
	spaced := strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	}), " ")
	return titleCaser.String(spaced)
}
