package labels

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// sentinels are spellings of "no value" left behind by spreadsheet exports.
var sentinels = map[string]struct{}{
	"nan":  {},
	"none": {},
	"null": {},
	"<na>": {},
	"n/a":  {},
}

// Key returns the comparison key for a label: lowercased, accents removed,
// inner whitespace collapsed (e.g. "  Comunicación " -> "comunicacion").
func Key(s string) string {
	s = collapse(s)
	if s == "" {
		return ""
	}
	out, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// IsBlank reports whether s carries no value: empty, whitespace or a sentinel.
func IsBlank(s string) bool {
	k := Key(s)
	if k == "" {
		return true
	}
	_, ok := sentinels[k]
	return ok
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capitalize upper-cases the first rune and keeps the rest verbatim.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
