// Package labels turns free-text, comma-separated category tags into their
// canonical form and folds period names.
package labels

import (
	"slices"
	"strings"
)

// Separator joins canonical tags.
const Separator = ", "

// Normalizer corrects tag strings against a Dictionary. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	dict *Dictionary
}

// New returns a Normalizer over dict, or over the default table when dict is nil.
func New(dict *Dictionary) *Normalizer {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Normalizer{dict: dict}
}

var std = New(nil)

// Default returns the Normalizer backed by the built-in dictionary.
func Default() *Normalizer { return std }

// Normalize uses the default Normalizer.
func Normalize(raw string) string { return std.Normalize(raw) }

// Normalize returns the canonical form of raw: corrected tags, duplicates
// removed, sorted, joined with ", ". Blank input yields "".
//
//	Normalize("  Diseño ,diseño, DISEÑO ") == "Diseño"
func (n *Normalizer) Normalize(raw string) string {
	return strings.Join(n.Tags(raw), Separator)
}

// Tags returns the canonical tags of raw as a sorted, de-duplicated slice.
func (n *Normalizer) Tags(raw string) []string {
	if IsBlank(raw) {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := n.Label(p); tag != "" {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Label corrects a single token. Unmatched tokens are trimmed and get an
// upper-case first letter.
func (n *Normalizer) Label(token string) string {
	if IsBlank(token) {
		return ""
	}
	if label, ok := n.dict.Lookup(token); ok {
		return label
	}
	return capitalize(collapse(token))
}

// Dictionary returns the table n corrects against.
func (n *Normalizer) Dictionary() *Dictionary { return n.dict }
