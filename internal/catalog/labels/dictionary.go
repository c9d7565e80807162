package labels

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Correction maps any comparison key containing Match to Label.
type Correction struct {
	Match string `yaml:"match"`
	Label string `yaml:"label"`
}

// Dictionary is an ordered correction table. The first entry whose Match
// occurs inside a token's key wins, so specific entries go first.
type Dictionary struct {
	entries []Correction
}

var (
	ErrEmptyDictionary = errors.New("dictionary has no entries")
	ErrNotFixedPoint   = errors.New("dictionary label does not correct to itself")
)

// Fixed vocabularies of the archive program.
var (
	Categories = []string{"Gestión", "Comunicación", "Infraestructura", "Investigación"}

	Subcategories = []string{
		"Financiamiento", "Vinculación", "Memoria/archivo CEDRAM",
		"Memoria/archivo PAP", "Diseño", "Difusión",
		"Diseño arquitectónico", "Mantenimiento", "Productos teatrales",
	}
)

// DefaultDictionary returns the built-in correction table.
func DefaultDictionary() *Dictionary {
	d, err := NewDictionary([]Correction{
		{Match: "cedram", Label: "Memoria/archivo CEDRAM"},
		{Match: "archivo pap", Label: "Memoria/archivo PAP"},
		{Match: "memoria pap", Label: "Memoria/archivo PAP"},
		// must precede "disen"
		{Match: "diseno arq", Label: "Diseño arquitectónico"},
		{Match: "arquitect", Label: "Diseño arquitectónico"},
		{Match: "teatr", Label: "Productos teatrales"},
		{Match: "comunica", Label: "Comunicación"},
		{Match: "cominica", Label: "Comunicación"},
		{Match: "gesti", Label: "Gestión"},
		{Match: "infra", Label: "Infraestructura"},
		{Match: "investiga", Label: "Investigación"},
		{Match: "invetiga", Label: "Investigación"},
		{Match: "financ", Label: "Financiamiento"},
		{Match: "finans", Label: "Financiamiento"},
		{Match: "vincula", Label: "Vinculación"},
		{Match: "binculac", Label: "Vinculación"},
		{Match: "difus", Label: "Difusión"},
		{Match: "difuc", Label: "Difusión"},
		{Match: "manten", Label: "Mantenimiento"},
		{Match: "mantien", Label: "Mantenimiento"},
		{Match: "disen", Label: "Diseño"},
	})
	if err != nil {
		panic(fmt.Sprintf("default dictionary: %v", err))
	}
	return d
}

// NewDictionary builds a dictionary from ordered entries. Match strings are
// folded to comparison keys so callers may write them with accents.
func NewDictionary(entries []Correction) (*Dictionary, error) {
	d := &Dictionary{entries: make([]Correction, 0, len(entries))}
	for _, e := range entries {
		d.entries = append(d.entries, Correction{Match: Key(e.Match), Label: collapse(e.Label)})
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadDictionary reads a YAML list of {match, label} entries.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var entries []Correction
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", filepath.Base(path), err)
	}
	return NewDictionary(entries)
}

// Validate checks that every entry is usable and that every label corrects
// to itself, which keeps Normalize idempotent.
func (d *Dictionary) Validate() error {
	if len(d.entries) == 0 {
		return ErrEmptyDictionary
	}
	for i, e := range d.entries {
		if e.Match == "" {
			return fmt.Errorf("entry %d: empty match", i)
		}
		if e.Label == "" || strings.Contains(e.Label, ",") {
			return fmt.Errorf("entry %d: invalid label %q", i, e.Label)
		}
		if got, ok := d.Lookup(e.Label); !ok || got != e.Label {
			return fmt.Errorf("entry %d (%q): %w (corrects to %q)", i, e.Label, ErrNotFixedPoint, got)
		}
	}
	return nil
}

// Lookup returns the label of the first entry matching token.
func (d *Dictionary) Lookup(token string) (string, bool) {
	k := Key(token)
	if k == "" {
		return "", false
	}
	for _, e := range d.entries {
		if strings.Contains(k, e.Match) {
			return e.Label, true
		}
	}
	return "", false
}

// Entries returns a copy of the ordered table.
func (d *Dictionary) Entries() []Correction {
	out := make([]Correction, len(d.entries))
	copy(out, d.entries)
	return out
}
