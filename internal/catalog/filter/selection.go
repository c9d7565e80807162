package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pap-cedram/pap-backend/internal/catalog/labels"
)

// Dimension names one filterable attribute.
type Dimension string

const (
	ByYear        Dimension = "year"
	ByPeriod      Dimension = "period"
	ByCategory    Dimension = "category"
	BySubcategory Dimension = "subcategory"
	ByName        Dimension = "name"
)

// Selection holds the selected values of every dimension. An empty (or nil)
// set leaves its dimension unrestricted.
type Selection struct {
	Years         mapset.Set[int]
	Periods       mapset.Set[string]
	Categories    mapset.Set[string]
	Subcategories mapset.Set[string]
	Names         mapset.Set[string]
}

// NewSelection returns a selection with every dimension unrestricted.
func NewSelection() Selection {
	return Selection{
		Years:         mapset.NewThreadUnsafeSet[int](),
		Periods:       mapset.NewThreadUnsafeSet[string](),
		Categories:    mapset.NewThreadUnsafeSet[string](),
		Subcategories: mapset.NewThreadUnsafeSet[string](),
		Names:         mapset.NewThreadUnsafeSet[string](),
	}
}

// IsEmpty reports whether no dimension is restricted.
func (s Selection) IsEmpty() bool {
	return !active(s.Years) && !active(s.Periods) && !active(s.Categories) &&
		!active(s.Subcategories) && !active(s.Names)
}

// Signature returns a stable digest of the selection. Values are folded the
// way the engine compares them, so "PRIMAVERA" and "Primavera" share one.
func (s Selection) Signature() string {
	var b strings.Builder
	writeDim := func(d Dimension, vals []string) {
		slices.Sort(vals)
		vals = slices.Compact(vals)
		b.WriteString(string(d))
		b.WriteByte('=')
		b.WriteString(strings.Join(vals, "\x1f"))
		b.WriteByte('\x1e')
	}

	years := make([]string, 0)
	each(s.Years, func(y int) { years = append(years, strconv.Itoa(y)) })
	writeDim(ByYear, years)
	writeDim(ByPeriod, fold(s.Periods, labels.CanonicalPeriod))
	writeDim(ByCategory, fold(s.Categories, labels.Key))
	writeDim(BySubcategory, fold(s.Subcategories, labels.Key))
	writeDim(ByName, fold(s.Names, strings.TrimSpace))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func fold(set mapset.Set[string], f func(string) string) []string {
	out := make([]string, 0)
	each(set, func(v string) { out = append(out, f(v)) })
	return out
}

func active[T comparable](set mapset.Set[T]) bool {
	return set != nil && set.Cardinality() > 0
}

func each[T comparable](set mapset.Set[T], f func(T)) {
	if set == nil {
		return
	}
	set.Each(func(v T) bool {
		f(v)
		return false
	})
}
