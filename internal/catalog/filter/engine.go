// Package filter computes the visible subset of the project and deliverable
// tables for a set of selected filter values, plus the cascading option
// lists and tag counts the dashboard views are built from.
package filter

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pap-cedram/pap-backend/internal/catalog/domain"
	"github.com/pap-cedram/pap-backend/internal/catalog/labels"
	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

// Input is the pair of tables a filter pass runs over.
type Input struct {
	Projects     *table.Table
	Deliverables *table.Table
}

// Result is the visible subset of each table, in input order. Inactive lists
// the dimensions that were ignored because their column is missing.
type Result struct {
	Projects     []domain.Project            `json:"projects"`
	Deliverables []domain.Deliverable        `json:"deliverables"`
	Inactive     []domain.MissingColumnError `json:"inactive,omitempty"`
}

// Engine applies selections using a Normalizer for tag comparison. It has
// no mutable state and may be shared between goroutines.
type Engine struct {
	norm *labels.Normalizer
}

// New returns an Engine; a nil normalizer means labels.Default().
func New(n *labels.Normalizer) *Engine {
	if n == nil {
		n = labels.Default()
	}
	return &Engine{norm: n}
}

var std = New(nil)

// Apply filters with the default Engine.
func Apply(in Input, sel Selection) Result { return std.Apply(in, sel) }

// Apply returns the projects satisfying every active dimension and the
// deliverables that belong to them. When a subcategory filter is active a
// project needs at least one matching deliverable, and only matching
// deliverables are returned.
func (e *Engine) Apply(in Input, sel Selection) Result {
	c := e.compile(in, sel)
	res := Result{
		Projects:     make([]domain.Project, 0),
		Deliverables: make([]domain.Deliverable, 0),
		Inactive:     c.inactive,
	}

	deliverables := domain.Deliverables(in.Deliverables)
	if c.subcategories != nil {
		deliverables = e.matchingDeliverables(deliverables, c.subcategories)
	}
	withMatch := parents(deliverables)

	visible := mapset.NewThreadUnsafeSet[string]()
	for _, p := range domain.Projects(in.Projects) {
		if !c.keep(p, stageAll) {
			continue
		}
		if c.subcategories != nil && !withMatch.Contains(p.Name) {
			continue
		}
		res.Projects = append(res.Projects, p)
		if p.Name != "" {
			visible.Add(p.Name)
		}
	}

	if !in.Deliverables.HasColumn(domain.ColParent) {
		return res
	}
	for _, d := range deliverables {
		if d.Parent != "" && visible.Contains(d.Parent) {
			res.Deliverables = append(res.Deliverables, d)
		}
	}
	return res
}

// stage bounds how many project-level dimensions keep applies, in cascade
// order: year, period, category, name.
type stage int

const (
	stageNone stage = iota
	stageYear
	stagePeriod
	stageCategory
	stageAll
)

// compiled is a selection folded into canonical form, with dimensions whose
// column is missing dropped. A nil set means the dimension is inactive.
type compiled struct {
	years         mapset.Set[int]
	periods       mapset.Set[string]
	categories    mapset.Set[string]
	subcategories mapset.Set[string]
	names         mapset.Set[string]
	inactive      []domain.MissingColumnError

	norm *labels.Normalizer
}

func (e *Engine) compile(in Input, sel Selection) compiled {
	c := compiled{norm: e.norm}

	need := func(t *table.Table, name string, cols ...string) bool {
		ok := true
		for _, col := range cols {
			if !t.HasColumn(col) {
				c.inactive = append(c.inactive, domain.MissingColumnError{Table: name, Column: col})
				ok = false
			}
		}
		return ok
	}

	if active(sel.Years) && need(in.Projects, table.Projects, domain.ColYear) {
		c.years = sel.Years.Clone()
	}
	if active(sel.Periods) && need(in.Projects, table.Projects, domain.ColPeriod) {
		c.periods = foldSet(sel.Periods, labels.CanonicalPeriod)
	}
	if active(sel.Categories) && need(in.Projects, table.Projects, domain.ColCategory) {
		c.categories = e.canonicalTags(sel.Categories)
	}
	if active(sel.Subcategories) &&
		need(in.Deliverables, table.Deliverables, domain.ColSubcategory, domain.ColParent) {
		c.subcategories = e.canonicalTags(sel.Subcategories)
	}
	if active(sel.Names) && need(in.Projects, table.Projects, domain.ColName) {
		c.names = foldSet(sel.Names, strings.TrimSpace)
	}
	return c
}

// keep applies the project-level dimensions up to and including upTo.
func (c compiled) keep(p domain.Project, upTo stage) bool {
	if upTo >= stageYear && c.years != nil && !c.years.Contains(p.Year) {
		return false
	}
	if upTo >= stagePeriod && c.periods != nil && !c.periods.Contains(labels.CanonicalPeriod(p.Period)) {
		return false
	}
	if upTo >= stageCategory && c.categories != nil && !anyTag(c.norm.Tags(p.CategoryTags), c.categories) {
		return false
	}
	if upTo >= stageAll && c.names != nil && !c.names.Contains(p.Name) {
		return false
	}
	return true
}

func (e *Engine) canonicalTags(vals mapset.Set[string]) mapset.Set[string] {
	out := mapset.NewThreadUnsafeSet[string]()
	each(vals, func(v string) {
		for _, t := range e.norm.Tags(v) {
			out.Add(t)
		}
	})
	if out.Cardinality() == 0 {
		return nil
	}
	return out
}

// foldSet maps vals through f, dropping blanks. Nothing left means the
// dimension stays inactive.
func foldSet(vals mapset.Set[string], f func(string) string) mapset.Set[string] {
	out := mapset.NewThreadUnsafeSet[string]()
	each(vals, func(v string) {
		if folded := f(v); folded != "" {
			out.Add(folded)
		}
	})
	if out.Cardinality() == 0 {
		return nil
	}
	return out
}

func (e *Engine) matchingDeliverables(ds []domain.Deliverable, want mapset.Set[string]) []domain.Deliverable {
	out := make([]domain.Deliverable, 0, len(ds))
	for _, d := range ds {
		if anyTag(e.norm.Tags(d.SubcategoryTags), want) {
			out = append(out, d)
		}
	}
	return out
}

func parents(ds []domain.Deliverable) mapset.Set[string] {
	out := mapset.NewThreadUnsafeSet[string]()
	for _, d := range ds {
		if d.Parent != "" {
			out.Add(d.Parent)
		}
	}
	return out
}

func anyTag(tags []string, want mapset.Set[string]) bool {
	for _, t := range tags {
		if want.Contains(t) {
			return true
		}
	}
	return false
}
