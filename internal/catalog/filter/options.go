package filter

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pap-cedram/pap-backend/internal/catalog/domain"
	"github.com/pap-cedram/pap-backend/internal/catalog/labels"
)

// Options are the values each dimension can offer given the selections of
// the dimensions before it: year, then period, category, subcategory and
// finally project name.
type Options struct {
	Years         []int    `json:"years"`
	Periods       []string `json:"periods"`
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	Names         []string `json:"names"`
}

// AvailableOptions computes cascade options with the default Engine.
func AvailableOptions(in Input, sel Selection) Options { return std.Options(in, sel) }

// Options computes the cascade option lists. A dimension whose column is
// missing offers nothing.
func (e *Engine) Options(in Input, sel Selection) Options {
	c := e.compile(in, sel)
	projects := domain.Projects(in.Projects)
	deliverables := domain.Deliverables(in.Deliverables)
	opts := Options{
		Years:         make([]int, 0),
		Periods:       make([]string, 0),
		Categories:    make([]string, 0),
		Subcategories: make([]string, 0),
		Names:         make([]string, 0),
	}

	if in.Projects.HasColumn(domain.ColYear) {
		years := mapset.NewThreadUnsafeSet[int]()
		for _, p := range projects {
			if p.Year != 0 {
				years.Add(p.Year)
			}
		}
		opts.Years = years.ToSlice()
		slices.Sort(opts.Years)
	}

	if in.Projects.HasColumn(domain.ColPeriod) {
		periods := mapset.NewThreadUnsafeSet[string]()
		for _, p := range projects {
			if c.keep(p, stageYear) {
				if period := labels.CanonicalPeriod(p.Period); period != "" {
					periods.Add(period)
				}
			}
		}
		opts.Periods = periods.ToSlice()
		slices.SortFunc(opts.Periods, comparePeriods)
	}

	if in.Projects.HasColumn(domain.ColCategory) {
		cats := mapset.NewThreadUnsafeSet[string]()
		for _, p := range projects {
			if c.keep(p, stagePeriod) {
				cats.Append(e.norm.Tags(p.CategoryTags)...)
			}
		}
		opts.Categories = sorted(cats)
	}

	narrowed := mapset.NewThreadUnsafeSet[string]()
	for _, p := range projects {
		if c.keep(p, stageCategory) {
			narrowed.Add(p.Name)
		}
	}

	withMatch := mapset.NewThreadUnsafeSet[string]()
	if in.Deliverables.HasColumn(domain.ColSubcategory) && in.Deliverables.HasColumn(domain.ColParent) {
		subs := mapset.NewThreadUnsafeSet[string]()
		for _, d := range deliverables {
			if !narrowed.Contains(d.Parent) {
				continue
			}
			tags := e.norm.Tags(d.SubcategoryTags)
			subs.Append(tags...)
			if c.subcategories != nil && anyTag(tags, c.subcategories) {
				withMatch.Add(d.Parent)
			}
		}
		opts.Subcategories = sorted(subs)
	}

	if in.Projects.HasColumn(domain.ColName) {
		names := mapset.NewThreadUnsafeSet[string]()
		for _, p := range projects {
			if p.Name == "" || !narrowed.Contains(p.Name) {
				continue
			}
			if c.subcategories != nil && !withMatch.Contains(p.Name) {
				continue
			}
			names.Add(p.Name)
		}
		opts.Names = sorted(names)
	}
	return opts
}

// comparePeriods orders canonical periods by calendar, unknown ones last.
func comparePeriods(a, b string) int {
	ia, ib := slices.Index(labels.Periods, a), slices.Index(labels.Periods, b)
	switch {
	case ia >= 0 && ib >= 0:
		return ia - ib
	case ia >= 0:
		return -1
	case ib >= 0:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func sorted(set mapset.Set[string]) []string {
	out := set.ToSlice()
	slices.Sort(out)
	return out
}
