package filter

import (
	"cmp"
	"slices"

	"github.com/pap-cedram/pap-backend/internal/catalog/domain"
	"github.com/pap-cedram/pap-backend/internal/catalog/labels"
	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

// TagRef pairs a row index with one canonical tag of that row.
type TagRef struct {
	Row int    `json:"row"`
	Tag string `json:"tag"`
}

// Bucket is one group of a count.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Explode splits column of every row of t into canonical tags using the
// default Engine.
func Explode(t *table.Table, column string) []TagRef { return std.Explode(t, column) }

// Explode returns one TagRef per (row, tag) so multi-valued cells can be
// counted one tag per row. Rows without tags contribute nothing; a missing
// column yields no refs.
func (e *Engine) Explode(t *table.Table, column string) []TagRef {
	if !t.HasColumn(column) {
		return []TagRef{}
	}
	vals := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		vals[i] = r.GetOr(column, "")
	}
	return e.explode(vals)
}

func (e *Engine) explode(vals []string) []TagRef {
	out := make([]TagRef, 0, len(vals))
	for i, v := range vals {
		for _, tag := range e.norm.Tags(v) {
			out = append(out, TagRef{Row: i, Tag: tag})
		}
	}
	return out
}

// Count groups refs by tag, largest group first, ties by label.
func Count(refs []TagRef) []Bucket {
	counts := make(map[string]int)
	for _, r := range refs {
		counts[r.Tag]++
	}
	out := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		out = append(out, Bucket{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// Stats are the aggregate views over a filter result.
type Stats struct {
	Projects      int      `json:"projects"`
	Deliverables  int      `json:"deliverables"`
	ByPeriod      []Bucket `json:"by_period"`
	ByCategory    []Bucket `json:"by_category"`
	BySubcategory []Bucket `json:"by_subcategory"`
}

// Summarize aggregates res with the default Engine.
func Summarize(res Result) Stats { return std.Summarize(res) }

// Summarize counts visible projects by period and category and visible
// deliverables by subcategory, exploding multi-valued tags.
func (e *Engine) Summarize(res Result) Stats {
	periods := make([]TagRef, 0, len(res.Projects))
	cats := make([]string, len(res.Projects))
	for i, p := range res.Projects {
		if period := labels.CanonicalPeriod(p.Period); period != "" {
			periods = append(periods, TagRef{Row: i, Tag: period})
		}
		cats[i] = p.CategoryTags
	}
	subs := make([]string, len(res.Deliverables))
	for i, d := range res.Deliverables {
		subs[i] = d.SubcategoryTags
	}
	return Stats{
		Projects:      len(res.Projects),
		Deliverables:  len(res.Deliverables),
		ByPeriod:      Count(periods),
		ByCategory:    Count(e.explode(cats)),
		BySubcategory: Count(e.explode(subs)),
	}
}

// Orphans returns deliverables whose parent matches no project. A blank
// parent is always an orphan, even next to a project with a blank name.
func Orphans(projects []domain.Project, deliverables []domain.Deliverable) []domain.Deliverable {
	names := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if p.Name != "" {
			names[p.Name] = struct{}{}
		}
	}
	out := make([]domain.Deliverable, 0)
	for _, d := range deliverables {
		if _, ok := names[d.Parent]; !ok {
			out = append(out, d)
		}
	}
	return out
}
