package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pap-cedram/pap-backend/internal/catalog/domain"
	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

func projectsTable(ps ...domain.Project) *table.Table {
	t := table.New(table.Projects, domain.ProjectColumns...)
	for _, p := range ps {
		t.Append(p.Row())
	}
	return t
}

func deliverablesTable(ds ...domain.Deliverable) *table.Table {
	t := table.New(table.Deliverables, domain.DeliverableColumns...)
	for _, d := range ds {
		t.Append(d.Row())
	}
	return t
}

func projectNames(ps []domain.Project) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func deliverableTitles(ds []domain.Deliverable) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Title)
	}
	return out
}

func sampleInput() Input {
	return Input{
		Projects: projectsTable(
			domain.Project{Name: "A", Year: 2023, Period: "Primavera", CategoryTags: "Gestión, Comunicación"},
			domain.Project{Name: "B", Year: 2023, Period: "verano", CategoryTags: "infraestructura"},
			domain.Project{Name: "C", Year: 2024, Period: "OTOÑO ", CategoryTags: "investigacion, gestion"},
			domain.Project{Name: "D", Year: 2024, Period: "Primavera", CategoryTags: ""},
		),
		Deliverables: deliverablesTable(
			domain.Deliverable{Parent: "A", Title: "a1", SubcategoryTags: "difucion"},
			domain.Deliverable{Parent: "A", Title: "a2", SubcategoryTags: "Diseño"},
			domain.Deliverable{Parent: "B", Title: "b1", SubcategoryTags: "mantenimiento, diseño arquitectonico"},
			domain.Deliverable{Parent: "C", Title: "c1", SubcategoryTags: "Difusión, financiamiento"},
			domain.Deliverable{Parent: "D", Title: "d1", SubcategoryTags: ""},
		),
	}
}

func TestApply_EmptySelectionIsIdentity(t *testing.T) {
	in := sampleInput()

	for _, sel := range []Selection{{}, NewSelection()} {
		res := Apply(in, sel)
		if diff := cmp.Diff(domain.Projects(in.Projects), res.Projects); diff != "" {
			t.Errorf("projects mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(domain.Deliverables(in.Deliverables), res.Deliverables); diff != "" {
			t.Errorf("deliverables mismatch (-want +got):\n%s", diff)
		}
		assert.Empty(t, res.Inactive)
	}
}

func TestApply_CategoryAnyMatch(t *testing.T) {
	in := Input{
		Projects:     projectsTable(domain.Project{Name: "A", Year: 2023, Period: "Primavera", CategoryTags: "Gestión, Comunicación"}),
		Deliverables: deliverablesTable(),
	}

	sel := NewSelection()
	sel.Categories.Add("Comunicación")
	assert.Equal(t, []string{"A"}, projectNames(Apply(in, sel).Projects))

	sel = NewSelection()
	sel.Categories.Add("Infraestructura")
	assert.Empty(t, Apply(in, sel).Projects)
}

func TestApply_CategoryFuzzyMatch(t *testing.T) {
	in := Input{
		Projects: projectsTable(domain.Project{Name: "A", Year: 2023, Period: "Primavera", CategoryTags: "comunicasion"}),
	}
	sel := NewSelection()
	sel.Categories.Add("Comunicación")

	assert.Equal(t, []string{"A"}, projectNames(Apply(in, sel).Projects))
}

func TestApply_SubcategoryNarrowsBothTables(t *testing.T) {
	in := Input{
		Projects: projectsTable(domain.Project{Name: "A", Year: 2023, Period: "Primavera"}),
		Deliverables: deliverablesTable(
			domain.Deliverable{Parent: "A", Title: "first", SubcategoryTags: "difucion"},
			domain.Deliverable{Parent: "A", Title: "second", SubcategoryTags: "Diseño"},
		),
	}
	sel := NewSelection()
	sel.Subcategories.Add("Difusión")

	res := Apply(in, sel)
	assert.Equal(t, []string{"A"}, projectNames(res.Projects))
	assert.Equal(t, []string{"first"}, deliverableTitles(res.Deliverables))
}

func TestApply_SubcategoryHidesProjectsWithoutMatch(t *testing.T) {
	sel := NewSelection()
	sel.Subcategories.Add("difusion")

	res := Apply(sampleInput(), sel)
	assert.Equal(t, []string{"A", "C"}, projectNames(res.Projects))
	assert.Equal(t, []string{"a1", "c1"}, deliverableTitles(res.Deliverables))
}

func TestApply_PeriodIsCaseInsensitive(t *testing.T) {
	in := Input{Projects: projectsTable(
		domain.Project{Name: "A", Period: "primavera"},
		domain.Project{Name: "B", Period: "PRIMAVERA"},
		domain.Project{Name: "C", Period: "Primavera "},
		domain.Project{Name: "D", Period: "Verano"},
	)}
	sel := NewSelection()
	sel.Periods.Add("Primavera")

	assert.Equal(t, []string{"A", "B", "C"}, projectNames(Apply(in, sel).Projects))
}

func TestApply_ConjunctionAcrossDimensions(t *testing.T) {
	sel := NewSelection()
	sel.Years.Add(2024)
	sel.Periods.Add("Primavera")

	res := Apply(sampleInput(), sel)
	assert.Equal(t, []string{"D"}, projectNames(res.Projects))
	assert.Equal(t, []string{"d1"}, deliverableTitles(res.Deliverables))

	sel.Names.Add("A")
	assert.Empty(t, Apply(sampleInput(), sel).Projects)
}

func TestApply_BlankTagsNeverMatch(t *testing.T) {
	sel := NewSelection()
	sel.Categories.Add("Gestión")

	res := Apply(sampleInput(), sel)
	assert.NotContains(t, projectNames(res.Projects), "D")
	assert.Equal(t, []string{"A", "C"}, projectNames(res.Projects))
}

func TestApply_BlankSelectionValuesAreIgnored(t *testing.T) {
	sel := NewSelection()
	sel.Categories.Add("  ")
	sel.Periods.Add("nan")

	assert.Len(t, Apply(sampleInput(), sel).Projects, 4)
}

func TestApply_MissingColumnDisablesDimension(t *testing.T) {
	in := sampleInput()
	in.Projects = in.Projects.Clone()
	in.Projects.Columns = []string{domain.ColName, domain.ColYear, domain.ColCategory}
	for _, r := range in.Projects.Rows {
		delete(r, domain.ColPeriod)
	}

	sel := NewSelection()
	sel.Periods.Add("Verano")
	sel.Years.Add(2023)

	res := Apply(in, sel)
	assert.Equal(t, []string{"A", "B"}, projectNames(res.Projects))
	require.Len(t, res.Inactive, 1)
	assert.Equal(t, domain.MissingColumnError{Table: table.Projects, Column: domain.ColPeriod}, res.Inactive[0])
}

func TestApply_MissingParentColumnHidesDeliverables(t *testing.T) {
	in := sampleInput()
	in.Deliverables = table.New(table.Deliverables, domain.ColTitle)
	in.Deliverables.Rows = []table.Row{{domain.ColTitle: "loose"}}

	sel := NewSelection()
	sel.Subcategories.Add("Difusión")

	res := Apply(in, sel)
	assert.Len(t, res.Projects, 4)
	assert.Empty(t, res.Deliverables)
	assert.Len(t, res.Inactive, 2)
}

func TestApply_OrphansNeverSurface(t *testing.T) {
	in := sampleInput()
	in.Deliverables.Append(domain.Deliverable{Parent: "Z", Title: "orphan", SubcategoryTags: "Difusión"}.Row())

	assert.NotContains(t, deliverableTitles(Apply(in, Selection{}).Deliverables), "orphan")

	sel := NewSelection()
	sel.Subcategories.Add("Difusión")
	assert.NotContains(t, deliverableTitles(Apply(in, sel).Deliverables), "orphan")
}

func TestApply_BlankParentNeverMatchesBlankName(t *testing.T) {
	in := Input{
		Projects: projectsTable(
			domain.Project{Name: "A", Year: 2023},
			domain.Project{Name: "  ", Year: 2023},
		),
		Deliverables: deliverablesTable(
			domain.Deliverable{Parent: "A", Title: "a1"},
			domain.Deliverable{Parent: "", Title: "loose"},
		),
	}

	res := Apply(in, NewSelection())
	assert.Equal(t, []string{"a1"}, deliverableTitles(res.Deliverables))
}

func TestApply_EmptyTables(t *testing.T) {
	res := Apply(Input{}, NewSelection())
	assert.Empty(t, res.Projects)
	assert.Empty(t, res.Deliverables)
	assert.NotNil(t, res.Projects)
}

func selections() []Selection {
	var out []Selection
	add := func(f func(Selection)) {
		s := NewSelection()
		f(s)
		out = append(out, s)
	}
	add(func(Selection) {})
	add(func(s Selection) { s.Years.Add(2023) })
	add(func(s Selection) { s.Years.Append(2023, 2024) })
	add(func(s Selection) { s.Periods.Add("primavera") })
	add(func(s Selection) { s.Categories.Add("gestion") })
	add(func(s Selection) { s.Categories.Append("gestion", "infra") })
	add(func(s Selection) { s.Subcategories.Add("Diseño") })
	add(func(s Selection) { s.Subcategories.Append("Diseño", "financiamiento") })
	add(func(s Selection) { s.Names.Append("A", "C") })
	add(func(s Selection) {
		s.Years.Add(2024)
		s.Subcategories.Add("difusion")
	})
	return out
}

func TestApply_DeliverablesBelongToVisibleProjects(t *testing.T) {
	in := sampleInput()
	for _, sel := range selections() {
		res := Apply(in, sel)
		visible := make(map[string]bool)
		for _, p := range res.Projects {
			visible[p.Name] = true
		}
		for _, d := range res.Deliverables {
			assert.True(t, visible[d.Parent], "deliverable %q under hidden project %q", d.Title, d.Parent)
		}
	}
}

func TestApply_RestrictingNeverWidens(t *testing.T) {
	in := sampleInput()
	base := Apply(in, NewSelection())

	for _, sel := range selections() {
		narrowed := Apply(in, sel)
		assert.LessOrEqual(t, len(narrowed.Projects), len(base.Projects))

		if sel.Names.Cardinality() > 0 {
			continue
		}
		// Adding a restriction on a further dimension narrows again.
		extra := NewSelection()
		extra.Years = sel.Years.Clone()
		extra.Periods = sel.Periods.Clone()
		extra.Categories = sel.Categories.Clone()
		extra.Subcategories = sel.Subcategories.Clone()
		extra.Names = sel.Names.Clone()
		extra.Names.Add("A")
		assert.LessOrEqual(t, len(Apply(in, extra).Projects), len(narrowed.Projects))
	}
}

func TestApply_Deterministic(t *testing.T) {
	in := sampleInput()
	for _, sel := range selections() {
		assert.Equal(t, Apply(in, sel), Apply(in, sel))
	}
}
