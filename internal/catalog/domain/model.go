package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

// Column headers of the Proyectos table.
const (
	ColYear        = "Año"
	ColPeriod      = "Periodo"
	ColName        = "Nombre del Proyecto"
	ColDescription = "Descripción"
	ColEstimate    = "Num_Entregables"
	ColCategory    = "Categoría"
	ColComments    = "Comentarios"
	ColCreatedAt   = "Fecha_Registro"
)

// Column headers of the Entregables table. Categoría and Fecha_Registro are
// shared with Proyectos.
const (
	ColParent      = "Proyecto_Padre"
	ColTitle       = "Entregable"
	ColContent     = "Contenido"
	ColSubcategory = "Subcategoría"
	ColTemplates   = "Plantillas"
)

// Business range for project years.
const (
	MinYear = 2019
	MaxYear = 2030
)

// TimeLayout formats Fecha_Registro.
const TimeLayout = "2006-01-02 15:04:05"

var (
	ProjectColumns = []string{
		ColYear, ColPeriod, ColName, ColDescription,
		ColEstimate, ColCategory, ColComments, ColCreatedAt,
	}
	DeliverableColumns = []string{
		ColParent, ColTitle, ColContent, ColCategory,
		ColSubcategory, ColTemplates, ColCreatedAt,
	}
)

// Project is one archival project. Name is the de-facto primary key.
// Year is zero when the stored value is missing or not a number.
type Project struct {
	Year         int    `json:"year"`
	Period       string `json:"period"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Comments     string `json:"comments"`
	CategoryTags string `json:"category_tags"`
	Estimate     int    `json:"estimated_deliverable_count"`
	CreatedAt    string `json:"created_at"`
}

// Deliverable is one work product. Parent refers to Project.Name by value;
// Position is the row index in the Entregables table.
type Deliverable struct {
	Position        int    `json:"position"`
	Parent          string `json:"parent_project_name"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	CategoryTags    string `json:"category_tags"`
	SubcategoryTags string `json:"subcategory_tags"`
	Templates       string `json:"templates"`
	CreatedAt       string `json:"created_at"`
}

// ProjectFromRow reads a project with get-or-default semantics.
func ProjectFromRow(r table.Row) Project {
	return Project{
		Year:         ParseInt(r.GetOr(ColYear, "")),
		Period:       r.GetOr(ColPeriod, ""),
		Name:         r.GetOr(ColName, ""),
		Description:  r.GetOr(ColDescription, ""),
		Comments:     r.GetOr(ColComments, ""),
		CategoryTags: r.GetOr(ColCategory, ""),
		Estimate:     ParseInt(r.GetOr(ColEstimate, "")),
		CreatedAt:    r.GetOr(ColCreatedAt, ""),
	}
}

// Row renders p with the Proyectos headers.
func (p Project) Row() table.Row {
	return table.Row{
		ColYear:        formatInt(p.Year),
		ColPeriod:      p.Period,
		ColName:        p.Name,
		ColDescription: p.Description,
		ColEstimate:    formatInt(p.Estimate),
		ColCategory:    p.CategoryTags,
		ColComments:    p.Comments,
		ColCreatedAt:   p.CreatedAt,
	}
}

// DeliverableFromRow reads a deliverable at position pos.
func DeliverableFromRow(pos int, r table.Row) Deliverable {
	return Deliverable{
		Position:        pos,
		Parent:          r.GetOr(ColParent, ""),
		Title:           r.GetOr(ColTitle, ""),
		Content:         r.GetOr(ColContent, ""),
		CategoryTags:    r.GetOr(ColCategory, ""),
		SubcategoryTags: r.GetOr(ColSubcategory, ""),
		Templates:       r.GetOr(ColTemplates, ""),
		CreatedAt:       r.GetOr(ColCreatedAt, ""),
	}
}

// Row renders d with the Entregables headers.
func (d Deliverable) Row() table.Row {
	return table.Row{
		ColParent:      d.Parent,
		ColTitle:       d.Title,
		ColContent:     d.Content,
		ColCategory:    d.CategoryTags,
		ColSubcategory: d.SubcategoryTags,
		ColTemplates:   d.Templates,
		ColCreatedAt:   d.CreatedAt,
	}
}

// Projects decodes every row of t.
func Projects(t *table.Table) []Project {
	out := make([]Project, 0, t.Len())
	if t == nil {
		return out
	}
	for _, r := range t.Rows {
		out = append(out, ProjectFromRow(r))
	}
	return out
}

// Deliverables decodes every row of t, keeping row positions.
func Deliverables(t *table.Table) []Deliverable {
	out := make([]Deliverable, 0, t.Len())
	if t == nil {
		return out
	}
	for i, r := range t.Rows {
		out = append(out, DeliverableFromRow(i, r))
	}
	return out
}

// ParseInt accepts "2023" and the "2023.0" spreadsheets produce; anything
// else is 0.
func ParseInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0
	}
	return int(f)
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
