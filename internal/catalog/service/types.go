package service

import (
	"github.com/pap-cedram/pap-backend/internal/catalog/domain"
)

// NewProject is the input of CreateProject. Categories may hold raw,
// misspelled or comma-joined labels; they are normalized on write.
type NewProject struct {
	Year        int      `json:"year"`
	Period      string   `json:"period"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Estimate    int      `json:"estimated_deliverable_count"`
	Categories  []string `json:"categories"`
	Comments    string   `json:"comments"`
}

// NewDeliverable is the input of AddDeliverable. The category is not part
// of it: a deliverable inherits its parent's category.
type NewDeliverable struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Subcategories []string `json:"subcategories"`
	Templates     string   `json:"templates"`
}

// ProjectEdit changes the non-nil fields of the project called Name.
type ProjectEdit struct {
	Name        string    `json:"name"`
	NewName     *string   `json:"new_name,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Period      *string   `json:"period,omitempty"`
	Description *string   `json:"description,omitempty"`
	Estimate    *int      `json:"estimated_deliverable_count,omitempty"`
	Categories  *[]string `json:"categories,omitempty"`
	Comments    *string   `json:"comments,omitempty"`
}

// DeliverableEdit changes the non-nil fields of the deliverable at Position.
type DeliverableEdit struct {
	Position      int       `json:"position"`
	Parent        *string   `json:"parent_project_name,omitempty"`
	Title         *string   `json:"title,omitempty"`
	Content       *string   `json:"content,omitempty"`
	Subcategories *[]string `json:"subcategories,omitempty"`
	Templates     *string   `json:"templates,omitempty"`
}

// AuditReport lists integrity problems found in the stored tables.
type AuditReport struct {
	Orphans        []domain.Deliverable        `json:"orphans"`
	DuplicateNames []string                    `json:"duplicate_names"`
	MissingColumns []domain.MissingColumnError `json:"missing_columns"`
	// NonCanonical counts cells Renormalize would rewrite.
	NonCanonical int `json:"non_canonical"`
}

// Clean reports whether the audit found nothing.
func (r AuditReport) Clean() bool {
	return len(r.Orphans) == 0 && len(r.DuplicateNames) == 0 &&
		len(r.MissingColumns) == 0 && r.NonCanonical == 0
}

// Vocabulary is the fixed set of labels offered to users.
type Vocabulary struct {
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	Periods       []string `json:"periods"`
}
