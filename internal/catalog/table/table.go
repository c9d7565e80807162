// Package table models the two flat catalog tables as ordered rows of
// optional fields. The schema is not fixed: a column may be absent from a
// snapshot, so every read goes through Get or GetOr.
package table

import (
	"context"
	"slices"
	"strings"
)

// Names of the catalog tables.
const (
	Projects     = "Proyectos"
	Deliverables = "Entregables"
)

// Row is one record keyed by column header.
type Row map[string]string

// Get returns the trimmed value of col and whether the row has it.
func (r Row) Get(col string) (string, bool) {
	v, ok := r[col]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// GetOr returns the value of col, or def when absent or blank.
func (r Row) GetOr(col, def string) string {
	if v, ok := r.Get(col); ok && v != "" {
		return v
	}
	return def
}

// Clone returns a copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is a named, ordered set of rows. Version increases on every
// replace; zero means the table has never been written.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Version int64    `json:"version"`
}

// New returns an empty table.
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: slices.Clone(columns)}
}

// HasColumn reports whether col is part of the table schema.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	return slices.Contains(t.Columns, col)
}

// Len returns the row count; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds r and extends the schema with any column it introduces.
func (t *Table) Append(r Row) {
	t.addColumns(r)
	t.Rows = append(t.Rows, r)
}

// Filter returns a copy of t holding only rows for which keep is true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Name: t.Name, Columns: slices.Clone(t.Columns), Version: t.Version}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	return t.Filter(func(Row) bool { return true })
}

func (t *Table) addColumns(r Row) {
	extra := make([]string, 0)
	for k := range r {
		if !slices.Contains(t.Columns, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	t.Columns = append(t.Columns, extra...)
}

// Source loads whole tables. Loading an unknown table yields an empty
// table, not an error.
type Source interface {
	Load(ctx context.Context, name string) (*Table, error)
}

// Sink replaces whole tables. A non-zero t.Version must match the stored
// version or the write is refused.
type Sink interface {
	Replace(ctx context.Context, t *Table) error
}

// Store is both ends of the table boundary.
type Store interface {
	Source
	Sink
}
