package service

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/internal/catalog/domain"
	"github.com/pap-cedram/pap-backend/internal/catalog/filter"
	"github.com/pap-cedram/pap-backend/internal/catalog/labels"
	"github.com/pap-cedram/pap-backend/internal/catalog/table"
	"github.com/pap-cedram/pap-backend/internal/logging"
)

// Renormalize rewrites every tag and period cell in canonical form and
// returns the number of cells that changed. Tables without changes are not
// written.
func (s *CatalogService) Renormalize(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, deliverables, err := s.loadBoth(ctx)
	if err != nil {
		return 0, err
	}

	changedProjects := s.canonicalize(projects, true)
	changedDeliverables := s.canonicalize(deliverables, true)

	if changedProjects > 0 {
		if err := s.store.Replace(ctx, projects); err != nil {
			return 0, fmt.Errorf("failed to save projects: %w", err)
		}
	}
	if changedDeliverables > 0 {
		if err := s.store.Replace(ctx, deliverables); err != nil {
			s.invalidate(ctx)
			return changedProjects, fmt.Errorf("failed to save deliverables: %w", err)
		}
	}

	total := changedProjects + changedDeliverables
	if total > 0 {
		s.invalidate(ctx)
	}
	logging.FromContext(ctx).Info("tables renormalized", zap.Int("changed_cells", total))
	return total, nil
}

// Audit inspects the stored tables without modifying them.
func (s *CatalogService) Audit(ctx context.Context) (AuditReport, error) {
	projects, deliverables, err := s.loadBoth(ctx)
	if err != nil {
		return AuditReport{}, err
	}

	report := AuditReport{
		DuplicateNames: duplicateNames(projects),
		MissingColumns: append(
			missingColumns(projects, domain.ProjectColumns),
			missingColumns(deliverables, domain.DeliverableColumns)...,
		),
		NonCanonical: s.canonicalize(projects.Clone(), false) + s.canonicalize(deliverables.Clone(), false),
	}
	if deliverables.HasColumn(domain.ColParent) {
		report.Orphans = filter.Orphans(domain.Projects(projects), domain.Deliverables(deliverables))
	} else {
		report.Orphans = []domain.Deliverable{}
	}

	log := logging.FromContext(ctx)
	for _, d := range report.Orphans {
		log.Warn("orphan deliverable",
			zap.Int("position", d.Position), zap.String("parent", d.Parent), zap.String("deliverable", d.Title))
	}
	for _, name := range report.DuplicateNames {
		log.Warn("duplicate project name", zap.String("project", name))
	}
	for _, m := range report.MissingColumns {
		log.Warn("missing column", zap.String("table", m.Table), zap.String("column", m.Column))
	}
	return report, nil
}

func (s *CatalogService) loadBoth(ctx context.Context) (*table.Table, *table.Table, error) {
	projects, err := s.store.Load(ctx, table.Projects)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load projects: %w", err)
	}
	deliverables, err := s.store.Load(ctx, table.Deliverables)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load deliverables: %w", err)
	}
	return projects, deliverables, nil
}

// canonicalize counts the tag and period cells of t that are not in
// canonical form, rewriting them when write is set.
func (s *CatalogService) canonicalize(t *table.Table, write bool) int {
	var fixers []cellFixer
	for _, col := range []string{domain.ColCategory, domain.ColSubcategory} {
		if t.HasColumn(col) {
			fixers = append(fixers, cellFixer{col, s.norm.Normalize})
		}
	}
	if t.HasColumn(domain.ColPeriod) {
		fixers = append(fixers, cellFixer{domain.ColPeriod, labels.CanonicalPeriod})
	}

	changed := 0
	for _, r := range t.Rows {
		for _, f := range fixers {
			v, ok := r[f.column]
			if !ok {
				continue
			}
			if fixed := f.fix(v); fixed != v {
				changed++
				if write {
					r[f.column] = fixed
				}
			}
		}
	}
	return changed
}

type cellFixer struct {
	column string
	fix    func(string) string
}

func duplicateNames(t *table.Table) []string {
	seen := make(map[string]int)
	for _, p := range domain.Projects(t) {
		if p.Name != "" {
			seen[p.Name]++
		}
	}
	out := make([]string, 0)
	for name, n := range seen {
		if n > 1 {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func missingColumns(t *table.Table, want []string) []domain.MissingColumnError {
	out := make([]domain.MissingColumnError, 0)
	for _, col := range want {
		if !t.HasColumn(col) {
			out = append(out, domain.MissingColumnError{Table: t.Name, Column: col})
		}
	}
	return out
}
