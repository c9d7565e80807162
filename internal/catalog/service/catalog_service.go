package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/internal/catalog/cache"
	"github.com/pap-cedram/pap-backend/internal/catalog/domain"
	"github.com/pap-cedram/pap-backend/internal/catalog/filter"
	"github.com/pap-cedram/pap-backend/internal/catalog/labels"
	"github.com/pap-cedram/pap-backend/internal/catalog/table"
	"github.com/pap-cedram/pap-backend/internal/logging"
)

// CatalogService owns the project and deliverable tables. Every write is a
// load, modify, replace cycle; writes from this process are serialized and
// writes from other processes are caught by the store's version check.
type CatalogService struct {
	store  table.Store
	views  *cache.ViewCache
	norm   *labels.Normalizer
	engine *filter.Engine
	now    func() time.Time

	mu sync.Mutex
}

// NewCatalogService creates a new catalog service. views and norm may be nil.
func NewCatalogService(store table.Store, views *cache.ViewCache, norm *labels.Normalizer) *CatalogService {
	if norm == nil {
		norm = labels.Default()
	}
	return &CatalogService{
		store:  store,
		views:  views,
		norm:   norm,
		engine: filter.New(norm),
		now:    time.Now,
	}
}

// CreateProject validates and appends a project. An existing project with
// the same name is never overwritten.
func (s *CatalogService) CreateProject(ctx context.Context, in NewProject) (*domain.Project, error) {
	p := domain.Project{
		Year:         in.Year,
		Period:       labels.CanonicalPeriod(in.Period),
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Estimate:     in.Estimate,
		CategoryTags: s.norm.Normalize(strings.Join(in.Categories, ",")),
		Comments:     strings.TrimSpace(in.Comments),
	}
	if err := validateProject(p, in.Period); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.Load(ctx, table.Projects)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	if _, ok := findProject(projects, p.Name); ok {
		return nil, domain.ErrDuplicateName
	}

	p.CreatedAt = s.now().Format(domain.TimeLayout)
	ensureColumns(projects, domain.ProjectColumns)
	projects.Append(p.Row())
	if err := s.store.Replace(ctx, projects); err != nil {
		return nil, fmt.Errorf("failed to save projects: %w", err)
	}
	s.invalidate(ctx)

	logging.FromContext(ctx).Info("project created", zap.String("project", p.Name), zap.Int("year", p.Year))
	return &p, nil
}

// AddDeliverable appends a deliverable under parent. The category is copied
// from the parent at creation time and not kept in sync afterwards.
func (s *CatalogService) AddDeliverable(ctx context.Context, parent string, in NewDeliverable) (*domain.Deliverable, error) {
	d := domain.Deliverable{
		Parent:          strings.TrimSpace(parent),
		Title:           strings.TrimSpace(in.Title),
		Content:         strings.TrimSpace(in.Content),
		SubcategoryTags: s.norm.Normalize(strings.Join(in.Subcategories, ",")),
		Templates:       strings.TrimSpace(in.Templates),
	}
	if d.Title == "" {
		return nil, domain.ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.Load(ctx, table.Projects)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	idx, ok := findProject(projects, d.Parent)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	d.CategoryTags = domain.ProjectFromRow(projects.Rows[idx]).CategoryTags

	deliverables, err := s.store.Load(ctx, table.Deliverables)
	if err != nil {
		return nil, fmt.Errorf("failed to load deliverables: %w", err)
	}

	d.Position = deliverables.Len()
	d.CreatedAt = s.now().Format(domain.TimeLayout)
	ensureColumns(deliverables, domain.DeliverableColumns)
	deliverables.Append(d.Row())
	if err := s.store.Replace(ctx, deliverables); err != nil {
		return nil, fmt.Errorf("failed to save deliverables: %w", err)
	}
	s.invalidate(ctx)

	logging.FromContext(ctx).Info("deliverable added",
		zap.String("project", d.Parent), zap.String("deliverable", d.Title))
	return &d, nil
}

// UpdateProjects applies edits as one write. Either every edit is valid
// and saved, or none is.
func (s *CatalogService) UpdateProjects(ctx context.Context, edits []ProjectEdit) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.Load(ctx, table.Projects)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	updated := make([]domain.Project, 0, len(edits))
	for _, e := range edits {
		name := strings.TrimSpace(e.Name)
		if e.NewName != nil && strings.TrimSpace(*e.NewName) != name {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrImmutableName)
		}
		idx, ok := findProject(projects, name)
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrProjectNotFound)
		}

		row := projects.Rows[idx]
		p := domain.ProjectFromRow(row)
		rawPeriod := p.Period
		if e.Year != nil {
			p.Year = *e.Year
			row[domain.ColYear] = p.Row()[domain.ColYear]
		}
		if e.Period != nil {
			rawPeriod = *e.Period
			p.Period = labels.CanonicalPeriod(rawPeriod)
			row[domain.ColPeriod] = p.Period
		}
		if e.Description != nil {
			p.Description = strings.TrimSpace(*e.Description)
			row[domain.ColDescription] = p.Description
		}
		if e.Estimate != nil {
			p.Estimate = *e.Estimate
			row[domain.ColEstimate] = p.Row()[domain.ColEstimate]
		}
		if e.Categories != nil {
			p.CategoryTags = s.norm.Normalize(strings.Join(*e.Categories, ","))
			row[domain.ColCategory] = p.CategoryTags
		}
		if e.Comments != nil {
			p.Comments = strings.TrimSpace(*e.Comments)
			row[domain.ColComments] = p.Comments
		}
		if err := validateEdit(p, e, rawPeriod); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		updated = append(updated, p)
	}
	if len(updated) == 0 {
		return updated, nil
	}

	projects.Columns = mergeColumns(projects.Columns, domain.ProjectColumns)
	if err := s.store.Replace(ctx, projects); err != nil {
		return nil, fmt.Errorf("failed to save projects: %w", err)
	}
	s.invalidate(ctx)

	logging.FromContext(ctx).Info("projects updated", zap.Int("count", len(updated)))
	return updated, nil
}

// UpdateDeliverables applies edits keyed by row position as one write.
func (s *CatalogService) UpdateDeliverables(ctx context.Context, edits []DeliverableEdit) ([]domain.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deliverables, err := s.store.Load(ctx, table.Deliverables)
	if err != nil {
		return nil, fmt.Errorf("failed to load deliverables: %w", err)
	}

	var projects *table.Table
	updated := make([]domain.Deliverable, 0, len(edits))
	for _, e := range edits {
		if e.Position < 0 || e.Position >= deliverables.Len() {
			return nil, fmt.Errorf("position %d: %w", e.Position, domain.ErrRowOutOfRange)
		}

		row := deliverables.Rows[e.Position]
		if e.Parent != nil {
			if projects == nil {
				if projects, err = s.store.Load(ctx, table.Projects); err != nil {
					return nil, fmt.Errorf("failed to load projects: %w", err)
				}
			}
			parent := strings.TrimSpace(*e.Parent)
			if _, ok := findProject(projects, parent); !ok {
				return nil, fmt.Errorf("position %d: %w", e.Position, domain.ErrProjectNotFound)
			}
			row[domain.ColParent] = parent
		}
		if e.Title != nil {
			title := strings.TrimSpace(*e.Title)
			if title == "" {
				return nil, fmt.Errorf("position %d: %w", e.Position, domain.ErrTitleRequired)
			}
			row[domain.ColTitle] = title
		}
		if e.Content != nil {
			row[domain.ColContent] = strings.TrimSpace(*e.Content)
		}
		if e.Subcategories != nil {
			row[domain.ColSubcategory] = s.norm.Normalize(strings.Join(*e.Subcategories, ","))
		}
		if e.Templates != nil {
			row[domain.ColTemplates] = strings.TrimSpace(*e.Templates)
		}
		updated = append(updated, domain.DeliverableFromRow(e.Position, row))
	}
	if len(updated) == 0 {
		return updated, nil
	}

	deliverables.Columns = mergeColumns(deliverables.Columns, domain.DeliverableColumns)
	if err := s.store.Replace(ctx, deliverables); err != nil {
		return nil, fmt.Errorf("failed to save deliverables: %w", err)
	}
	s.invalidate(ctx)

	logging.FromContext(ctx).Info("deliverables updated", zap.Int("count", len(updated)))
	return updated, nil
}

// DeleteProject removes the project called name together with every
// deliverable whose parent it is, and returns how many deliverables went
// with it. Projects are written first, so a failure in between can only
// leave orphans behind, which reads already ignore.
func (s *CatalogService) DeleteProject(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.store.Load(ctx, table.Projects)
	if err != nil {
		return 0, fmt.Errorf("failed to load projects: %w", err)
	}
	if _, ok := findProject(projects, name); !ok {
		return 0, domain.ErrProjectNotFound
	}
	deliverables, err := s.store.Load(ctx, table.Deliverables)
	if err != nil {
		return 0, fmt.Errorf("failed to load deliverables: %w", err)
	}

	keptProjects := projects.Filter(func(r table.Row) bool { return r.GetOr(domain.ColName, "") != name })
	if err := s.store.Replace(ctx, keptProjects); err != nil {
		return 0, fmt.Errorf("failed to save projects: %w", err)
	}

	keptDeliverables := deliverables.Filter(func(r table.Row) bool { return r.GetOr(domain.ColParent, "") != name })
	removed := deliverables.Len() - keptDeliverables.Len()
	if removed > 0 {
		if err := s.store.Replace(ctx, keptDeliverables); err != nil {
			s.invalidate(ctx)
			return 0, fmt.Errorf("failed to save deliverables: %w", err)
		}
	}
	s.invalidate(ctx)

	logging.FromContext(ctx).Info("project deleted",
		zap.String("project", name), zap.Int("deliverables", removed))
	return removed, nil
}

// Search returns the projects and deliverables visible under sel.
func (s *CatalogService) Search(ctx context.Context, sel filter.Selection) (filter.Result, error) {
	var res filter.Result
	gen := s.views.Current(ctx)
	if gen.Get(ctx, cache.KindSearch, sel.Signature(), &res) {
		return res, nil
	}
	in, err := s.input(ctx)
	if err != nil {
		return filter.Result{}, err
	}
	res = s.engine.Apply(in, sel)
	s.reportInactive(ctx, res.Inactive)
	gen.Put(ctx, cache.KindSearch, sel.Signature(), res)
	return res, nil
}

// Options returns the cascade option lists for sel.
func (s *CatalogService) Options(ctx context.Context, sel filter.Selection) (filter.Options, error) {
	var opts filter.Options
	gen := s.views.Current(ctx)
	if gen.Get(ctx, cache.KindOptions, sel.Signature(), &opts) {
		return opts, nil
	}
	in, err := s.input(ctx)
	if err != nil {
		return filter.Options{}, err
	}
	opts = s.engine.Options(in, sel)
	gen.Put(ctx, cache.KindOptions, sel.Signature(), opts)
	return opts, nil
}

// Stats returns the aggregate counts of the rows visible under sel.
func (s *CatalogService) Stats(ctx context.Context, sel filter.Selection) (filter.Stats, error) {
	var stats filter.Stats
	gen := s.views.Current(ctx)
	if gen.Get(ctx, cache.KindStats, sel.Signature(), &stats) {
		return stats, nil
	}
	res, err := s.Search(ctx, sel)
	if err != nil {
		return filter.Stats{}, err
	}
	stats = s.engine.Summarize(res)
	gen.Put(ctx, cache.KindStats, sel.Signature(), stats)
	return stats, nil
}

// NormalizeLabels returns the canonical form of raw and its tags.
func (s *CatalogService) NormalizeLabels(raw string) (string, []string) {
	tags := s.norm.Tags(raw)
	if tags == nil {
		tags = []string{}
	}
	return strings.Join(tags, labels.Separator), tags
}

// Vocabulary returns the fixed label sets.
func (s *CatalogService) Vocabulary() Vocabulary {
	return Vocabulary{
		Categories:    slices.Clone(labels.Categories),
		Subcategories: slices.Clone(labels.Subcategories),
		Periods:       slices.Clone(labels.Periods),
	}
}

// input loads both tables for a read. A failed load is retried once and
// then served as an empty table, so reads never fail on a flaky store.
func (s *CatalogService) input(ctx context.Context) (filter.Input, error) {
	projects, err := s.loadForRead(ctx, table.Projects)
	if err != nil {
		return filter.Input{}, err
	}
	deliverables, err := s.loadForRead(ctx, table.Deliverables)
	if err != nil {
		return filter.Input{}, err
	}
	return filter.Input{Projects: projects, Deliverables: deliverables}, nil
}

func (s *CatalogService) loadForRead(ctx context.Context, name string) (*table.Table, error) {
	t, err := s.store.Load(ctx, name)
	if err == nil {
		return t, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	log := logging.FromContext(ctx)
	log.Warn("table load failed, retrying", zap.String("table", name), zap.Error(err))

	if t, err = s.store.Load(ctx, name); err == nil {
		return t, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	log.Warn("serving empty table", zap.String("table", name), zap.Error(err))
	return table.New(name), nil
}

func (s *CatalogService) reportInactive(ctx context.Context, inactive []domain.MissingColumnError) {
	log := logging.FromContext(ctx)
	for _, m := range inactive {
		log.Warn("filter dimension disabled", zap.String("table", m.Table), zap.String("column", m.Column))
	}
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.views.Invalidate(ctx); err != nil {
		logging.FromContext(ctx).Warn("view invalidation failed", zap.Error(err))
	}
}

func validateProject(p domain.Project, rawPeriod string) error {
	if p.Name == "" {
		return domain.ErrNameRequired
	}
	if p.Year < domain.MinYear || p.Year > domain.MaxYear {
		return domain.ErrInvalidYear
	}
	if !labels.IsPeriod(rawPeriod) {
		return domain.ErrInvalidPeriod
	}
	if p.Estimate < 1 {
		return domain.ErrInvalidEstimate
	}
	return nil
}

// validateEdit checks only the fields an edit touches, so legacy rows with
// out-of-range values can still have other fields corrected.
func validateEdit(p domain.Project, e ProjectEdit, rawPeriod string) error {
	if e.Year != nil && (p.Year < domain.MinYear || p.Year > domain.MaxYear) {
		return domain.ErrInvalidYear
	}
	if e.Period != nil && !labels.IsPeriod(rawPeriod) {
		return domain.ErrInvalidPeriod
	}
	if e.Estimate != nil && p.Estimate < 1 {
		return domain.ErrInvalidEstimate
	}
	return nil
}

func findProject(t *table.Table, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i, r := range t.Rows {
		if r.GetOr(domain.ColName, "") == name {
			return i, true
		}
	}
	return 0, false
}

// ensureColumns gives a table that was never written its full header.
func ensureColumns(t *table.Table, cols []string) {
	t.Columns = mergeColumns(t.Columns, cols)
}

func mergeColumns(have, want []string) []string {
	out := slices.Clone(have)
	for _, c := range want {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
