package table

import (
	"context"
	"errors"
	"sync"
)

// ErrConcurrentOverwrite is returned when a replace is based on a stale version.
var ErrConcurrentOverwrite = errors.New("table was modified concurrently")

// MemoryStore keeps tables in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewMemoryStore returns a store seeded with copies of tables.
func NewMemoryStore(tables ...*Table) *MemoryStore {
	s := &MemoryStore{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		c := t.Clone()
		if c.Version == 0 {
			c.Version = 1
		}
		s.tables[t.Name] = c
	}
	return s
}

// Load returns a copy of the named table.
func (s *MemoryStore) Load(ctx context.Context, name string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return New(name), nil
	}
	return t.Clone(), nil
}

// Replace stores a copy of t and bumps its version.
func (s *MemoryStore) Replace(ctx context.Context, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if existing, ok := s.tables[t.Name]; ok {
		current = existing.Version
	}
	if t.Version != 0 && t.Version != current {
		return ErrConcurrentOverwrite
	}

	c := t.Clone()
	c.Version = current + 1
	s.tables[t.Name] = c
	t.Version = c.Version
	return nil
}
