package domain

import (
	"errors"
	"fmt"

	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

var (
	ErrDuplicateName       = errors.New("a project with that name already exists")
	ErrProjectNotFound     = errors.New("project not found")
	ErrNameRequired        = errors.New("project name is required")
	ErrInvalidYear         = fmt.Errorf("year must be between %d and %d", MinYear, MaxYear)
	ErrInvalidPeriod       = errors.New("unknown period")
	ErrInvalidEstimate     = errors.New("estimated deliverable count must be at least 1")
	ErrTitleRequired       = errors.New("deliverable title is required")
	ErrRowOutOfRange       = errors.New("row position out of range")
	ErrImmutableName       = errors.New("project name cannot be edited")
	ErrConcurrentOverwrite = table.ErrConcurrentOverwrite
)

// MissingColumnError flags a filter dimension disabled because its backing
// column is absent from the loaded table.
type MissingColumnError struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

func (e MissingColumnError) Error() string {
	return fmt.Sprintf("column %q missing from table %q", e.Column, e.Table)
}
