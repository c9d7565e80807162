package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

const schema = `
	CREATE TABLE IF NOT EXISTS catalog_tables (
		name    TEXT PRIMARY KEY,
		columns TEXT[] NOT NULL,
		version BIGINT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS catalog_rows (
		table_name TEXT NOT NULL REFERENCES catalog_tables (name) ON DELETE CASCADE,
		position   INT NOT NULL,
		data       JSONB NOT NULL,
		PRIMARY KEY (table_name, position)
	);
`

// serialization_failure, raised when two transactions race on the same row
// under SERIALIZABLE or REPEATABLE READ.
const codeSerializationFailure = "40001"

// TableStore persists catalog tables as a header row plus one JSONB
// document per row.
type TableStore struct {
	db *sql.DB
}

// NewTableStore creates a new TableStore
func NewTableStore(db *sql.DB) *TableStore {
	return &TableStore{db: db}
}

// EnsureSchema creates the catalog tables if they do not exist.
func (s *TableStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return nil
}

// Load reads the named table. A table that was never written comes back
// empty with version 0.
func (s *TableStore) Load(ctx context.Context, name string) (*table.Table, error) {
	t := table.New(name)

	err := s.db.QueryRowContext(ctx,
		`SELECT columns, version FROM catalog_tables WHERE name = $1`, name,
	).Scan(pq.Array(&t.Columns), &t.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM catalog_rows WHERE table_name = $1 ORDER BY position`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		r := make(table.Row)
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to decode row of %s: %w", name, err)
		}
		t.Rows = append(t.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}

	return t, nil
}

// Replace overwrites the whole table in one transaction. A non-zero
// t.Version must equal the stored version; on success t.Version holds the
// new version.
func (s *TableStore) Replace(ctx context.Context, t *table.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := bumpVersion(ctx, tx, t)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_rows WHERE table_name = $1`, t.Name); err != nil {
		return fmt.Errorf("failed to clear rows of %s: %w", t.Name, err)
	}

	if len(t.Rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO catalog_rows (table_name, position, data)
			VALUES ($1, $2, $3)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, r := range t.Rows {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("failed to encode row %d of %s: %w", i, t.Name, err)
			}
			if _, err := stmt.ExecContext(ctx, t.Name, i, data); err != nil {
				return fmt.Errorf("failed to insert row %d of %s: %w", i, t.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", asOverwrite(err))
	}

	t.Version = version
	return nil
}

func bumpVersion(ctx context.Context, tx *sql.Tx, t *table.Table) (int64, error) {
	columns := t.Columns
	if columns == nil {
		columns = []string{}
	}

	var version int64
	if t.Version == 0 {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO catalog_tables (name, columns, version)
			VALUES ($1, $2, 1)
			ON CONFLICT (name) DO UPDATE SET
				columns = EXCLUDED.columns,
				version = catalog_tables.version + 1
			RETURNING version
		`, t.Name, pq.Array(columns)).Scan(&version)
		if err != nil {
			return 0, fmt.Errorf("failed to write header of %s: %w", t.Name, asOverwrite(err))
		}
		return version, nil
	}

	err := tx.QueryRowContext(ctx, `
		UPDATE catalog_tables
		SET columns = $2, version = version + 1
		WHERE name = $1 AND version = $3
		RETURNING version
	`, t.Name, pq.Array(columns), t.Version).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, table.ErrConcurrentOverwrite
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write header of %s: %w", t.Name, asOverwrite(err))
	}
	return version, nil
}

// asOverwrite maps serialization failures to table.ErrConcurrentOverwrite.
func asOverwrite(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeSerializationFailure {
		return table.ErrConcurrentOverwrite
	}
	return err
}
