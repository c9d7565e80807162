package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pap-cedram/pap-backend/config"
	"github.com/pap-cedram/pap-backend/internal/storage/postgres"
)

type DBOptions struct {
	Config    config.DatabaseConfig
	ConnectTO time.Duration
}

// OpenDB connects to Postgres and makes sure the catalog schema exists.
func OpenDB(ctx context.Context, opt DBOptions) (*sql.DB, *postgres.TableStore, error) {
	if opt.Config.Host == "" {
		return nil, nil, fmt.Errorf("DB_HOST is not set")
	}
	if opt.ConnectTO == 0 {
		opt.ConnectTO = 5 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
	defer cancel()

	db, err := postgres.NewConnection(cctx, &opt.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}

	store := postgres.NewTableStore(db)
	if err := store.EnsureSchema(cctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, store, nil
}
