package bootstrap

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/config"
	"github.com/pap-cedram/pap-backend/internal/catalog/cache"
	"github.com/pap-cedram/pap-backend/internal/catalog/labels"
	"github.com/pap-cedram/pap-backend/internal/catalog/service"
	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

// Catalog is the wired catalog service plus the connections it holds.
type Catalog struct {
	Service *service.CatalogService
	DB      *sql.DB
	Redis   *redis.Client
}

// OpenCatalog wires the catalog from cfg. Without DB_HOST tables live in
// memory; without REDIS_ADDR nothing is cached. An unreachable Redis is
// logged and skipped, an unreachable database is an error.
func OpenCatalog(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Catalog, error) {
	norm, err := loadNormalizer(cfg.Catalog.DictionaryPath)
	if err != nil {
		return nil, err
	}

	c := &Catalog{}
	var store table.Store
	if cfg.UsesDatabase() {
		db, pgStore, err := OpenDB(ctx, DBOptions{Config: cfg.Database})
		if err != nil {
			return nil, err
		}
		c.DB = db
		store = pgStore
	} else {
		log.Warn("DB_HOST not set, catalog tables are kept in memory")
		store = table.NewMemoryStore()
	}

	if cfg.UsesRedis() {
		client, err := OpenRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			c.Redis = client
		}
	}

	store = cache.NewTableCache(store, c.Redis, cfg.Cache.TableTTL)
	views := cache.NewViewCache(c.Redis, cfg.Cache.ViewTTL)
	c.Service = service.NewCatalogService(store, views, norm)
	return c, nil
}

// Close releases the connections.
func (c *Catalog) Close() {
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

func loadNormalizer(path string) (*labels.Normalizer, error) {
	if path == "" {
		return labels.Default(), nil
	}
	dict, err := labels.LoadDictionary(path)
	if err != nil {
		return nil, err
	}
	return labels.New(dict), nil
}
