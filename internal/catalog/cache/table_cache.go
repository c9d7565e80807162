// Package cache fronts the catalog with Redis: a TTL cache of whole tables
// and a cache of computed views keyed by filter signature.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/internal/catalog/table"
	"github.com/pap-cedram/pap-backend/internal/logging"
)

const (
	tableKeyPrefix  = "pap:table:"       // pap:table:{name}
	epochKeyPrefix  = "pap:table-epoch:" // pap:table-epoch:{name}, bumped on every replace
	defaultTableTTL = 60 * time.Second
)

var errStaleFill = errors.New("table replaced during load")

// TableCache is a read-through, write-invalidate cache in front of a
// table.Store. Redis errors never fail a call; the store is authoritative.
// A miss fills the cache only if no Replace bumped the table's epoch while
// the store was being read.
type TableCache struct {
	store  table.Store
	client *redis.Client
	ttl    time.Duration
}

var _ table.Store = (*TableCache)(nil)

// NewTableCache wraps store. A nil client disables caching.
func NewTableCache(store table.Store, client *redis.Client, ttl time.Duration) *TableCache {
	if ttl <= 0 {
		ttl = defaultTableTTL
	}
	return &TableCache{store: store, client: client, ttl: ttl}
}

// Load serves name from Redis when cached, otherwise from the store.
func (c *TableCache) Load(ctx context.Context, name string) (*table.Table, error) {
	if c.client == nil {
		return c.store.Load(ctx, name)
	}

	log := logging.FromContext(ctx)
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	switch {
	case err == nil:
		var t table.Table
		if err := json.Unmarshal(data, &t); err == nil {
			return &t, nil
		}
		log.Warn("discarding undecodable cached table", zap.String("table", name))
	case !errors.Is(err, redis.Nil):
		log.Warn("table cache read failed", zap.String("table", name), zap.Error(err))
	}

	epoch, epochErr := epochValue(c.client.Get(ctx, c.epochKey(name)))
	t, err := c.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if epochErr == nil {
		c.fill(ctx, t, epoch)
	}
	return t, nil
}

// Replace writes through to the store, bumps the epoch and drops the
// cached copy.
func (c *TableCache) Replace(ctx context.Context, t *table.Table) error {
	if err := c.store.Replace(ctx, t); err != nil {
		return err
	}
	if c.client == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.epochKey(t.Name))
		pipe.Del(ctx, c.key(t.Name))
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Warn("table cache invalidation failed",
			zap.String("table", t.Name), zap.Error(err))
	}
	return nil
}

// fill caches t unless the epoch moved past the one read before the load.
func (c *TableCache) fill(ctx context.Context, t *table.Table, epoch int64) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	epochKey := c.epochKey(t.Name)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := epochValue(tx.Get(ctx, epochKey))
		if err != nil {
			return err
		}
		if current != epoch {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(t.Name), data, c.ttl)
			return nil
		})
		return err
	}, epochKey)

	log := logging.FromContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		log.Debug("skipping table cache fill", zap.String("table", t.Name))
	default:
		log.Warn("table cache write failed", zap.String("table", t.Name), zap.Error(err))
	}
}

func epochValue(cmd *redis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *TableCache) key(name string) string {
	return fmt.Sprintf("%s%s", tableKeyPrefix, name)
}

func (c *TableCache) epochKey(name string) string {
	return fmt.Sprintf("%s%s", epochKeyPrefix, name)
}
