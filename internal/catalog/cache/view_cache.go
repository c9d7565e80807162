package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/internal/logging"
)

const (
	viewKeyPrefix  = "pap:view:"    // pap:view:{generation}:{kind}:{signature}
	generationKey  = "pap:view:gen" // bumped on every catalog write
	defaultViewTTL = 5 * time.Minute
)

// View kinds.
const (
	KindSearch  = "search"
	KindOptions = "options"
	KindStats   = "stats"
)

// ViewCache memoizes computed views. Entries are never deleted one by one;
// Invalidate moves every reader to a new generation and the old entries
// expire on their own.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewViewCache returns a view cache. A nil client makes every lookup miss.
func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &ViewCache{client: client, ttl: ttl}
}

// Generation is the view generation observed at one moment. Views are
// read and stored under it, so a view computed from tables loaded after
// Current returned can never outlive a write that lands meanwhile.
type Generation struct {
	c  *ViewCache
	n  int64
	ok bool
}

// Current reads the generation. Call it before loading the inputs of a view.
func (c *ViewCache) Current(ctx context.Context) Generation {
	if c == nil || c.client == nil {
		return Generation{}
	}
	n, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		n, err = 0, nil
	}
	if err != nil {
		logging.FromContext(ctx).Warn("view generation read failed", zap.Error(err))
		return Generation{}
	}
	return Generation{c: c, n: n, ok: true}
}

// Get decodes the cached view of kind for signature into dst and reports
// whether it was found.
func (g Generation) Get(ctx context.Context, kind, signature string, dst any) bool {
	if !g.ok {
		return false
	}
	data, err := g.c.client.Get(ctx, g.key(kind, signature)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).Warn("view cache read failed", zap.String("kind", kind), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Put stores v as the view of kind for signature.
func (g Generation) Put(ctx context.Context, kind, signature string, v any) {
	if !g.ok {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := g.c.client.Set(ctx, g.key(kind, signature), data, g.c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("view cache write failed", zap.String("kind", kind), zap.Error(err))
	}
}

func (g Generation) key(kind, signature string) string {
	return fmt.Sprintf("%s%d:%s:%s", viewKeyPrefix, g.n, kind, signature)
}

// Invalidate drops every cached view.
func (c *ViewCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate views: %w", err)
	}
	return nil
}
