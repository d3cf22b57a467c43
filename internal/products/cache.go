package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/redis"
)

const listVersionScope = "products"

// CacheStore is the slice of the Redis wrapper the list cache uses.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	CacheKey(parts ...string) string
	VersionKey(scope string) string
}

// ListCache memoizes product list pages. Writes bump a version counter that
// is part of every key, which orphans all cached pages at once. Cache errors
// never fail a request.
type ListCache struct {
	store CacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewListCache(store CacheStore, ttl time.Duration, logg *logger.Logger) *ListCache {
	return &ListCache{store: store, ttl: ttl, logg: logg}
}

func (c *ListCache) Get(ctx context.Context, input ListProductsInput) (*ProductListResult, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.key(ctx, input))
	if err != nil {
		if !redis.IsNil(err) {
			c.warn(ctx, err, "product list cache read failed")
		}
		return nil, false
	}
	var out ProductListResult
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		c.warn(ctx, err, "product list cache entry corrupt")
		return nil, false
	}
	return &out, true
}

func (c *ListCache) Put(ctx context.Context, input ListProductsInput, result *ProductListResult) {
	if c == nil || c.store == nil || result == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, c.key(ctx, input), payload, c.ttl); err != nil {
		c.warn(ctx, err, "product list cache write failed")
	}
}

// Invalidate bumps the list version.
func (c *ListCache) Invalidate(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}
	if _, err := c.store.Incr(ctx, c.store.VersionKey(listVersionScope)); err != nil {
		c.warn(ctx, err, "product list cache invalidation failed")
	}
}

func (c *ListCache) key(ctx context.Context, input ListProductsInput) string {
	version := "0"
	if v, err := c.store.Get(ctx, c.store.VersionKey(listVersionScope)); err == nil && v != "" {
		version = v
	}
	shop, category := "all", "all"
	if input.ShopID != nil {
		shop = input.ShopID.String()
	}
	if input.Category != nil {
		category = string(*input.Category)
	}
	return c.store.CacheKey(
		"products",
		"v"+version,
		shop,
		category,
		url.QueryEscape(input.Query),
		strconv.FormatBool(input.IncludeInactive),
		fmt.Sprintf("%d", input.Pagination.Limit),
		input.Pagination.Cursor,
	)
}

func (c *ListCache) warn(ctx context.Context, err error, msg string) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
