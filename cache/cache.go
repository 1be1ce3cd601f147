// Package cache puts a read-through product cache in front of a catalog store.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/metrics"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
)

// ErrMiss is returned by a Backend when the key is absent.
var ErrMiss = errors.New("cache miss")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// tombstone marks a key whose product is being written. Reads skip the
// cache while it is present and fills never overwrite it.
var tombstone = []byte("\x00evicted")

const defaultFence = 5 * time.Second

// Catalog caches single-product reads. Every mutation of a product writes a
// tombstone over its entry before and after the store call, and cache fills
// use SET NX, so a read that raced a write cannot put the old document back.
// A fill that stalls for longer than the fence can still land stale.
type Catalog struct {
	services.CatalogStore

	backend Backend
	ttl     time.Duration
	fence   time.Duration
	lg      *zap.Logger
}

func NewCatalog(store services.CatalogStore, backend Backend, ttl time.Duration, lg *zap.Logger) *Catalog {
	return &Catalog{CatalogStore: store, backend: backend, ttl: ttl, fence: defaultFence, lg: lg}
}

func productKey(id primitive.ObjectID) string {
	return "product:" + id.Hex()
}

func (c *Catalog) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	key := productKey(id)
	fill := true
	data, err := c.backend.Get(ctx, key)
	switch {
	case err == nil && bytes.Equal(data, tombstone):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		fill = false
	case err == nil:
		var p models.Product
		if err := json.Unmarshal(data, &p); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &p, nil
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
		fill = false
	case errors.Is(err, ErrMiss):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.lg.Warn("Product cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := c.CatalogStore.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !fill {
		return p, nil
	}
	if data, err := json.Marshal(p); err == nil {
		if _, err := c.backend.SetNX(ctx, key, data, c.ttl); err != nil {
			c.lg.Warn("Product cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}

// evict fences the entries of ids for the fence duration.
func (c *Catalog) evict(ctx context.Context, ids ...primitive.ObjectID) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		key := productKey(id)
		if err := c.backend.Set(ctx, key, tombstone, c.fence); err != nil {
			c.lg.Warn("Product cache eviction failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (c *Catalog) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	c.evict(ctx, id)
	defer c.evict(ctx, id)
	return c.CatalogStore.UpdateProduct(ctx, id, patch)
}

func (c *Catalog) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	c.evict(ctx, id)
	defer c.evict(ctx, id)
	return c.CatalogStore.DeleteProduct(ctx, id)
}

func (c *Catalog) ReserveStock(ctx context.Context, id primitive.ObjectID, quantity int) (*models.Product, error) {
	c.evict(ctx, id)
	defer c.evict(ctx, id)
	return c.CatalogStore.ReserveStock(ctx, id, quantity)
}

func (c *Catalog) ReserveItems(ctx context.Context, items []models.StockRequest) ([]models.Product, error) {
	ids := make([]primitive.ObjectID, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	c.evict(ctx, ids...)
	defer c.evict(ctx, ids...)
	return c.CatalogStore.ReserveItems(ctx, items)
}

func (c *Catalog) ReleaseStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	c.evict(ctx, id)
	defer c.evict(ctx, id)
	return c.CatalogStore.ReleaseStock(ctx, id, quantity)
}

func (c *Catalog) RecordReview(ctx context.Context, id primitive.ObjectID, review models.Review) (*models.Product, error) {
	c.evict(ctx, id)
	defer c.evict(ctx, id)
	return c.CatalogStore.RecordReview(ctx, id, review)
}
