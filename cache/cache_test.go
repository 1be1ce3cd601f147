package cache

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/database/memory"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
)

type entry struct {
	value   []byte
	expires time.Time
}

type mapBackend struct {
	mu   sync.Mutex
	data map[string]entry
}

func newMapBackend() *mapBackend {
	return &mapBackend{data: make(map[string]entry)}
}

func (m *mapBackend) lookup(key string) ([]byte, bool) {
	e, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(m.data, key)
		return nil, false
	}
	return e.value, true
}

func (m *mapBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lookup(key)
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *mapBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entry{value: value, expires: time.Now().Add(ttl)}
	return nil
}

func (m *mapBackend) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(key); ok {
		return false, nil
	}
	m.data[key] = entry{value: value, expires: time.Now().Add(ttl)}
	return true, nil
}

// cached reports whether key holds a product document.
func (m *mapBackend) cached(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lookup(key)
	return ok && !bytes.Equal(v, tombstone)
}

func newProduct(t *testing.T, store *memory.Store) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        "Neem Soap",
		Category:    models.CategorySoap,
		Description: "Soap",
		Price:       decimal.RequireFromString("120.50"),
		Stock:       5,
		IsActive:    true,
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p
}

func setup(t *testing.T) (*Catalog, *mapBackend, *models.Product) {
	t.Helper()
	store := memory.New()
	p := newProduct(t, store)
	backend := newMapBackend()
	return NewCatalog(store, backend, time.Minute, zap.NewNop()), backend, p
}

func TestCatalog_ReadThrough(t *testing.T) {
	c, backend, p := setup(t)
	ctx := context.Background()

	got, err := c.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, backend.cached(productKey(p.ID)))

	cached, err := c.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, cached.ID)
	assert.True(t, got.Price.Equal(cached.Price))
	assert.Equal(t, 5, cached.Stock)
}

func TestCatalog_MutationsEvict(t *testing.T) {
	c, backend, p := setup(t)
	ctx := context.Background()
	key := productKey(p.ID)

	_, err := c.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	_, err = c.ReserveItems(ctx, []models.StockRequest{{ProductID: p.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.False(t, backend.cached(key))

	got, err := c.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.False(t, backend.cached(key), "fenced keys are not refilled")

	require.NoError(t, c.ReleaseStock(ctx, p.ID, 1))
	assert.False(t, backend.cached(key))

	_, err = c.RecordReview(ctx, p.ID, models.Review{
		UserID: primitive.NewObjectID(), UserName: "Asha", Rating: 5, Comment: "Great",
	})
	require.NoError(t, err)
	got, err = c.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumReviews)

	require.NoError(t, c.DeleteProduct(ctx, p.ID))
	_, err = c.GetProduct(ctx, p.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCatalog_RefillsAfterFence(t *testing.T) {
	c, backend, p := setup(t)
	c.fence = 10 * time.Millisecond
	ctx := context.Background()
	key := productKey(p.ID)

	_, err := c.ReserveStock(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, backend.cached(key))

	time.Sleep(20 * time.Millisecond)
	got, err := c.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
	assert.True(t, backend.cached(key))
}

func TestCatalog_NotFoundIsNotCached(t *testing.T) {
	c, backend, _ := setup(t)
	id := primitive.NewObjectID()

	_, err := c.GetProduct(context.Background(), id)
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, backend.cached(productKey(id)))
}

// slowReads holds its first GetProduct after the store read until release
// is closed.
type slowReads struct {
	services.CatalogStore

	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (s *slowReads) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.CatalogStore.GetProduct(ctx, id)
	s.once.Do(func() {
		close(s.read)
		<-s.release
	})
	return p, err
}

func TestCatalog_ReadRacingWriteDoesNotCacheOldStock(t *testing.T) {
	store := memory.New()
	p := newProduct(t, store)
	slow := &slowReads{CatalogStore: store, read: make(chan struct{}), release: make(chan struct{})}
	c := NewCatalog(slow, newMapBackend(), time.Minute, zap.NewNop())
	ctx := context.Background()

	type result struct {
		p   *models.Product
		err error
	}
	done := make(chan result, 1)
	go func() {
		got, err := c.GetProduct(ctx, p.ID)
		done <- result{got, err}
	}()

	<-slow.read
	_, err := c.ReserveStock(ctx, p.ID, 5)
	require.NoError(t, err)
	close(slow.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, 5, first.p.Stock)

	got, err := c.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.False(t, got.IsActive)
}
