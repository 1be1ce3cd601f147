package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/database/memory"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

type fixture struct {
	store   *memory.Store
	orders  *OrderService
	catalog *CatalogService
	carts   *CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	lg := zap.NewNop()
	return &fixture{
		store:   store,
		orders:  NewOrderService(store, store, lg),
		catalog: NewCatalogService(store, 10, lg),
		carts:   NewCartService(store, store, lg),
	}
}

func (f *fixture) seed(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Category:    models.CategorySoap,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsActive:    true,
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

var testAddress = models.ShippingAddress{
	Street:     "12 MG Road",
	City:       "Pune",
	State:      "MH",
	Country:    "India",
	PostalCode: "411001",
	Phone:      "9999999999",
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
