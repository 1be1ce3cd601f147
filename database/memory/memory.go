// Package memory is an in-process implementation of the storefront stores.
// A single mutex serialises every mutation, which gives the same per-product
// atomicity the Mongo stores get from conditional updates, and makes
// ReserveItems all-or-nothing.
package memory

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

type Store struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]*models.Product
	orders   map[primitive.ObjectID]*models.Order
	users    map[primitive.ObjectID]*models.User
	carts    map[primitive.ObjectID]*models.Cart

	// insertion order, used to break CreatedAt ties
	productSeq []primitive.ObjectID
	orderSeq   []primitive.ObjectID

	// Now is the store clock.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		products: make(map[primitive.ObjectID]*models.Product),
		orders:   make(map[primitive.ObjectID]*models.Order),
		users:    make(map[primitive.ObjectID]*models.User),
		carts:    make(map[primitive.ObjectID]*models.Cart),
		Now:      time.Now,
	}
}

func cloneProduct(p *models.Product) *models.Product {
	c := *p
	c.Ingredients = slices.Clone(p.Ingredients)
	c.SkinType = slices.Clone(p.SkinType)
	c.HairType = slices.Clone(p.HairType)
	c.Images = slices.Clone(p.Images)
	c.Reviews = slices.Clone(p.Reviews)
	return &c
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.OrderItems = slices.Clone(o.OrderItems)
	return &c
}

func cloneCart(c *models.Cart) *models.Cart {
	out := *c
	out.Items = slices.Clone(c.Items)
	return &out
}

// newest returns ids ordered newest first by created, later inserts first on ties.
func newest(seq []primitive.ObjectID, created func(primitive.ObjectID) time.Time) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(seq))
	for i := len(seq) - 1; i >= 0; i-- {
		ids = append(ids, seq[i])
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return created(ids[i]).After(created(ids[j]))
	})
	return ids
}

func removeID(seq []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	return slices.DeleteFunc(seq, func(x primitive.ObjectID) bool { return x == id })
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
