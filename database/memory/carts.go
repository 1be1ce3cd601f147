package memory

import (
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

// cartLocked returns the user's cart, creating it when create is set.
func (s *Store) cartLocked(userID primitive.ObjectID, create bool) *models.Cart {
	c, ok := s.carts[userID]
	if !ok && create {
		c = &models.Cart{ID: primitive.NewObjectID(), UserID: userID, Items: []models.CartItem{}}
		s.carts[userID] = c
	}
	return c
}

func (s *Store) GetCart(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	return cloneCart(c), nil
}

func (s *Store) AddCartItem(_ context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartLocked(userID, true)
	i := slices.IndexFunc(c.Items, func(it models.CartItem) bool { return it.ProductID == productID })
	if i >= 0 {
		c.Items[i].Quantity += quantity
	} else {
		c.Items = append(c.Items, models.CartItem{ProductID: productID, Quantity: quantity})
	}
	c.UpdatedAt = s.Now()
	return cloneCart(c), nil
}

func (s *Store) SetCartItemQuantity(_ context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartLocked(userID, false)
	if c == nil {
		return nil, models.ErrNotFound
	}
	i := slices.IndexFunc(c.Items, func(it models.CartItem) bool { return it.ProductID == productID })
	if i < 0 {
		return nil, models.ErrNotFound
	}
	if quantity == 0 {
		c.Items = slices.Delete(c.Items, i, i+1)
	} else {
		c.Items[i].Quantity = quantity
	}
	c.UpdatedAt = s.Now()
	return cloneCart(c), nil
}

func (s *Store) RemoveCartItem(_ context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartLocked(userID, false)
	if c == nil {
		return nil, models.ErrNotFound
	}
	n := len(c.Items)
	c.Items = slices.DeleteFunc(c.Items, func(it models.CartItem) bool { return it.ProductID == productID })
	if len(c.Items) == n {
		return nil, models.ErrNotFound
	}
	c.UpdatedAt = s.Now()
	return cloneCart(c), nil
}

func (s *Store) ClearCart(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.carts[userID]; ok {
		c.Items = []models.CartItem{}
		c.UpdatedAt = s.Now()
	}
	return nil
}
