package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	stored := cloneOrder(o)
	// product refs are not persisted, they are populated on read
	for i := range stored.OrderItems {
		stored.OrderItems[i].Product = nil
	}
	s.orders[o.ID] = stored
	s.orderSeq = append(s.orderSeq, o.ID)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) listOrders(match func(*models.Order) bool) []models.Order {
	ids := newest(s.orderSeq, func(id primitive.ObjectID) time.Time { return s.orders[id].CreatedAt })
	out := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o := s.orders[id]
		if match(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	return out
}

func (s *Store) ListOrdersByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listOrders(func(o *models.Order) bool { return o.UserID == userID }), nil
}

func (s *Store) ListOrders(_ context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listOrders(func(*models.Order) bool { return true }), nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id primitive.ObjectID, from models.OrderStatus, update models.OrderStatusUpdate) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if o.OrderStatus != from {
		return nil, models.ErrConflict
	}
	if update.OrderStatus != nil {
		o.OrderStatus = *update.OrderStatus
	}
	if update.PaymentStatus != nil {
		o.PaymentStatus = *update.PaymentStatus
	}
	o.UpdatedAt = s.Now()
	return cloneOrder(o), nil
}
