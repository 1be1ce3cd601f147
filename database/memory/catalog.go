package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := s.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Normalize()
	p.Recompute()

	s.products[p.ID] = cloneProduct(p)
	s.productSeq = append(s.productSeq, p.ID)
	return nil
}

func (s *Store) GetProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, &models.ProductNotFoundError{ProductID: id.Hex()}
	}
	return cloneProduct(p), nil
}

func (s *Store) GetProducts(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (s *Store) ListProducts(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := newest(s.productSeq, func(id primitive.ObjectID) time.Time { return s.products[id].CreatedAt })
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p := s.products[id]
		if !filter.Matches(p) {
			continue
		}
		c := cloneProduct(p)
		if filter.OmitReviews {
			c.Reviews = nil
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, &models.ProductNotFoundError{ProductID: id.Hex()}
	}
	patch.Apply(p)
	p.Normalize()
	p.UpdatedAt = s.Now()
	return cloneProduct(p), nil
}

func (s *Store) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return &models.ProductNotFoundError{ProductID: id.Hex()}
	}
	delete(s.products, id)
	s.productSeq = removeID(s.productSeq, id)
	return nil
}

func (s *Store) Stats(_ context.Context, lowStockThreshold int) (models.CatalogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.CatalogStats
	for _, p := range s.products {
		stats.TotalProducts++
		if p.IsActive {
			stats.ActiveProducts++
		}
		if p.Stock < lowStockThreshold {
			stats.LowStockProducts++
		}
	}
	return stats, nil
}

// reserveLocked performs one check-and-decrement; s.mu must be held.
func (s *Store) reserveLocked(id primitive.ObjectID, quantity int) (*models.Product, error) {
	if quantity < 1 {
		return nil, models.Invalid("quantity", "quantity must be at least 1")
	}
	p, ok := s.products[id]
	if !ok {
		return nil, &models.ProductNotFoundError{ProductID: id.Hex()}
	}
	if p.Stock < quantity {
		return nil, &models.InsufficientStockError{
			ProductID: id.Hex(),
			Name:      p.Name,
			Available: p.Stock,
			Requested: quantity,
		}
	}
	p.Stock -= quantity
	p.Recompute()
	p.UpdatedAt = s.Now()
	return p, nil
}

func (s *Store) ReserveStock(_ context.Context, id primitive.ObjectID, quantity int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.reserveLocked(id, quantity)
	if err != nil {
		return nil, err
	}
	return cloneProduct(p), nil
}

func (s *Store) ReserveItems(_ context.Context, items []models.StockRequest) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// snapshot touched products so a failure leaves no trace
	before := make(map[primitive.ObjectID]models.Product, len(items))
	for _, it := range items {
		if p, ok := s.products[it.ProductID]; ok {
			if _, seen := before[it.ProductID]; !seen {
				before[it.ProductID] = *p
			}
		}
	}

	out := make([]models.Product, 0, len(items))
	for _, it := range items {
		p, err := s.reserveLocked(it.ProductID, it.Quantity)
		if err != nil {
			for id, prev := range before {
				restored := prev
				s.products[id] = &restored
			}
			return nil, err
		}
		out = append(out, *cloneProduct(p))
	}
	return out, nil
}

func (s *Store) ReleaseStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return &models.ProductNotFoundError{ProductID: id.Hex()}
	}
	p.Stock += quantity
	p.UpdatedAt = s.Now()
	return nil
}

func (s *Store) RecordReview(_ context.Context, id primitive.ObjectID, review models.Review) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, &models.ProductNotFoundError{ProductID: id.Hex()}
	}
	if p.ReviewedBy(review.UserID) {
		return nil, models.ErrAlreadyReviewed
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = s.Now()
	}
	p.Reviews = append(p.Reviews, review)
	p.Recompute()
	p.UpdatedAt = s.Now()
	return cloneProduct(p), nil
}
