package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

// CatalogService serves product listings, reviews and admin product upkeep.
type CatalogService struct {
	store             CatalogStore
	lowStockThreshold int
	lg                *zap.Logger
	now               func() time.Time
}

func NewCatalogService(store CatalogStore, lowStockThreshold int, lg *zap.Logger) *CatalogService {
	return &CatalogService{
		store:             store,
		lowStockThreshold: lowStockThreshold,
		lg:                lg,
		now:               time.Now,
	}
}

// ListProducts returns active products for the storefront, without reviews.
func (s *CatalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	filter.IncludeInactive = false
	filter.OmitReviews = true
	if err := checkFilter(filter); err != nil {
		return nil, err
	}
	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// ListAllProducts returns the whole catalog, inactive products included.
func (s *CatalogService) ListAllProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	filter.IncludeInactive = true
	if err := checkFilter(filter); err != nil {
		return nil, err
	}
	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list all products")
	}
	return products, nil
}

func checkFilter(f models.ProductFilter) error {
	if f.Category != "" && !f.Category.Valid() {
		return models.Invalid("category", "Unknown category %q", f.Category)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return models.Invalid("minPrice", "Minimum price must not exceed maximum price")
	}
	return nil
}

// GetProduct returns a product with its reviews.
func (s *CatalogService) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// AddReview records one review per user and refreshes the product rating.
func (s *CatalogService) AddReview(ctx context.Context, productID primitive.ObjectID, review models.Review) (*models.Product, error) {
	review.Comment = strings.TrimSpace(review.Comment)
	review.UserName = strings.TrimSpace(review.UserName)
	if err := review.Validate(); err != nil {
		return nil, err
	}
	review.CreatedAt = s.now()
	p, err := s.store.RecordReview(ctx, productID, review)
	if err != nil {
		return nil, err
	}
	s.lg.Info("Review added",
		zap.String("product_id", productID.Hex()),
		zap.String("user_id", review.UserID.Hex()),
		zap.Int("rating", review.Rating),
	)
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.ID = primitive.NilObjectID
	p.Name = strings.TrimSpace(p.Name)
	// reviews only arrive through AddReview
	p.Reviews = nil
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Recompute()
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	s.lg.Info("Product created", zap.String("product_id", p.ID.Hex()), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct validates the patched product before storing the patch.
func (s *CatalogService) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	current, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	preview := *current
	patch.Apply(&preview)
	if err := preview.Validate(); err != nil {
		return nil, err
	}
	p, err := s.store.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.lg.Info("Product updated", zap.String("product_id", id.Hex()))
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.lg.Info("Product deleted", zap.String("product_id", id.Hex()))
	return nil
}

// Stats counts total, active and low-stock products.
func (s *CatalogService) Stats(ctx context.Context) (models.CatalogStats, error) {
	stats, err := s.store.Stats(ctx, s.lowStockThreshold)
	if err != nil {
		return models.CatalogStats{}, errors.Wrap(err, "catalog stats")
	}
	return stats, nil
}
