package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

// CatalogStore holds products. Stock and review mutations are applied by the
// store itself as single conditional updates, never as read-then-write in
// the caller.
type CatalogStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context, lowStockThreshold int) (models.CatalogStats, error)

	// ReserveStock decrements stock by quantity if at least that much is
	// available, atomically per product.
	ReserveStock(ctx context.Context, id primitive.ObjectID, quantity int) (*models.Product, error)
	// ReserveItems reserves every request or none of them. The returned
	// products are in request order and reflect the reservation.
	ReserveItems(ctx context.Context, items []models.StockRequest) ([]models.Product, error)
	// ReleaseStock returns previously reserved units. It does not re-activate
	// a product that was deactivated at zero stock.
	ReleaseStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	// RecordReview appends a review unless the user already reviewed the
	// product, and refreshes rating and numReviews in the same update.
	RecordReview(ctx context.Context, id primitive.ObjectID, review models.Review) (*models.Product, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// ListOrdersByUser returns the user's orders, newest first.
	ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	// ListOrders returns every order, newest first.
	ListOrders(ctx context.Context) ([]models.Order, error)
	// UpdateOrderStatus applies update only while the order is still in
	// status from; otherwise it fails with ErrConflict.
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, update models.OrderStatusUpdate) (*models.Order, error)
}

type UserStore interface {
	// CreateUser fails with ErrConflict when the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type CartStore interface {
	// GetCart returns an empty cart when the user has none yet.
	GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	AddCartItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error)
	SetCartItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error)
	RemoveCartItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID primitive.ObjectID) error
}
