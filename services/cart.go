package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/pricing"
)

// CartLine is a cart entry priced from the live catalog.
type CartLine struct {
	ProductID primitive.ObjectID `json:"productId"`
	Name      string             `json:"name"`
	Image     string             `json:"image,omitempty"`
	UnitPrice decimal.Decimal    `json:"unitPrice"`
	Quantity  int                `json:"quantity"`
	LineTotal decimal.Decimal    `json:"lineTotal"`
	Stock     int                `json:"stock"`
	Available bool               `json:"available"`
}

type CartView struct {
	UserID primitive.ObjectID `json:"userId"`
	Items  []CartLine         `json:"items"`
	Quote  pricing.Quote      `json:"quote"`
}

type CartService struct {
	carts   CartStore
	catalog CatalogStore
	lg      *zap.Logger
}

func NewCartService(carts CartStore, catalog CatalogStore, lg *zap.Logger) *CartService {
	return &CartService{carts: carts, catalog: catalog, lg: lg}
}

func (s *CartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*CartView, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return s.view(ctx, cart)
}

// AddItem adds quantity units of an active product, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, models.Invalid("quantity", "Quantity must be at least 1")
	}
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, models.Invalid("productId", "Product %s is not available", p.Name)
	}
	cart, err := s.carts.AddCartItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}
	return s.view(ctx, cart)
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*CartView, error) {
	if quantity < 0 {
		return nil, models.Invalid("quantity", "Quantity must not be negative")
	}
	cart, err := s.carts.SetCartItemQuantity(ctx, userID, productID, quantity)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errors.Wrap(models.ErrNotFound, "item not in cart")
		}
		return nil, errors.Wrap(err, "set cart quantity")
	}
	return s.view(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*CartView, error) {
	cart, err := s.carts.RemoveCartItem(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errors.Wrap(models.ErrNotFound, "item not in cart")
		}
		return nil, errors.Wrap(err, "remove cart item")
	}
	return s.view(ctx, cart)
}

func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// Quote prices client-supplied lines without touching any cart.
func (s *CartService) Quote(lines []pricing.Line) (pricing.Quote, error) {
	return pricing.Price(lines)
}

// view prices the cart from the live catalog. Lines whose product is gone
// or inactive are listed as unavailable and left out of the quote.
func (s *CartService) view(ctx context.Context, cart *models.Cart) (*CartView, error) {
	ids := make([]primitive.ObjectID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get cart products")
	}

	view := &CartView{UserID: cart.UserID, Items: make([]CartLine, 0, len(cart.Items))}
	var priced []pricing.Line
	for _, item := range cart.Items {
		line := CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
		if p, ok := products[item.ProductID]; ok {
			line.Name = p.Name
			line.UnitPrice = p.Price
			line.Stock = p.Stock
			line.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.Available = p.IsActive && p.Stock >= item.Quantity
			if len(p.Images) > 0 {
				line.Image = p.Images[0]
			}
		}
		if !line.Available {
			s.lg.Debug("Cart line unavailable",
				zap.String("user_id", cart.UserID.Hex()),
				zap.String("product_id", item.ProductID.Hex()),
			)
		} else {
			priced = append(priced, pricing.Line{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
		}
		view.Items = append(view.Items, line)
	}
	quote, err := pricing.Price(priced)
	if err != nil {
		return nil, err
	}
	view.Quote = quote
	return view, nil
}
