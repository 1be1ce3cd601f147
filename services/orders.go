package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/metrics"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/pricing"
)

// PlaceOrderRequest is an authenticated user's checkout.
type PlaceOrderRequest struct {
	UserID          primitive.ObjectID
	Items           []models.StockRequest
	DeclaredTotal   decimal.Decimal
	ShippingAddress models.ShippingAddress
	Notes           string
}

// Requester identifies who is reading an order.
type Requester struct {
	UserID primitive.ObjectID
	Role   models.Role
}

func (r Requester) IsAdmin() bool { return r.Role == models.RoleAdmin }

// OrderService places orders and serves order queries and admin status changes.
type OrderService struct {
	catalog CatalogStore
	orders  OrderStore
	lg      *zap.Logger
	now     func() time.Time
}

func NewOrderService(catalog CatalogStore, orders OrderStore, lg *zap.Logger) *OrderService {
	return &OrderService{
		catalog: catalog,
		orders:  orders,
		lg:      lg,
		now:     time.Now,
	}
}

// mergeItems validates quantities and folds repeated products into one
// request, keeping first-seen order.
func mergeItems(items []models.StockRequest) ([]models.StockRequest, error) {
	merged := make([]models.StockRequest, 0, len(items))
	index := make(map[primitive.ObjectID]int, len(items))
	for _, item := range items {
		if item.ProductID.IsZero() {
			return nil, models.Invalid("orderItems", "Every order item needs a product")
		}
		if item.Quantity < 1 {
			return nil, models.Invalid("orderItems", "Quantity for product %s must be at least 1", item.ProductID.Hex())
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func quoteLines(lines []models.OrderLineItem) (pricing.Quote, error) {
	pl := make([]pricing.Line, len(lines))
	for i, l := range lines {
		pl[i] = pricing.Line{UnitPrice: l.Price, Quantity: l.Quantity}
	}
	return pricing.Price(pl)
}

// PlaceOrder reserves stock for every requested item and persists an order
// whose line items snapshot the catalog name and price at reservation time.
// Validation happens before any stock is touched; reservation is
// all-or-nothing, and reserved stock is released again if the order cannot
// be stored.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	order, err := s.placeOrder(ctx, req)
	if err != nil {
		metrics.OrderFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	metrics.OrdersPlaced.Inc()
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, models.Invalid("orderItems", "Order items are required")
	}
	if req.DeclaredTotal.IsNegative() {
		return nil, models.Invalid("totalAmount", "Total amount must not be negative")
	}
	if req.ShippingAddress.IsZero() {
		return nil, models.Invalid("shippingAddress", "Shipping address is required")
	}
	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	current, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	preview := make([]models.OrderLineItem, len(items))
	for i, item := range items {
		p, ok := current[item.ProductID]
		if !ok {
			return nil, &models.ProductNotFoundError{ProductID: item.ProductID.Hex()}
		}
		if p.Stock < item.Quantity {
			return nil, &models.InsufficientStockError{
				ProductID: p.ID.Hex(),
				Name:      p.Name,
				Available: p.Stock,
				Requested: item.Quantity,
			}
		}
		preview[i] = models.NewLineItem(p, item.Quantity)
	}
	if err := checkDeclaredTotal(preview, req.DeclaredTotal); err != nil {
		return nil, err
	}

	reserved, err := s.catalog.ReserveItems(ctx, items)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderLineItem, len(items))
	for i := range reserved {
		p := &reserved[i]
		lines[i] = models.NewLineItem(p, items[i].Quantity)
		lines[i].Product = &models.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price}
	}
	quote, err := quoteLines(lines)
	if err != nil {
		s.release(ctx, items)
		return nil, err
	}
	// a price edit can land between the preview and the reservation
	if !quote.Accepts(req.DeclaredTotal) {
		s.release(ctx, items)
		return nil, totalMismatch(req.DeclaredTotal, quote)
	}

	now := s.now()
	order := &models.Order{
		UserID:          req.UserID,
		OrderItems:      lines,
		Subtotal:        quote.Subtotal,
		Discount:        quote.Discount,
		TotalAmount:     req.DeclaredTotal,
		PaymentStatus:   models.PaymentStatusPending,
		OrderStatus:     models.OrderStatusProcessing,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.release(ctx, items)
		return nil, errors.Wrap(err, "create order")
	}

	units := 0
	for _, item := range items {
		units += item.Quantity
	}
	metrics.UnitsReserved.Add(float64(units))
	s.lg.Info("Order placed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", order.UserID.Hex()),
		zap.Int("items", len(lines)),
		zap.Stringer("total", order.TotalAmount),
	)
	return order, nil
}

func checkDeclaredTotal(lines []models.OrderLineItem, declared decimal.Decimal) error {
	quote, err := quoteLines(lines)
	if err != nil {
		return err
	}
	if !quote.Accepts(declared) {
		return totalMismatch(declared, quote)
	}
	return nil
}

func totalMismatch(declared decimal.Decimal, q pricing.Quote) error {
	return models.Invalid("totalAmount", "Total amount %s does not match order total %s (subtotal %s)",
		declared.StringFixed(2), q.Total.StringFixed(2), q.Subtotal.StringFixed(2))
}

// release returns reserved stock after a failure later in placement.
func (s *OrderService) release(ctx context.Context, items []models.StockRequest) {
	// the request context may already be done; compensation must still run
	ctx = context.WithoutCancel(ctx)
	for _, item := range items {
		if err := s.catalog.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.lg.Error("Failed to release reserved stock",
				zap.String("product_id", item.ProductID.Hex()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
			continue
		}
		metrics.StockReleases.Inc()
	}
	s.lg.Warn("Released reserved stock after failed order", zap.Int("items", len(items)))
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "error"
	}
}

// populate resolves each line item's product reference to the live catalog
// name and price. Deleted products stay unresolved.
func (s *OrderService) populate(ctx context.Context, orders []models.Order) error {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, item := range o.OrderItems {
			if _, ok := seen[item.ProductID]; !ok {
				seen[item.ProductID] = struct{}{}
				ids = append(ids, item.ProductID)
			}
		}
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "populate products")
	}
	for i := range orders {
		for j := range orders[i].OrderItems {
			item := &orders[i].OrderItems[j]
			if p, ok := products[item.ProductID]; ok {
				item.Product = &models.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price}
			}
		}
	}
	return nil
}

// GetOrdersByUser returns the user's orders, newest first.
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user orders")
	}
	if err := s.populate(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder returns an order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID primitive.ObjectID, who Requester) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(who.UserID) && !who.IsAdmin() {
		return nil, models.ErrForbidden
	}
	orders := []models.Order{*order}
	if err := s.populate(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// GetAllOrders returns every order, newest first. Admin only.
func (s *OrderService) GetAllOrders(ctx context.Context, who Requester) ([]models.Order, error) {
	if !who.IsAdmin() {
		return nil, models.ErrForbidden
	}
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if err := s.populate(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus sets order and/or payment status. Delivered and
// Cancelled orders keep their order status; payment status stays settable.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, update models.OrderStatusUpdate, who Requester) (*models.Order, error) {
	if !who.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if update.OrderStatus == nil && update.PaymentStatus == nil {
		return nil, models.Invalid("orderStatus", "Order status or payment status is required")
	}
	if update.OrderStatus != nil && !update.OrderStatus.Valid() {
		return nil, models.Invalid("orderStatus", "Valid order status is required")
	}
	if update.PaymentStatus != nil && !update.PaymentStatus.Valid() {
		return nil, models.Invalid("paymentStatus", "Valid payment status is required")
	}

	current, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if update.OrderStatus != nil && !current.OrderStatus.CanTransitionTo(*update.OrderStatus) {
		return nil, errors.Wrapf(models.ErrInvalidTransition, "order is %s and cannot become %s",
			current.OrderStatus, *update.OrderStatus)
	}

	order, err := s.orders.UpdateOrderStatus(ctx, orderID, current.OrderStatus, update)
	if err != nil {
		return nil, err
	}

	metrics.OrderStatusChanges.WithLabelValues(string(order.OrderStatus)).Inc()
	s.lg.Info("Order status updated",
		zap.String("order_id", order.ID.Hex()),
		zap.String("order_status", string(order.OrderStatus)),
		zap.String("payment_status", string(order.PaymentStatus)),
	)
	orders := []models.Order{*order}
	if err := s.populate(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}
