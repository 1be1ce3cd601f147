package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

func orderReq(user primitive.ObjectID, total string, items ...models.StockRequest) PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:          user,
		Items:           items,
		DeclaredTotal:   dec(total),
		ShippingAddress: testAddress,
	}
}

func item(p *models.Product, qty int) models.StockRequest {
	return models.StockRequest{ProductID: p.ID, Quantity: qty}
}

func TestPlaceOrder_ReservesAndSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soap := f.seed(t, "Neem Soap", "120", 10)
	oil := f.seed(t, "Hair Oil", "250.50", 3)
	user := primitive.NewObjectID()

	order, err := f.orders.PlaceOrder(ctx, orderReq(user, "491", item(soap, 2), item(oil, 1)))
	require.NoError(t, err)

	assert.False(t, order.ID.IsZero())
	assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, "Neem Soap", order.OrderItems[0].ProductName)
	assert.True(t, dec("240").Equal(order.OrderItems[0].TotalPrice))
	assert.True(t, dec("250.50").Equal(order.OrderItems[1].Price))
	assert.True(t, dec("490.50").Equal(order.Subtotal))
	assert.True(t, order.Discount.IsZero())

	assert.Equal(t, 8, f.stock(t, soap.ID))
	assert.Equal(t, 2, f.stock(t, oil.ID))
}

func TestPlaceOrder_AcceptsDiscountedTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cream := f.seed(t, "Aloe Cream", "300", 10)
	user := primitive.NewObjectID()

	// subtotal 600 unlocks the 500 tier
	order, err := f.orders.PlaceOrder(ctx, orderReq(user, "550", item(cream, 2)))
	require.NoError(t, err)
	assert.True(t, dec("600").Equal(order.Subtotal))
	assert.True(t, dec("50").Equal(order.Discount))
	assert.True(t, dec("550").Equal(order.TotalAmount))

	_, err = f.orders.PlaceOrder(ctx, orderReq(user, "600", item(cream, 2)))
	require.NoError(t, err)
}

func TestPlaceOrder_RejectsWrongTotal(t *testing.T) {
	f := newFixture(t)
	soap := f.seed(t, "Neem Soap", "120", 10)

	_, err := f.orders.PlaceOrder(context.Background(), orderReq(primitive.NewObjectID(), "1", item(soap, 2)))
	require.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, 10, f.stock(t, soap.ID))
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)
	soap := f.seed(t, "Neem Soap", "120", 10)
	user := primitive.NewObjectID()

	for name, req := range map[string]PlaceOrderRequest{
		"no items":      orderReq(user, "0"),
		"zero quantity": orderReq(user, "0", item(soap, 0)),
		"negative":      orderReq(user, "-120", item(soap, 1)),
		"no address": {
			UserID:        user,
			Items:         []models.StockRequest{item(soap, 1)},
			DeclaredTotal: dec("120"),
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.orders.PlaceOrder(context.Background(), req)
			require.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
	assert.Equal(t, 10, f.stock(t, soap.ID))
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	soap := f.seed(t, "Neem Soap", "100", 10)
	oil := f.seed(t, "Hair Oil", "100", 1)

	_, err := f.orders.PlaceOrder(context.Background(),
		orderReq(primitive.NewObjectID(), "300", item(soap, 1), item(oil, 2)))

	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Hair Oil", stockErr.Name)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 10, f.stock(t, soap.ID))
	assert.Equal(t, 1, f.stock(t, oil.ID))
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	soap := f.seed(t, "Neem Soap", "100", 10)
	missing := models.StockRequest{ProductID: primitive.NewObjectID(), Quantity: 1}

	_, err := f.orders.PlaceOrder(context.Background(),
		orderReq(primitive.NewObjectID(), "200", item(soap, 1), missing))
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 10, f.stock(t, soap.ID))
}

func TestPlaceOrder_MergesDuplicateProducts(t *testing.T) {
	f := newFixture(t)
	soap := f.seed(t, "Neem Soap", "100", 3)

	order, err := f.orders.PlaceOrder(context.Background(),
		orderReq(primitive.NewObjectID(), "300", item(soap, 1), item(soap, 2)))
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, 3, order.OrderItems[0].Quantity)
	assert.Equal(t, 0, f.stock(t, soap.ID))

	p, err := f.store.GetProduct(context.Background(), soap.ID)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
}

type failingOrders struct {
	OrderStore
}

func (failingOrders) CreateOrder(context.Context, *models.Order) error {
	return errors.New("write failed")
}

func TestPlaceOrder_ReleasesStockWhenOrderNotStored(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.store, failingOrders{f.store}, zap.NewNop())
	soap := f.seed(t, "Neem Soap", "100", 5)

	_, err := svc.PlaceOrder(context.Background(), orderReq(primitive.NewObjectID(), "200", item(soap, 2)))
	require.Error(t, err)
	assert.Equal(t, 5, f.stock(t, soap.ID))
}

func TestPlaceOrder_ConservesStockUnderContention(t *testing.T) {
	f := newFixture(t)
	soap := f.seed(t, "Neem Soap", "100", 10)

	var placed, rejected atomic.Int64
	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := f.orders.PlaceOrder(context.Background(),
				orderReq(primitive.NewObjectID(), "100", item(soap, 1)))
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, models.ErrInsufficientStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 10, placed.Load())
	assert.EqualValues(t, 15, rejected.Load())
	assert.Equal(t, 0, f.stock(t, soap.ID))

	all, err := f.orders.GetAllOrders(context.Background(), Requester{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 10)
}

func TestGetOrder_SnapshotSurvivesPriceChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soap := f.seed(t, "Neem Soap", "100", 10)
	user := primitive.NewObjectID()

	order, err := f.orders.PlaceOrder(ctx, orderReq(user, "100", item(soap, 1)))
	require.NoError(t, err)

	price := dec("180")
	name := "Neem Soap Deluxe"
	_, err = f.catalog.UpdateProduct(ctx, soap.ID, models.ProductPatch{Price: &price, Name: &name})
	require.NoError(t, err)

	got, err := f.orders.GetOrder(ctx, order.ID, Requester{UserID: user, Role: models.RoleUser})
	require.NoError(t, err)
	line := got.OrderItems[0]
	assert.Equal(t, "Neem Soap", line.ProductName)
	assert.True(t, dec("100").Equal(line.Price))
	require.NotNil(t, line.Product)
	assert.Equal(t, "Neem Soap Deluxe", line.Product.Name)
	assert.True(t, dec("180").Equal(line.Product.Price))
}

func TestGetOrder_DeletedProductLeavesRefEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soap := f.seed(t, "Neem Soap", "100", 10)
	user := primitive.NewObjectID()

	order, err := f.orders.PlaceOrder(ctx, orderReq(user, "100", item(soap, 1)))
	require.NoError(t, err)
	require.NotNil(t, order.OrderItems[0].Product)

	stored, err := f.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.OrderItems[0].Product, "refs are not stored")

	require.NoError(t, f.catalog.DeleteProduct(ctx, soap.ID))

	got, err := f.orders.GetOrder(ctx, order.ID, Requester{UserID: user, Role: models.RoleUser})
	require.NoError(t, err)
	line := got.OrderItems[0]
	assert.Nil(t, line.Product)
	assert.Equal(t, "Neem Soap", line.ProductName)
}

func TestGetOrder_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soap := f.seed(t, "Neem Soap", "100", 10)
	owner := primitive.NewObjectID()

	order, err := f.orders.PlaceOrder(ctx, orderReq(owner, "100", item(soap, 1)))
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, order.ID, Requester{UserID: primitive.NewObjectID(), Role: models.RoleUser})
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.orders.GetOrder(ctx, order.ID, Requester{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, primitive.NewObjectID(), Requester{UserID: owner})
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.orders.GetAllOrders(ctx, Requester{UserID: owner, Role: models.RoleUser})
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestGetOrdersByUser_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soap := f.seed(t, "Neem Soap", "100", 10)
	user := primitive.NewObjectID()

	first, err := f.orders.PlaceOrder(ctx, orderReq(user, "100", item(soap, 1)))
	require.NoError(t, err)
	second, err := f.orders.PlaceOrder(ctx, orderReq(user, "200", item(soap, 2)))
	require.NoError(t, err)
	_, err = f.orders.PlaceOrder(ctx, orderReq(primitive.NewObjectID(), "100", item(soap, 1)))
	require.NoError(t, err)

	orders, err := f.orders.GetOrdersByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soap := f.seed(t, "Neem Soap", "100", 10)
	admin := Requester{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	order, err := f.orders.PlaceOrder(ctx, orderReq(primitive.NewObjectID(), "100", item(soap, 1)))
	require.NoError(t, err)

	status := func(s models.OrderStatus) models.OrderStatusUpdate {
		return models.OrderStatusUpdate{OrderStatus: &s}
	}

	got, err := f.orders.UpdateOrderStatus(ctx, order.ID, status(models.OrderStatusShipped), admin)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, got.OrderStatus)
	assert.Equal(t, models.PaymentStatusPending, got.PaymentStatus)

	paid := models.PaymentStatusCompleted
	got, err = f.orders.UpdateOrderStatus(ctx, order.ID, models.OrderStatusUpdate{PaymentStatus: &paid}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, got.OrderStatus)
	assert.Equal(t, models.PaymentStatusCompleted, got.PaymentStatus)

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, status(models.OrderStatusDelivered), admin)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, status(models.OrderStatusProcessing), admin)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	// payment stays settable on a delivered order
	refunded := models.PaymentStatusRefunded
	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, models.OrderStatusUpdate{PaymentStatus: &refunded}, admin)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, status("Lost"), admin)
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, models.OrderStatusUpdate{}, admin)
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.orders.UpdateOrderStatus(ctx, order.ID, status(models.OrderStatusShipped), Requester{Role: models.RoleUser})
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.orders.UpdateOrderStatus(ctx, primitive.NewObjectID(), status(models.OrderStatusShipped), admin)
	require.ErrorIs(t, err, models.ErrNotFound)
}
