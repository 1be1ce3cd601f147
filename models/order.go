package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further order status changes.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether an order may move from s to next. Setting
// the current status again is allowed and is a no-op.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	return !s.Terminal()
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type ShippingAddress struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	Country    string `bson:"country" json:"country"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Phone      string `bson:"phone" json:"phone"`
}

func (a ShippingAddress) IsZero() bool {
	return strings.TrimSpace(a.Street+a.City+a.State+a.Country+a.PostalCode+a.Phone) == ""
}

// ProductRef is the live view of a referenced product, resolved when an
// order is read. It is never persisted.
type ProductRef struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Price decimal.Decimal    `json:"price"`
}

// OrderLineItem is immutable once the order is placed: ProductName and Price
// are snapshots taken at purchase time.
type OrderLineItem struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName" json:"productName"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Price       decimal.Decimal    `bson:"price" json:"price"`
	TotalPrice  decimal.Decimal    `bson:"totalPrice" json:"totalPrice"`
	Product     *ProductRef        `bson:"-" json:"product,omitempty"`
}

// NewLineItem snapshots the product's current name and price.
func NewLineItem(p *Product, quantity int) OrderLineItem {
	return OrderLineItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    quantity,
		Price:       p.Price,
		TotalPrice:  p.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	OrderItems      []OrderLineItem    `bson:"orderItems" json:"orderItems"`
	Subtotal        decimal.Decimal    `bson:"subtotal" json:"subtotal"`
	Discount        decimal.Decimal    `bson:"discount" json:"discount"`
	TotalAmount     decimal.Decimal    `bson:"totalAmount" json:"totalAmount"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus     OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LinesTotal sums the line totals of the order.
func (o *Order) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.OrderItems {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID primitive.ObjectID) bool {
	return o.UserID == userID
}

// StockRequest asks the catalog to reserve Quantity units of a product.
type StockRequest struct {
	ProductID primitive.ObjectID `json:"product"`
	Quantity  int                `json:"quantity"`
}

// OrderStatusUpdate is an admin change; nil fields are left unchanged.
type OrderStatusUpdate struct {
	OrderStatus   *OrderStatus   `json:"orderStatus"`
	PaymentStatus *PaymentStatus `json:"paymentStatus"`
}
