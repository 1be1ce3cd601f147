package database

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

type OrderStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewOrderStore(db *mongo.Database, timeout time.Duration) *OrderStore {
	return &OrderStore{coll: db.Collection(ordersCollection), timeout: timeout}
}

func (s *OrderStore) CreateOrder(ctx context.Context, o *models.Order) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, o); err != nil {
		return errors.Wrap(err, "insert order")
	}
	return nil
}

func (s *OrderStore) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var order models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}
	return &order, nil
}

func (s *OrderStore) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return orders, nil
}

func (s *OrderStore) ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.find(ctx, bson.M{"userId": userID})
}

func (s *OrderStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.find(ctx, bson.M{})
}

func (s *OrderStore) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, update models.OrderStatusUpdate) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if update.OrderStatus != nil {
		set["orderStatus"] = *update.OrderStatus
	}
	if update.PaymentStatus != nil {
		set["paymentStatus"] = *update.PaymentStatus
	}

	var order models.Order
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "orderStatus": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "update order status")
	}
	if _, err := s.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	return nil, models.ErrConflict
}
