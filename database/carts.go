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

// CartStore keeps one cart document per user.
type CartStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewCartStore(db *mongo.Database, timeout time.Duration) *CartStore {
	return &CartStore{coll: db.Collection(cartsCollection), timeout: timeout}
}

func (s *CartStore) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var cart models.Cart
	err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, errors.Wrap(err, "find cart")
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// addAttempts bounds how often AddCartItem retries after losing a race
// with a concurrent add for the same user.
const addAttempts = 3

// AddCartItem bumps the quantity of an existing line, or pushes a new one
// (creating the cart) when the product is not in the cart yet. The push is
// guarded on the product being absent, so concurrent adds never produce two
// lines for one product.
func (s *CartStore) AddCartItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	for attempt := 0; attempt < addAttempts; attempt++ {
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"userId": userID, "items.productId": productID},
			bson.M{
				"$inc": bson.M{"items.$.quantity": quantity},
				"$set": bson.M{"updatedAt": time.Now()},
			},
		)
		if err != nil {
			return nil, errors.Wrap(err, "increment cart item")
		}
		if res.MatchedCount > 0 {
			return s.GetCart(ctx, userID)
		}

		// the upsert inserts only when the user has no cart; if another add
		// pushed the line first it collides on the userId index instead
		_, err = s.coll.UpdateOne(ctx,
			bson.M{"userId": userID, "items.productId": bson.M{"$ne": productID}},
			bson.M{
				"$push": bson.M{"items": models.CartItem{ProductID: productID, Quantity: quantity}},
				"$set":  bson.M{"updatedAt": time.Now()},
			},
			options.Update().SetUpsert(true),
		)
		if err == nil {
			return s.GetCart(ctx, userID)
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, errors.Wrap(err, "push cart item")
		}
	}
	return nil, errors.Wrap(models.ErrConflict, "add cart item")
}

func (s *CartStore) SetCartItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity == 0 {
		return s.RemoveCartItem(ctx, userID, productID)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updatedAt":              time.Now(),
		},
	}
	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.productId": productID},
		},
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "items.productId": productID},
		update,
		options.Update().SetArrayFilters(arrayFilters),
	)
	if err != nil {
		return nil, errors.Wrap(err, "update cart item")
	}
	if res.MatchedCount == 0 {
		return nil, models.ErrNotFound
	}
	return s.GetCart(ctx, userID)
}

func (s *CartStore) RemoveCartItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"productId": productID},
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"userId": userID, "items.productId": productID}, update)
	if err != nil {
		return nil, errors.Wrap(err, "remove cart item")
	}
	if res.MatchedCount == 0 {
		return nil, models.ErrNotFound
	}
	return s.GetCart(ctx, userID)
}

func (s *CartStore) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()}},
	)
	if err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
