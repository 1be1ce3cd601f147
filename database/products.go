package database

import (
	"context"
	"regexp"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

// ProductStore keeps the catalog in the products collection. Stock and
// review changes are single conditional updates on one document.
type ProductStore struct {
	coll         *mongo.Collection
	timeout      time.Duration
	transactions bool
	lg           *zap.Logger
}

func NewProductStore(db *mongo.Database, timeout time.Duration, transactions bool, lg *zap.Logger) *ProductStore {
	return &ProductStore{
		coll:         db.Collection(productsCollection),
		timeout:      timeout,
		transactions: transactions,
		lg:           lg,
	}
}

func (s *ProductStore) CreateProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Normalize()
	p.Recompute()

	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return errors.Wrap(err, "insert product")
	}
	return nil
}

func (s *ProductStore) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var product models.Product
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.ProductNotFoundError{ProductID: id.Hex()}
		}
		return nil, errors.Wrap(err, "find product")
	}
	return &product, nil
}

func (s *ProductStore) GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"reviews": 0}))
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func productQuery(f models.ProductFilter) (bson.M, error) {
	filter := bson.M{}
	if !f.IncludeInactive {
		filter["isActive"] = true
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			d, err := ToDecimal128(*f.MinPrice)
			if err != nil {
				return nil, errors.Wrap(err, "min price")
			}
			price["$gte"] = d
		}
		if f.MaxPrice != nil {
			d, err := ToDecimal128(*f.MaxPrice)
			if err != nil {
				return nil, errors.Wrap(err, "max price")
			}
			price["$lte"] = d
		}
		filter["price"] = price
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	return filter, nil
}

func (s *ProductStore) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	filter, err := productQuery(f)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.OmitReviews {
		opts.SetProjection(bson.M{"reviews": 0})
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// UpdateProduct applies the patch with a pipeline update so a concurrent
// reservation is never overwritten by stale fields.
func (s *ProductStore) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	set := bson.D{{Key: "updatedAt", Value: time.Now()}}
	add := func(key string, v any) { set = append(set, bson.E{Key: key, Value: literal(v)}) }
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.DiscountPrice != nil {
		add("discountPrice", *patch.DiscountPrice)
	}
	if patch.Stock != nil {
		add("stock", *patch.Stock)
	}
	if patch.Ingredients != nil {
		add("ingredients", patch.Ingredients)
	}
	if patch.SkinType != nil {
		add("skinType", patch.SkinType)
	}
	if patch.HairType != nil {
		add("hairType", patch.HairType)
	}
	if patch.Images != nil {
		add("images", patch.Images)
	}
	if patch.IsActive != nil {
		add("isActive", *patch.IsActive)
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: set}},
		deactivateAtZero(),
	}
	var product models.Product
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.ProductNotFoundError{ProductID: id.Hex()}
		}
		return nil, errors.Wrap(err, "update product")
	}
	return &product, nil
}

func (s *ProductStore) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return &models.ProductNotFoundError{ProductID: id.Hex()}
	}
	return nil
}

func (s *ProductStore) Stats(ctx context.Context, lowStockThreshold int) (models.CatalogStats, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var stats models.CatalogStats
	var err error
	if stats.TotalProducts, err = s.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, errors.Wrap(err, "count products")
	}
	if stats.ActiveProducts, err = s.coll.CountDocuments(ctx, bson.M{"isActive": true}); err != nil {
		return stats, errors.Wrap(err, "count active products")
	}
	if stats.LowStockProducts, err = s.coll.CountDocuments(ctx, bson.M{"stock": bson.M{"$lt": lowStockThreshold}}); err != nil {
		return stats, errors.Wrap(err, "count low stock products")
	}
	return stats, nil
}

// ReserveStock is a single findOneAndUpdate guarded by stock >= quantity.
func (s *ProductStore) ReserveStock(ctx context.Context, id primitive.ObjectID, quantity int) (*models.Product, error) {
	if quantity < 1 {
		return nil, models.Invalid("quantity", "quantity must be at least 1")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"_id": id, "stock": bson.M{"$gte": quantity}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$subtract", Value: bson.A{"$stock", quantity}}}},
			{Key: "updatedAt", Value: time.Now()},
		}}},
		deactivateAtZero(),
	}

	var product models.Product
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "reserve stock")
	}

	// the guard failed: tell a missing product apart from a short one
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &models.InsufficientStockError{
		ProductID: id.Hex(),
		Name:      current.Name,
		Available: current.Stock,
		Requested: quantity,
	}
}

func (s *ProductStore) ReserveItems(ctx context.Context, items []models.StockRequest) ([]models.Product, error) {
	if s.transactions {
		return s.reserveInTransaction(ctx, items)
	}
	return s.reserveWithCompensation(ctx, items)
}

func (s *ProductStore) reserveInTransaction(ctx context.Context, items []models.StockRequest) ([]models.Product, error) {
	session, err := s.coll.Database().Client().StartSession()
	if err != nil {
		return nil, errors.Wrap(err, "start session")
	}
	defer session.EndSession(context.Background())

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		reserved := make([]models.Product, 0, len(items))
		for _, item := range items {
			p, err := s.ReserveStock(sc, item.ProductID, item.Quantity)
			if err != nil {
				return nil, err
			}
			reserved = append(reserved, *p)
		}
		return reserved, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]models.Product), nil
}

// reserveWithCompensation is used when the deployment has no replica set:
// items are reserved one by one and released again if a later one fails.
func (s *ProductStore) reserveWithCompensation(ctx context.Context, items []models.StockRequest) ([]models.Product, error) {
	reserved := make([]models.Product, 0, len(items))
	for _, item := range items {
		p, err := s.ReserveStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			relCtx := context.WithoutCancel(ctx)
			for i, done := range reserved {
				if relErr := s.ReleaseStock(relCtx, done.ID, items[i].Quantity); relErr != nil {
					s.lg.Error("Failed to release reserved stock",
						zap.String("product_id", done.ID.Hex()),
						zap.Int("quantity", items[i].Quantity),
						zap.Error(relErr),
					)
				}
			}
			return nil, err
		}
		reserved = append(reserved, *p)
	}
	return reserved, nil
}

func (s *ProductStore) ReleaseStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return errors.Wrap(err, "release stock")
	}
	if res.MatchedCount == 0 {
		return &models.ProductNotFoundError{ProductID: id.Hex()}
	}
	return nil
}

// RecordReview appends the review only if the user has none on the product
// and recomputes rating and numReviews in the same pipeline update.
func (s *ProductStore) RecordReview(ctx context.Context, id primitive.ObjectID, review models.Review) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}

	filter := bson.M{"_id": id, "reviews.userId": bson.M{"$ne": review.UserID}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "reviews", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$reviews", bson.A{}}}},
				bson.A{literal(review)},
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "numReviews", Value: bson.D{{Key: "$size", Value: "$reviews"}}},
			{Key: "rating", Value: bson.D{{Key: "$avg", Value: "$reviews.rating"}}},
		}}},
	}

	var product models.Product
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "record review")
	}
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	return nil, models.ErrAlreadyReviewed
}
