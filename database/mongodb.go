package database

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/config"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
	usersCollection    = "users"
	cartsCollection    = "carts"
)

// ConnectDB opens a client with the decimal-aware registry, pings the server
// and returns the configured database.
func ConnectDB(ctx context.Context, cfg config.MongoConfig, lg *zap.Logger) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetRegistry(Registry()))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}

	// Ping the database
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}

	lg.Info("Connected to MongoDB", zap.String("database", cfg.Database))
	return client.Database(cfg.Database), nil
}

// SupportsTransactions reports whether the deployment behind db is a replica
// set member or a mongos, the only topologies that accept transactions.
func SupportsTransactions(ctx context.Context, db *mongo.Database) (bool, error) {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false, errors.Wrap(err, "hello")
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid", nil
}

// EnsureIndexes creates the indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return errors.Wrapf(err, "create %s indexes", coll)
		}
	}
	return nil
}

// withTimeout bounds a single store operation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// literal wraps v so aggregation pipelines treat it as a value, never as a
// field path or operator.
func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

// deactivateAtZero is the pipeline stage forcing isActive=false once stock
// reaches zero, mirroring models.Product.Recompute.
func deactivateAtZero() bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "isActive", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$lte", Value: bson.A{"$stock", 0}}},
			false,
			"$isActive",
		}}}},
	}}}
}
