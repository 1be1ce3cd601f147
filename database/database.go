package database

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/config"
)

// Stores bundles the Mongo-backed stores over one database.
type Stores struct {
	Products *ProductStore
	Orders   *OrderStore
	Users    *UserStore
	Carts    *CartStore
}

func NewStores(db *mongo.Database, cfg config.MongoConfig, lg *zap.Logger) *Stores {
	return &Stores{
		Products: NewProductStore(db, cfg.Timeout, cfg.Transactions, lg.Named("products")),
		Orders:   NewOrderStore(db, cfg.Timeout),
		Users:    NewUserStore(db, cfg.Timeout),
		Carts:    NewCartStore(db, cfg.Timeout),
	}
}
