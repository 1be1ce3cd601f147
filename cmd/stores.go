package cmd

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/cache"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/config"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/database"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/database/memory"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
)

type stores struct {
	catalog services.CatalogStore
	orders  services.OrderStore
	users   services.UserStore
	carts   services.CartStore

	closers []func(context.Context) error
}

// Close releases connections in reverse order and returns the first error.
func (s *stores) Close(ctx context.Context) error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && first == nil {
			first = errors.Wrap(err, "close")
		}
	}
	return first
}

// openStores connects the configured storage driver and, when a Redis
// address is set, puts the product cache in front of the catalog.
func openStores(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*stores, error) {
	s := &stores{}
	switch cfg.Driver {
	case config.DriverMemory:
		m := memory.New()
		s.catalog, s.orders, s.users, s.carts = m, m, m, m
		lg.Warn("Using in-memory storage, data is lost on exit")
	default:
		db, err := database.ConnectDB(ctx, cfg.Mongo, lg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Client().Disconnect)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		mongoCfg := cfg.Mongo
		if mongoCfg.Transactions {
			ok, err := database.SupportsTransactions(ctx, db)
			if err != nil || !ok {
				lg.Warn("Transactions unavailable, reserving stock with compensation", zap.Error(err))
				mongoCfg.Transactions = false
			}
		}
		ms := database.NewStores(db, mongoCfg, lg)
		s.catalog, s.orders, s.users, s.carts = ms.Products, ms.Orders, ms.Users, ms.Carts
	}

	if cfg.Redis.Addr != "" {
		rc, err := cache.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			lg.Warn("Product cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			return s, nil
		}
		s.closers = append(s.closers, func(context.Context) error { return rc.Close() })
		s.catalog = cache.NewCatalog(s.catalog, rc, cfg.Redis.TTL, lg.Named("cache"))
		lg.Info("Product cache enabled", zap.String("addr", cfg.Redis.Addr))
	}
	return s, nil
}
