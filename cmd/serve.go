package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/handlers"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/metrics"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/middleware"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/routes"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/utils"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = lg.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStores(ctx, cfg, lg)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				lg.Error("Failed to close stores", zap.Error(err))
			}
		}()

		tokens := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
		h := handlers.New(
			services.NewUserService(st.users, tokens, cfg.AdminEmails, lg.Named("users")),
			services.NewCatalogService(st.catalog, cfg.LowStockThreshold, lg.Named("catalog")),
			services.NewCartService(st.carts, st.catalog, lg.Named("cart")),
			services.NewOrderService(st.catalog, st.orders, lg.Named("orders")),
			lg,
		)

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Use(echomw.Recover())
		e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
		e.Use(middleware.RequestLogger(lg.Named("http")))
		e.Use(middleware.Metrics)
		e.Use(echomw.CORS())
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
		routes.SetupRoutes(e, h, tokens)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			lg.Info("Server starting", zap.String("addr", cfg.Addr), zap.String("driver", cfg.Driver))
			if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "serve")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			lg.Info("Shutting down")
			return e.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}
