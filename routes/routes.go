package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/handlers"
	customMiddleware "github.com/Madhav-Gupta-28/o2herbal-backend-go/middleware"
)

func SetupRoutes(e *echo.Echo, h *handlers.Handler, tokens customMiddleware.TokenValidator) {
	auth := customMiddleware.Auth(tokens)

	e.GET("/health", handlers.Health)

	api := e.Group("/api")

	// User routes
	api.POST("/users/register", h.RegisterUser)
	api.POST("/users/login", h.LoginUser)
	api.GET("/users/me", h.GetUserProfile, auth)

	// Product routes
	api.GET("/products", h.GetProducts)
	api.GET("/products/:id", h.GetProduct)
	api.POST("/products/:id/review", h.AddReview, auth)

	// Cart routes
	api.POST("/cart/quote", h.QuoteCart)
	cart := api.Group("/cart", auth)
	cart.GET("", h.GetCart)
	cart.POST("", h.AddToCart)
	cart.PUT("/quantity", h.UpdateCartItemQuantity)
	cart.DELETE("/:productId", h.RemoveFromCart)

	// Order routes
	orders := api.Group("/orders", auth)
	orders.POST("", h.CreateOrder)
	orders.GET("/user", h.GetUserOrders)
	orders.GET("/:id", h.GetOrder)

	// Admin routes
	admin := api.Group("/admin", auth, customMiddleware.AdminOnly)
	admin.GET("/orders", h.GetAllOrders)
	admin.PUT("/orders/:id", h.UpdateOrderStatus)
	admin.GET("/products", h.GetAllProducts)
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.GET("/stats", h.GetStats)

	e.HTTPErrorHandler = h.HTTPErrorHandler
}
