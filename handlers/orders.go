package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/middleware"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/utils"
)

type CreateOrderRequest struct {
	OrderItems      []models.StockRequest  `json:"orderItems"`
	TotalAmount     *decimal.Decimal       `json:"totalAmount"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	Notes           string                 `json:"notes"`
}

func requester(c echo.Context) services.Requester {
	return services.Requester{
		UserID: middleware.CurrentUserID(c),
		Role:   middleware.CurrentRole(c),
	}
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	if req.TotalAmount == nil {
		return h.respondError(c, models.Invalid("totalAmount", "Total amount is required"))
	}

	ctx := c.Request().Context()
	userID := middleware.CurrentUserID(c)
	order, err := h.Orders.PlaceOrder(ctx, services.PlaceOrderRequest{
		UserID:          userID,
		Items:           req.OrderItems,
		DeclaredTotal:   *req.TotalAmount,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	if err := h.Carts.Clear(ctx, userID); err != nil {
		h.lg.Warn("Failed to clear cart after order", zap.String("user_id", userID.Hex()), zap.Error(err))
	}
	return utils.Respond(c, http.StatusCreated, "Order created successfully", utils.Payload{"order": order})
}

func (h *Handler) GetUserOrders(c echo.Context) error {
	orders, err := h.Orders.GetOrdersByUser(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{
		"count":  len(orders),
		"orders": orders,
	})
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := parseID(c, "id", "order")
	if err != nil {
		return h.respondError(c, err)
	}
	order, err := h.Orders.GetOrder(c.Request().Context(), id, requester(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{"order": order})
}

func (h *Handler) GetAllOrders(c echo.Context) error {
	orders, err := h.Orders.GetAllOrders(c.Request().Context(), requester(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{
		"count":  len(orders),
		"orders": orders,
	})
}

func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	id, err := parseID(c, "id", "order")
	if err != nil {
		return h.respondError(c, err)
	}
	var update models.OrderStatusUpdate
	if err := bind(c, &update); err != nil {
		return h.respondError(c, err)
	}

	order, err := h.Orders.UpdateOrderStatus(c.Request().Context(), id, update, requester(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "Order status updated", utils.Payload{"order": order})
}
