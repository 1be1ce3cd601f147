package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/middleware"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/pricing"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/utils"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (r cartItemRequest) productID() (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(r.ProductID)
	if err != nil {
		return primitive.NilObjectID, models.Invalid("productId", "Invalid product ID")
	}
	return id, nil
}

func cartPayload(view *services.CartView) utils.Payload {
	return utils.Payload{"cart": view, "quote": view.Quote}
}

func (h *Handler) GetCart(c echo.Context) error {
	view, err := h.Carts.GetCart(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", cartPayload(view))
}

func (h *Handler) AddToCart(c echo.Context) error {
	var req cartItemRequest
	if err := bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	productID, err := req.productID()
	if err != nil {
		return h.respondError(c, err)
	}

	view, err := h.Carts.AddItem(c.Request().Context(), middleware.CurrentUserID(c), productID, req.Quantity)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "Item added to cart", cartPayload(view))
}

func (h *Handler) UpdateCartItemQuantity(c echo.Context) error {
	var req cartItemRequest
	if err := bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	productID, err := req.productID()
	if err != nil {
		return h.respondError(c, err)
	}

	view, err := h.Carts.SetQuantity(c.Request().Context(), middleware.CurrentUserID(c), productID, req.Quantity)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "Cart updated", cartPayload(view))
}

func (h *Handler) RemoveFromCart(c echo.Context) error {
	productID, err := parseID(c, "productId", "product")
	if err != nil {
		return h.respondError(c, err)
	}

	view, err := h.Carts.RemoveItem(c.Request().Context(), middleware.CurrentUserID(c), productID)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "Item removed from cart", cartPayload(view))
}

type quoteRequest struct {
	Items []pricing.Line `json:"items"`
}

func (h *Handler) QuoteCart(c echo.Context) error {
	var req quoteRequest
	if err := bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	quote, err := h.Carts.Quote(req.Items)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{"quote": quote})
}
