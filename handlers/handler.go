// Package handlers adapts the storefront services to HTTP.
package handlers

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/utils"
)

type Handler struct {
	Users   *services.UserService
	Catalog *services.CatalogService
	Carts   *services.CartService
	Orders  *services.OrderService

	lg *zap.Logger
}

func New(users *services.UserService, catalog *services.CatalogService, carts *services.CartService, orders *services.OrderService, lg *zap.Logger) *Handler {
	return &Handler{
		Users:   users,
		Catalog: catalog,
		Carts:   carts,
		Orders:  orders,
		lg:      lg,
	}
}

// respondError maps a service error to its HTTP status. Unexpected errors
// are logged and answered with a generic message.
func (h *Handler) respondError(c echo.Context, err error) error {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		return utils.Fail(c, http.StatusBadRequest, validation.Message)
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrAlreadyReviewed),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidTransition):
		return utils.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		return utils.Fail(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, models.ErrForbidden):
		return utils.Fail(c, http.StatusForbidden, "Not authorized to access this resource")
	case errors.Is(err, models.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, notFoundMessage(err))
	case errors.Is(err, models.ErrConflict):
		return utils.Fail(c, http.StatusConflict, err.Error())
	}

	h.lg.Error("Request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return utils.Fail(c, http.StatusInternalServerError, "Internal server error")
}

func notFoundMessage(err error) string {
	var missing *models.ProductNotFoundError
	if errors.As(err, &missing) {
		return missing.Error()
	}
	return "Resource not found"
}

// parseID reads an ObjectID path parameter.
func parseID(c echo.Context, param, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, models.Invalid(param, "Invalid %s ID", label)
	}
	return id, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return models.Invalid("body", "Invalid request format")
	}
	return nil
}

// HTTPErrorHandler renders errors that escape the handlers, such as unknown
// routes or recovered panics, with the error envelope.
func (h *Handler) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		_ = h.respondError(c, err)
		return
	}
	message := http.StatusText(he.Code)
	switch {
	case he.Code == http.StatusNotFound:
		message = "Route not found"
	case he.Code < http.StatusInternalServerError:
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}
	_ = utils.Fail(c, he.Code, message)
}

func Health(c echo.Context) error {
	return utils.Respond(c, http.StatusOK, "", utils.Payload{"status": "ok"})
}
