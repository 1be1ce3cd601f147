package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/middleware"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/utils"
)

// productFilter reads category, minPrice, maxPrice and search query params.
func productFilter(c echo.Context) (models.ProductFilter, error) {
	f := models.ProductFilter{
		Category: models.Category(c.QueryParam("category")),
		Search:   c.QueryParam("search"),
	}
	for param, dst := range map[string]**decimal.Decimal{
		"minPrice": &f.MinPrice,
		"maxPrice": &f.MaxPrice,
	} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return f, models.Invalid(param, "Invalid %s", param)
		}
		*dst = &v
	}
	return f, nil
}

func (h *Handler) GetProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return h.respondError(c, err)
	}
	products, err := h.Catalog.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{
		"count":    len(products),
		"products": products,
	})
}

func (h *Handler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id", "product")
	if err != nil {
		return h.respondError(c, err)
	}
	product, err := h.Catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{"product": product})
}

type reviewRequest struct {
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	UserName string `json:"userName"`
}

func (h *Handler) AddReview(c echo.Context) error {
	id, err := parseID(c, "id", "product")
	if err != nil {
		return h.respondError(c, err)
	}
	var req reviewRequest
	if err := bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	product, err := h.Catalog.AddReview(c.Request().Context(), id, models.Review{
		UserID:   middleware.CurrentUserID(c),
		UserName: req.UserName,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusCreated, "Review added successfully", utils.Payload{"product": product})
}

func (h *Handler) GetAllProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return h.respondError(c, err)
	}
	products, err := h.Catalog.ListAllProducts(c.Request().Context(), filter)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{
		"count":    len(products),
		"products": products,
	})
}

type createProductRequest struct {
	Name          string          `json:"name"`
	Category      models.Category `json:"category"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	Stock         int             `json:"stock"`
	Ingredients   []string        `json:"ingredients"`
	SkinType      []string        `json:"skinType"`
	HairType      []string        `json:"hairType"`
	Images        []string        `json:"images"`
	IsActive      *bool           `json:"isActive"`
}

func (h *Handler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	product := &models.Product{
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		Ingredients:   req.Ingredients,
		SkinType:      req.SkinType,
		HairType:      req.HairType,
		Images:        req.Images,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	product, err := h.Catalog.CreateProduct(c.Request().Context(), product)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusCreated, "Product created successfully", utils.Payload{"product": product})
}

func (h *Handler) UpdateProduct(c echo.Context) error {
	id, err := parseID(c, "id", "product")
	if err != nil {
		return h.respondError(c, err)
	}
	var patch models.ProductPatch
	if err := bind(c, &patch); err != nil {
		return h.respondError(c, err)
	}

	product, err := h.Catalog.UpdateProduct(c.Request().Context(), id, patch)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "Product updated successfully", utils.Payload{"product": product})
}

func (h *Handler) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id", "product")
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.Catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.Catalog.Stats(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{"stats": stats})
}
