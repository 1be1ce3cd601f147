package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/middleware"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/utils"
)

func (h *Handler) RegisterUser(c echo.Context) error {
	var req services.RegisterRequest
	if err := bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	session, err := h.Users.Register(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusCreated, "User registered successfully", utils.Payload{
		"user":  session.User,
		"token": session.Token,
	})
}

func (h *Handler) LoginUser(c echo.Context) error {
	var req services.LoginRequest
	if err := bind(c, &req); err != nil {
		return h.respondError(c, err)
	}

	session, err := h.Users.Login(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "Login successful", utils.Payload{
		"user":  session.User,
		"token": session.Token,
	})
}

func (h *Handler) GetUserProfile(c echo.Context) error {
	user, err := h.Users.Me(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return utils.Respond(c, http.StatusOK, "", utils.Payload{"user": user})
}
