package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/utils"
)

// Context keys set by Auth.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateJWT(token string) (*utils.Claims, error)
}

// Auth requires a valid bearer token and stores the caller's id and role in
// the request context.
func Auth(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return utils.Fail(c, http.StatusUnauthorized, "Missing authorization header")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return utils.Fail(c, http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := tokens.ValidateJWT(tokenParts[1])
			if err != nil {
				return utils.Fail(c, http.StatusUnauthorized, "Invalid or expired token")
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				return utils.Fail(c, http.StatusUnauthorized, "Invalid user ID")
			}

			c.Set(UserIDKey, userID)
			c.Set(RoleKey, claims.Role)
			return next(c)
		}
	}
}

// AdminOnly rejects callers without the admin role. It must run after Auth.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentRole(c) != models.RoleAdmin {
			return utils.Fail(c, http.StatusForbidden, "Admin access required")
		}
		return next(c)
	}
}

// CurrentUserID returns the authenticated user's id, or a zero id.
func CurrentUserID(c echo.Context) primitive.ObjectID {
	id, _ := c.Get(UserIDKey).(primitive.ObjectID)
	return id
}

func CurrentRole(c echo.Context) models.Role {
	role, _ := c.Get(RoleKey).(models.Role)
	return role
}
