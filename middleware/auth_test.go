package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/utils"
)

func serve(t *testing.T, e *echo.Echo, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newEcho(tokens *utils.JWTManager, admin bool) *echo.Echo {
	e := echo.New()
	h := func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUserID(c).Hex()+" "+string(CurrentRole(c)))
	}
	if admin {
		e.GET("/private", h, Auth(tokens), AdminOnly)
	} else {
		e.GET("/private", h, Auth(tokens))
	}
	return e
}

func token(t *testing.T, tokens *utils.JWTManager, role models.Role) (primitive.ObjectID, string) {
	t.Helper()
	user := &models.User{ID: primitive.NewObjectID(), Role: role}
	tok, err := tokens.GenerateJWT(user)
	require.NoError(t, err)
	return user.ID, tok
}

func TestAuth(t *testing.T) {
	tokens := utils.NewJWTManager("secret", time.Hour)
	e := newEcho(tokens, false)
	id, tok := token(t, tokens, models.RoleUser)

	rec := serve(t, e, "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id.Hex()+" user", rec.Body.String())

	for name, header := range map[string]string{
		"missing":   "",
		"no scheme": tok,
		"garbage":   "Bearer not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, e, header)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
		})
	}

	other := utils.NewJWTManager("other-secret", time.Hour)
	_, forged := token(t, other, models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, serve(t, e, "Bearer "+forged).Code)
}

func TestAdminOnly(t *testing.T) {
	tokens := utils.NewJWTManager("secret", time.Hour)
	e := newEcho(tokens, true)

	_, userTok := token(t, tokens, models.RoleUser)
	assert.Equal(t, http.StatusForbidden, serve(t, e, "Bearer "+userTok).Code)

	_, adminTok := token(t, tokens, models.RoleAdmin)
	assert.Equal(t, http.StatusOK, serve(t, e, "Bearer "+adminTok).Code)
}
