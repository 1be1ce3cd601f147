package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

func TestJWT_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	token, err := m.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := m.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestJWT_RejectsForeignSecretAndExpiry(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}

	token, err := NewJWTManager("one", time.Hour).GenerateJWT(user)
	require.NoError(t, err)
	_, err = NewJWTManager("two", time.Hour).ValidateJWT(token)
	require.Error(t, err)

	expired, err := NewJWTManager("one", -time.Minute).GenerateJWT(user)
	require.NoError(t, err)
	_, err = NewJWTManager("one", time.Hour).ValidateJWT(expired)
	require.Error(t, err)
}
