package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.Driver)
	assert.Equal(t, "o2herbal", cfg.Mongo.Database)
	assert.Equal(t, 10*time.Second, cfg.Mongo.Timeout)
	assert.False(t, cfg.Mongo.Transactions, "standalone servers reject transactions")
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_PlatformVariables(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-platform")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-platform", cfg.JWT.Secret)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, ":8081", cfg.Addr)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Driver: DriverMemory}
	require.Error(t, cfg.Validate())

	cfg.JWT.Secret = "x"
	require.NoError(t, cfg.Validate())

	cfg.Driver = "sqlite"
	require.Error(t, cfg.Validate())
}
