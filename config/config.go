package config

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds the application configuration, loadable from a .env file,
// STORE_-prefixed environment variables or a YAML config file.
type Config struct {
	Env               string   `default:"development" usage:"Runtime environment (development, production)"`
	Addr              string   `default:":5000" usage:"HTTP listen address"`
	Driver            string   `default:"mongo" usage:"Storage driver (mongo, memory)"`
	AdminEmails       []string `usage:"Emails that receive the admin role on registration"`
	LowStockThreshold int      `default:"10" usage:"Stock level below which a product counts as low stock"`
	Mongo             MongoConfig
	JWT               JWTConfig
	Redis             RedisConfig
}

type MongoConfig struct {
	URI          string        `default:"mongodb://localhost:27017" usage:"MongoDB connection URI"`
	Database     string        `default:"o2herbal" usage:"MongoDB database name"`
	Timeout      time.Duration `default:"10s" usage:"Per-operation timeout"`
	Transactions bool          `default:"false" usage:"Reserve order stock inside a multi-document transaction (needs a replica set)"`
}

type JWTConfig struct {
	Secret string        `usage:"HMAC secret used to sign tokens"`
	TTL    time.Duration `default:"720h" usage:"Token lifetime"`
}

// RedisConfig configures the product read cache. An empty Addr disables it.
type RedisConfig struct {
	Addr string        `default:"" usage:"Redis address for the product cache"`
	TTL  time.Duration `default:"5m" usage:"Cached product lifetime"`
}

// LoadEnv loads environment variables from a .env file
func LoadEnv() {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load(".env")
}

// GetEnv retrieves environment variables with a fallback
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Load reads .env, then the environment and config files, and validates the result.
func Load() (*Config, error) {
	LoadEnv()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		SkipFlags: true,
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required: set STORE_JWT_SECRET")
	}
	switch c.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo uri is required: set STORE_MONGO_URI or MONGODB_URI")
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown storage driver %q", c.Driver)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// applyPlatformDefaults honours the conventional PORT, MONGODB_URI and
// JWT_SECRET variables when the prefixed ones are absent.
func (c *Config) applyPlatformDefaults() {
	if _, ok := os.LookupEnv("STORE_MONGO_URI"); !ok {
		if v := os.Getenv("MONGODB_URI"); v != "" {
			c.Mongo.URI = v
		}
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = os.Getenv("JWT_SECRET")
	}
	if port := GetEnv("PORT", ""); port != "" && c.Addr == ":5000" {
		c.Addr = ":" + port
	}
}
