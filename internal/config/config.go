package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Config holds all server configuration
type Config struct {
	Port         string `env:"PORT,default=8080"`
	StoreBackend string `env:"STORE_BACKEND,default=json"`
	StorageDir   string `env:"STORAGE_DIR,default=./data"`
	SQLitePath   string `env:"SQLITE_PATH"`
	PostgresDSN  string `env:"POSTGRES_DSN"`

	RedisAddr      string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB,default=0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX"`

	MongoURI        string `env:"MONGO_URI"`
	MongoDatabase   string `env:"MONGO_DATABASE,default=storefront"`
	MongoCollection string `env:"MONGO_COLLECTION,default=collections"`

	RawCORSOrigins          string `env:"CORS_ORIGINS,default=*"`
	APIKey                  string `env:"API_KEY"`
	RawProtectedCollections string `env:"PROTECTED_COLLECTIONS"`
	RawTrustedProxies       string `env:"TRUSTED_PROXIES"`

	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS,default=10"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST,default=20"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
	LogOutput string `env:"LOG_OUTPUT,default=stdout"`
	LogFile   string `env:"LOG_FILE,default=logs/storefront.log"`

	// Parsed from the raw values above
	CORSOrigins          []string
	ProtectedCollections []string
	TrustedProxies       []string
}

// Load reads configuration from environment variables with sensible defaults.
// Variables from the file named by ENV_FILE (default .env) are loaded first
// without overriding the environment; a missing file is ignored.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.CORSOrigins = parseCORSOrigins(cfg.RawCORSOrigins)
	cfg.ProtectedCollections = parseList(cfg.RawProtectedCollections)
	cfg.TrustedProxies = parseList(cfg.RawTrustedProxies)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case store.BackendJSON, store.BackendSQLite, store.BackendMemory:
	case store.BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	case store.BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	case store.BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND: %q", c.StoreBackend)
	}

	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative, got %d", c.RedisDB)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}

	for _, name := range c.ProtectedCollections {
		if !models.IsKnownCollection(name) {
			return fmt.Errorf("PROTECTED_COLLECTIONS: unknown collection %q", name)
		}
	}
	for _, proxy := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err != nil && net.ParseIP(proxy) == nil {
			return fmt.Errorf("TRUSTED_PROXIES: invalid IP or CIDR %q", proxy)
		}
	}
	return nil
}

// StoreOptions maps the configuration onto store.Open options
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.StoreBackend,
		Dir:         c.StorageDir,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		Redis: store.RedisOptions{
			Addr:      c.RedisAddr,
			Password:  c.RedisPassword,
			DB:        c.RedisDB,
			KeyPrefix: c.RedisKeyPrefix,
		},
		Mongo: store.MongoOptions{
			URI:        c.MongoURI,
			Database:   c.MongoDatabase,
			Collection: c.MongoCollection,
		},
	}
}

// LoggerConfig maps the configuration onto logger options
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	cfg.Output = c.LogOutput
	cfg.File = c.LogFile
	return cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseCORSOrigins parses a comma-separated list of CORS origins
func parseCORSOrigins(origins string) []string {
	if origins == "*" {
		return []string{"*"}
	}

	result := parseList(origins)
	if len(result) == 0 {
		return []string{"*"}
	}

	return result
}

// parseList splits a comma-separated value, dropping blanks
func parseList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
