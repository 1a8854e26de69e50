package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	// Database (DATABASE_URL wins over the discrete DB_* settings)
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"postgres"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"require"`

	Supabase Supabase `envPrefix:"SUPABASE_"`
	Asaas    Asaas    `envPrefix:"ASAAS_"`

	// Idempotency keys (in-memory unless REDIS_URL is set)
	RedisURL            string        `env:"REDIS_URL"`
	IdempotencyLifetime time.Duration `env:"IDEMPOTENCY_LIFETIME" envDefault:"24h"`

	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"30s"`

	// Admin
	AdminEmails  string `env:"ADMIN_EMAILS"`
	AdminUserIDs string `env:"ADMIN_USER_IDS"`
	AdminToken   string `env:"ADMIN_TOKEN"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	SentryDSN   string `env:"SENTRY_DSN"`

	LogRetentionDays int `env:"LOG_RETENTION_DAYS" envDefault:"30"`
}

type Supabase struct {
	URL        string        `env:"URL,notEmpty"`
	Key        string        `env:"KEY,notEmpty"`
	ServiceKey string        `env:"SERVICE_KEY,notEmpty"`
	JWTSecret  string        `env:"JWT_SECRET,notEmpty"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type Asaas struct {
	APIURL     string        `env:"API_URL" envDefault:"https://api-sandbox.asaas.com/v3"`
	APIKey     string        `env:"API_KEY,notEmpty"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"15s"`
	RateLimit  float64       `env:"RATE_LIMIT" envDefault:"5"`
	RateBurst  int           `env:"RATE_BURST" envDefault:"10"`
	MaxRetries uint64        `env:"MAX_RETRIES" envDefault:"3"`
}

// Load parses the process environment. Missing required values are reported
// together in one error.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DatabaseURL == "" && cfg.DBPassword == "" {
		return nil, errors.New("DATABASE_URL or DB_PASSWORD environment variable is required")
	}
	return cfg, nil
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// JWTIssuer is the issuer Supabase stamps on the access tokens it mints.
func (c *Config) JWTIssuer() string {
	return strings.TrimRight(c.Supabase.URL, "/") + "/auth/v1"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
