package config

import (
	"errors"
	"net"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the auth module.
type Config struct {
	// JWT Configuration
	JWTSecretKey    string        `env:"JWT_SECRET_KEY,required"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"tacticsboard-auth-service"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"` // 7 days

	// Cookie Configuration
	CookieName       string `env:"COOKIE_NAME" envDefault:"tb_refresh_token"`
	AccessCookieName string `env:"ACCESS_COOKIE_NAME" envDefault:"tb_access_token"`
	CookiePath       string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain     string `env:"COOKIE_DOMAIN" envDefault:""`      // Defaults to host, empty is fine
	CookieSecure     bool   `env:"COOKIE_SECURE" envDefault:"false"` // Set to true in production
	CookieHTTPOnly   bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite   string `env:"COOKIE_SAME_SITE" envDefault:"Lax"` // "Lax", "Strict", "None"

	// Expired durable sessions are swept on this interval.
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	// Redis Configuration for the cache tier
	Redis RedisConfig
}

// RedisConfig holds connection settings for the session cache tier.
type RedisConfig struct {
	Host            string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string        `env:"REDIS_PORT" envDefault:"6379"`
	Password        string        `env:"REDIS_PASSWORD" envDefault:""`
	Database        int           `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool          `env:"REDIS_ENABLE_TLS" envDefault:"false"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime time.Duration `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// GetAddr returns the host:port address of the Redis server.
func (c *RedisConfig) GetAddr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load auth configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, errors.New("failed to load redis configuration from environment: " + err.Error())
	}

	// Validations after attempting to load from environment
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("jwt_secret_key is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("access_token_ttl must be positive")
	}
	if cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return nil, errors.New("refresh_token_ttl must exceed access_token_ttl")
	}

	switch cfg.CookieSameSite {
	case "Lax", "Strict", "None", "lax", "strict", "none":
	default:
		return nil, errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	if cfg.SessionCleanupInterval < time.Minute {
		cfg.SessionCleanupInterval = time.Minute
	}

	return cfg, nil
}
