// Package config loads application settings from a YAML file and/or the
// environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DevJWTSecret is the signing secret used when none is configured. It is
// refused in production.
const DevJWTSecret = "dev-secret-change-in-production"

type HTTPConfig struct {
	Address      string `yaml:"address" env:"HTTP_ADDRESS" env-default:":5000"`
	AllowOrigins string `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS" env-default:"*"`
	BodyLimit    int    `yaml:"body_limit" env:"HTTP_BODY_LIMIT" env-default:"1048576"`
}

type DatabaseConfig struct {
	// Driver is either "sqlite" or "postgres".
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DB_DSN" env-default:"task_manager.db?_busy_timeout=5000"`
	Debug  bool   `yaml:"debug" env:"DB_DEBUG" env-default:"false"`
}

type JWTConfig struct {
	SecretKey string        `yaml:"secret_key" env:"JWT_SECRET_KEY" env-default:"dev-secret-change-in-production"`
	Issuer    string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"task-manager"`
	TTL       time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"168h"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	StatsTTL time.Duration `yaml:"stats_ttl" env:"REDIS_STATS_TTL" env-default:"5m"`
}

type RateLimitConfig struct {
	AuthRequests int           `yaml:"auth_requests" env:"RATE_LIMIT_AUTH_REQUESTS" env-default:"20"`
	AuthWindow   time.Duration `yaml:"auth_window" env:"RATE_LIMIT_AUTH_WINDOW" env-default:"15m"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Config struct {
	// Env is "development" or "production".
	Env             string          `yaml:"env" env:"APP_ENV" env-default:"development"`
	HTTP            HTTPConfig      `yaml:"http"`
	Database        DatabaseConfig  `yaml:"database"`
	JWT             JWTConfig       `yaml:"jwt"`
	Redis           RedisConfig     `yaml:"redis"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Log             LogConfig       `yaml:"log"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Load reads configPath when it exists and falls back to the environment
// otherwise. An empty path reads only the environment.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("cannot read env: %w", err)
		}
		return cfg, cfg.Validate()
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("cannot read config %q: %w", configPath, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("cannot read env: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

// MustLoad is Load that exits the process on error.
func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.SecretKey == "" {
		return errors.New("jwt secret key is required")
	}
	if c.Env == "production" && c.JWT.SecretKey == DevJWTSecret {
		return errors.New("jwt secret key must be set in production")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	if c.RateLimit.AuthRequests < 1 {
		return errors.New("rate limit auth requests must be at least 1")
	}
	return nil
}

// ErrorsOnly reports whether framework logging should be limited to errors.
func (c Config) ErrorsOnly() bool {
	return strings.EqualFold(c.Log.Level, "error")
}
