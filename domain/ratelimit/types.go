// Package ratelimit provides domain types for request rate limiting.
package ratelimit

import (
	"context"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerWindow is the maximum number of requests allowed in the window.
	RequestsPerWindow int
	// WindowSize is the duration of the sliding window.
	WindowSize time.Duration
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request was rejected.
	RetryAfter time.Duration
}

// Limiter is implemented by rate limiting backends.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// MiddlewareConfig configures the HTTP rate limiting middleware.
type MiddlewareConfig struct {
	// AuthConfig limits the unauthenticated login and register endpoints per client IP.
	AuthConfig Config
	// KeyPrefix is the prefix for all rate limit keys in Redis.
	KeyPrefix string
}

// DefaultAuthConfig allows 20 auth attempts per IP per 15 minutes.
func DefaultAuthConfig() Config {
	return Config{
		RequestsPerWindow: 20,
		WindowSize:        15 * time.Minute,
	}
}

// DefaultMiddlewareConfig returns the default middleware configuration.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		AuthConfig: DefaultAuthConfig(),
		KeyPrefix:  "ratelimit:",
	}
}
