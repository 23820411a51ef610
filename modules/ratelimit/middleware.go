package ratelimit

import (
	"log"
	"strconv"

	"github.com/example/task-manager/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Middleware provides rate limiting middleware for Fiber.
type Middleware struct {
	authLimiter *SlidingWindowLimiter
	config      ratelimit.MiddlewareConfig
}

// NewMiddleware creates a new rate limiting middleware.
func NewMiddleware(client *redis.Client, config ratelimit.MiddlewareConfig) *Middleware {
	return &Middleware{
		authLimiter: NewSlidingWindowLimiter(client, config.AuthConfig, config.KeyPrefix+"auth:"),
		config:      config,
	}
}

// AuthRateLimit limits the login and register endpoints by client IP.
// When Redis is unavailable requests are let through.
func (m *Middleware) AuthRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := m.authLimiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			log.Printf("[ratelimit] Warning: limiter unavailable, allowing request: %v", err)
			return c.Next()
		}

		setRateLimitHeaders(c, result, m.config.AuthConfig.RequestsPerWindow)

		if !result.Allowed {
			return sendRateLimitExceeded(c, result)
		}
		return c.Next()
	}
}

func setRateLimitHeaders(c *fiber.Ctx, result *ratelimit.Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func sendRateLimitExceeded(c *fiber.Ctx, result *ratelimit.Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"message":    "Too many requests, please try again later",
		"retryAfter": retryAfter,
	})
}
