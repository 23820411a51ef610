package ratelimit

import (
	"context"
	"fmt"
	"log"

	"github.com/example/task-manager/domain/ratelimit"
	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module provides rate limiting as a mono module.
type Module struct {
	client     *redis.Client
	middleware *Middleware
	config     ratelimit.MiddlewareConfig
	redisAddr  string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new rate limiting module. The middleware is ready
// before Start so the api module can mount it while building routes.
func NewModule(redisAddr string, config ratelimit.MiddlewareConfig) *Module {
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	return &Module{
		client:     client,
		middleware: NewMiddleware(client, config),
		config:     config,
		redisAddr:  redisAddr,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ratelimit"
}

// Start checks the connection. The limiter fails open, so an unreachable
// Redis only produces a warning.
func (m *Module) Start(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		log.Printf("[ratelimit] Warning: Redis at %s unreachable, auth routes are not rate limited: %v", m.redisAddr, err)
	} else {
		log.Printf("[ratelimit] Connected to Redis at %s (auth: %d requests per %s)",
			m.redisAddr, m.config.AuthConfig.RequestsPerWindow, m.config.AuthConfig.WindowSize)
	}
	log.Println("[ratelimit] Module started")
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		log.Printf("[ratelimit] Error closing Redis connection: %v", err)
	}
	log.Println("[ratelimit] Module stopped")
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	details := map[string]any{
		"auth_requests_per_window": m.config.AuthConfig.RequestsPerWindow,
		"auth_window":              m.config.AuthConfig.WindowSize.String(),
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
			Details: details,
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}

// GetMiddleware returns the rate limiting middleware.
func (m *Module) GetMiddleware() *Middleware {
	return m.middleware
}
