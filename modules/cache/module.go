package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis client used for caching.
type Module struct {
	client     *redis.Client
	cache      *Cache
	statsCache *TaskStatsCache
	redisAddr  string
	ttl        time.Duration
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new cache module. The client is created here so the
// stats cache can be handed to other modules before Start; it does not
// connect until first use.
func NewModule(redisAddr string, ttl time.Duration) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	c := New(client, "task:", ttl)

	return &Module{
		client:     client,
		cache:      c,
		statsCache: NewTaskStatsCache(c),
		redisAddr:  redisAddr,
		ttl:        ttl,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start checks the connection. An unreachable Redis is not fatal.
func (m *Module) Start(ctx context.Context) error {
	if err := m.cache.Ping(ctx); err != nil {
		log.Printf("[cache] Warning: Redis at %s unreachable, stats will be computed on every request: %v", m.redisAddr, err)
	} else {
		log.Printf("[cache] Connected to Redis at %s (TTL: %s)", m.redisAddr, m.ttl)
	}
	log.Println("[cache] Module started")
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		log.Printf("[cache] Error closing Redis connection: %v", err)
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health reports Redis reachability and cache statistics.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	stats := m.cache.GetStats()
	details := map[string]any{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"hit_rate": stats.HitRate,
		"errors":   stats.Errors,
	}
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
			Details: details,
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}

// GetCache returns the underlying cache.
func (m *Module) GetCache() *Cache {
	return m.cache
}

// GetStatsCache returns the task stats cache.
func (m *Module) GetStatsCache() *TaskStatsCache {
	return m.statsCache
}
