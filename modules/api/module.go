package api

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/realtime"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// AuthLimiter guards the unauthenticated auth routes.
type AuthLimiter interface {
	AuthRateLimit() fiber.Handler
}

// HealthChecker reports the health of one module.
type HealthChecker interface {
	Health(ctx context.Context) mono.HealthStatus
}

type healthCheck struct {
	name   string
	module HealthChecker
}

// APIModule is the HTTP API module.
type APIModule struct {
	app          *fiber.App
	config       config.HTTPConfig
	authAdapter  auth.AuthPort
	taskAdapter  task.TaskPort
	limiter      AuthLimiter
	hub          *realtime.Hub
	healthChecks []healthCheck
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg config.HTTPConfig) *APIModule {
	return &APIModule{config: cfg}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	}
}

// SetRateLimiter sets the auth route limiter (called from main.go).
func (m *APIModule) SetRateLimiter(limiter AuthLimiter) {
	m.limiter = limiter
}

// SetHub sets the realtime hub (called from main.go).
func (m *APIModule) SetHub(hub *realtime.Hub) {
	m.hub = hub
}

// AddHealthCheck includes module in the GET /health report.
func (m *APIModule) AddHealthCheck(name string, module HealthChecker) {
	m.healthChecks = append(m.healthChecks, healthCheck{name: name, module: module})
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.taskAdapter == nil {
		return fmt.Errorf("task dependency not set")
	}

	m.app = m.newApp()

	go func() {
		if err := m.app.Listen(m.config.Address); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s (health checks: %v)", m.config.Address, m.moduleNames())
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{"address": m.config.Address}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// newApp builds the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		BodyLimit:             m.config.BodyLimit,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.config.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	m.setupRoutes(app)
	return app
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	handlers := NewHandlers(m.authAdapter, m.taskAdapter)

	app.Get("/health", m.healthHandler)

	if m.hub != nil {
		app.Use("/ws", m.wsAuth)
		app.Get("/ws", websocket.New(m.handleWebSocket))
	}

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	if m.limiter != nil {
		authRoutes.Post("/register", m.limiter.AuthRateLimit(), handlers.Register)
		authRoutes.Post("/login", m.limiter.AuthRateLimit(), handlers.Login)
	} else {
		authRoutes.Post("/register", handlers.Register)
		authRoutes.Post("/login", handlers.Login)
	}
	authRoutes.Get("/profile", AuthMiddleware(m.authAdapter), handlers.Profile)

	tasks := api.Group("/tasks", AuthMiddleware(m.authAdapter))
	tasks.Post("/", handlers.CreateTask)
	tasks.Get("/", handlers.ListTasks)
	tasks.Get("/stats", handlers.TaskStats)
	tasks.Get("/:id", handlers.GetTask)
	tasks.Put("/:id", handlers.UpdateTask)
	tasks.Delete("/:id", handlers.DeleteTask)
}

// healthHandler handles GET /health. It always answers 200; a failing
// module turns the status to "degraded".
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "healthy",
		Modules: make(map[string]ModuleHealth, len(m.healthChecks)),
	}

	for _, check := range m.healthChecks {
		status := check.module.Health(c.UserContext())
		resp.Modules[check.name] = ModuleHealth{
			Healthy: status.Healthy,
			Message: status.Message,
			Details: status.Details,
		}
		if !status.Healthy {
			resp.Status = "degraded"
		}
	}

	return c.JSON(resp)
}

// moduleNames lists the modules included in the health report.
func (m *APIModule) moduleNames() []string {
	names := make([]string, 0, len(m.healthChecks))
	for _, check := range m.healthChecks {
		names = append(names, check.name)
	}
	sort.Strings(names)
	return names
}
