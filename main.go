package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/task-manager/config"
	rldomain "github.com/example/task-manager/domain/ratelimit"
	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/cache"
	"github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/realtime"
	"github.com/example/task-manager/modules/task"
	"github.com/example/task-manager/pkg/database"
)

func main() {
	log.Println("=== Task Manager ===")

	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))

	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if cfg.ErrorsOnly() {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	dbConfig := database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.Database.Debug,
	}

	authModule := auth.NewModule(dbConfig, auth.JWTConfig{
		SecretKey:     cfg.JWT.SecretKey,
		TokenDuration: cfg.JWT.TTL,
		Issuer:        cfg.JWT.Issuer,
	})

	cacheModule := cache.NewModule(cfg.Redis.Addr, cfg.Redis.StatsTTL)

	taskModule := task.NewModule(dbConfig)
	taskModule.SetCache(cacheModule.GetStatsCache())

	rlConfig := rldomain.DefaultMiddlewareConfig()
	rlConfig.AuthConfig = rldomain.Config{
		RequestsPerWindow: cfg.RateLimit.AuthRequests,
		WindowSize:        cfg.RateLimit.AuthWindow,
	}
	rateLimitModule := ratelimit.NewModule(cfg.Redis.Addr, rlConfig)

	realtimeModule := realtime.NewModule()

	// Manual wiring for things that are not mono services
	apiModule := api.NewModule(cfg.HTTP)
	apiModule.SetRateLimiter(rateLimitModule.GetMiddleware())
	apiModule.SetHub(realtimeModule.GetHub())
	apiModule.AddHealthCheck(authModule.Name(), authModule)
	apiModule.AddHealthCheck(taskModule.Name(), taskModule)
	apiModule.AddHealthCheck(cacheModule.Name(), cacheModule)
	apiModule.AddHealthCheck(rateLimitModule.Name(), rateLimitModule)
	apiModule.AddHealthCheck(realtimeModule.Name(), realtimeModule)

	// Order: service providers first, the HTTP driver last
	app.Register(authModule)
	app.Register(taskModule)
	app.Register(cacheModule)
	app.Register(rateLimitModule)
	app.Register(realtimeModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("Database: %s, Redis: %s", cfg.Database.Driver, cfg.Redis.Addr)
	log.Println("")
	log.Printf("REST API Endpoints (%s):", cfg.HTTP.Address)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/auth/register   - Register a new user")
	log.Println("  POST   /api/auth/login      - Login and get a token")
	log.Println("  GET    /health              - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/auth/profile    - Current user")
	log.Println("  GET    /api/tasks           - List tasks (status, priority, type, search, sortBy, sortOrder, page, limit)")
	log.Println("  POST   /api/tasks           - Create a task")
	log.Println("  GET    /api/tasks/stats     - Task counts by status")
	log.Println("  GET    /api/tasks/:id       - Get a task")
	log.Println("  PUT    /api/tasks/:id       - Update a task")
	log.Println("  DELETE /api/tasks/:id       - Delete a task")
	log.Println("  GET    /ws?token=...        - Live task updates")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
