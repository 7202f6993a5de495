package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tacticsboard-auth/internal/auth/config"
	"tacticsboard-auth/internal/db/migrate"
	"tacticsboard-auth/internal/di"
	"tacticsboard-auth/internal/observability/metrics"
	obsmiddleware "tacticsboard-auth/internal/observability/middleware"
	"tacticsboard-auth/internal/shared/database"
	"tacticsboard-auth/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "tacticsboard-auth"

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"localhost"`
	Port string `env:"SERVER_PORT" envDefault:"3000"`
}

func main() {
	fmt.Println("🚀 Tactics Board Auth - Starting Application...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	// Load server configuration
	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewLogger()
	appLogger.Info("Application configuration loaded successfully")

	// Register metrics before any instrumented code path runs
	metrics.MustRegister(serviceName)

	// Load auth configuration
	authConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load auth configuration: %v", err)
	}

	// Load database configuration and apply pending migrations
	dbConfig := database.Config{}
	if err := env.Parse(&dbConfig); err != nil {
		log.Fatalf("Failed to load database configuration: %v", err)
	}
	if err := migrate.Run(dbConfig.DSN, "up"); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	appLogger.Info("Database migrations applied")

	// Initialize Dependency Injection Container
	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	if err := container.InitializeDatabase(dbConfig); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := container.InitializeRedis(&authConfig.Redis); err != nil {
		log.Fatalf("Failed to initialize redis client: %v", err)
	}
	if err := container.InitializeAuth(authConfig); err != nil {
		log.Fatalf("Failed to initialize Auth module: %v", err)
	}
	appLogger.Info("Auth module initialized successfully")

	// Setup HTTP server (Fiber) with middleware
	app := fiber.New(fiber.Config{
		AppName:      "Tactics Board Auth API v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			appLogger.Errorf("HTTP Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		},
	})

	// Add middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000,http://localhost:5173",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(obsmiddleware.WithMetrics())

	authModule := container.GetAuthModule()
	if authModule != nil {
		authMW := authModule.GetMiddleware()
		app.Use(authMW.RequestID())
		app.Use(authMW.SecurityHeaders())
	}

	// Health check endpoint. The durable store is the fatal dependency;
	// the cache tier is reported but a cache outage alone never takes
	// the service out of rotation.
	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		cacheStatus := "down"
		if container.CacheHealthy(healthCtx) {
			cacheStatus = "up"
		}

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "UNHEALTHY",
				"error":  err.Error(),
				"components": fiber.Map{
					"database": "down",
					"cache":    cacheStatus,
				},
			})
		}

		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
			"components": fiber.Map{
				"database": "up",
				"cache":    cacheStatus,
			},
		})
	})

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register module routes
	if authModule != nil {
		authModule.RegisterRoutes(app.Group("/api/v1/auth"))
		appLogger.Info("Auth routes registered")
	}

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("🌟 All modules initialized. Starting HTTP server on %s", serverAddr)

	// Start server in a goroutine for graceful shutdown
	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Errorf("Server failed to start: %v", err)
			log.Fatalf("Server startup failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)
		fmt.Println("🛑 Shutting down server gracefully...")

		// Shutdown the server with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}

		appLogger.Info("HTTP server stopped")
	}

	fmt.Println("✅ Application stopped gracefully.")
}
