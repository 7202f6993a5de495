package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"tacticsboard-auth/internal/auth"
	"tacticsboard-auth/internal/auth/config"
	"tacticsboard-auth/internal/shared/database"
	"tacticsboard-auth/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container represents a dependency injection container with proper lifecycle management
type Container struct {
	mu        sync.RWMutex
	services  map[reflect.Type]interface{}
	factories map[reflect.Type]func() (interface{}, error)
	// Module instances
	AuthModule *auth.AuthModule
	// Shared connections. Owned here: opened by the Initialize methods,
	// closed by Cleanup in reverse order.
	DB          *gorm.DB
	RedisClient *redis.Client
	// Configuration
	AuthConfig *config.Config
	// Logger
	Logger logger.Logger
}

// NewContainer creates a new DI container
func NewContainer(log logger.Logger) *Container {
	return &Container{
		services:  make(map[reflect.Type]interface{}),
		factories: make(map[reflect.Type]func() (interface{}, error)),
		Logger:    log,
	}
}

// InitializeDatabase opens the durable store connection.
func (c *Container) InitializeDatabase(dbConfig database.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	db, err := database.Open(dbConfig, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	c.DB = db
	return nil
}

// InitializeRedis connects the cache tier. An unreachable cache is not an
// error: the session subsystem keeps working durable-only and picks the
// cache back up per call once it returns.
func (c *Container) InitializeRedis(redisConfig *config.RedisConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	client := config.NewRedisClient(redisConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		c.Logger.WithFields(map[string]interface{}{
			"addr":  redisConfig.GetAddr(),
			"error": err.Error(),
		}).Warn("Cache tier unreachable at startup, sessions run durable-only until it returns")
	}

	c.RedisClient = client
	return nil
}

// InitializeAuth initializes the authentication module and starts its
// background cleanup sweeper.
func (c *Container) InitializeAuth(authConfig *config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.DB == nil {
		return fmt.Errorf("database must be initialized before the auth module")
	}
	if c.RedisClient == nil {
		return fmt.Errorf("redis client must be initialized before the auth module")
	}

	c.AuthConfig = authConfig

	authModule, err := auth.NewAuthModule(c.DB, c.RedisClient, authConfig, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	authModule.Start()

	c.AuthModule = authModule
	return nil
}

// Register registers a service instance
func (c *Container) Register(service interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	serviceType := reflect.TypeOf(service)
	if serviceType.Kind() == reflect.Ptr {
		serviceType = serviceType.Elem()
	}

	c.services[serviceType] = service
	return nil
}

// RegisterFactory registers a factory function for a service
func (c *Container) RegisterFactory(serviceType reflect.Type, factory func() (interface{}, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.factories[serviceType] = factory
	return nil
}

// Resolve resolves a service by type
func (c *Container) Resolve(serviceType reflect.Type) (interface{}, error) {
	c.mu.RLock()

	// Check if service instance exists
	if service, exists := c.services[serviceType]; exists {
		c.mu.RUnlock()
		return service, nil
	}

	// Check if factory exists
	if factory, exists := c.factories[serviceType]; exists {
		c.mu.RUnlock()

		// Create new instance using factory
		service, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create service: %w", err)
		}

		// Register the created instance
		c.mu.Lock()
		c.services[serviceType] = service
		c.mu.Unlock()

		return service, nil
	}

	c.mu.RUnlock()
	return nil, fmt.Errorf("service of type %v not registered", serviceType)
}

// GetService is a generic helper for resolving services
func GetService[T any](c *Container) (T, error) {
	var zero T
	serviceType := reflect.TypeOf(zero)

	service, err := c.Resolve(serviceType)
	if err != nil {
		return zero, err
	}

	if typedService, ok := service.(T); ok {
		return typedService, nil
	}

	return zero, fmt.Errorf("service is not of expected type %T", zero)
}

// GetAuthModule returns the auth module instance
func (c *Container) GetAuthModule() *auth.AuthModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.AuthModule
}

// HealthCheck verifies the durable store connection. The cache tier is
// deliberately excluded: its outage degrades but does not break the
// service. Callers report cache reachability separately.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.DB != nil {
		if err := database.Ping(ctx, c.DB); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}

// CacheHealthy reports whether the cache tier currently answers pings.
func (c *Container) CacheHealthy(ctx context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.RedisClient == nil {
		return false
	}
	return c.RedisClient.Ping(ctx).Err() == nil
}

// Cleanup performs cleanup of registered services with proper shutdown order
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	// Stop modules before closing the connections they use.
	if c.AuthModule != nil {
		if err := c.AuthModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop auth module: %w", err))
		}
		c.AuthModule = nil
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
		c.RedisClient = nil
	}

	if c.DB != nil {
		if err := database.Close(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		c.DB = nil
	}

	// Cleanup generic services
	for _, service := range c.services {
		if cleaner, ok := service.(interface{ Cleanup(context.Context) error }); ok {
			if err := cleaner.Cleanup(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to cleanup service: %w", err))
			}
		}
	}

	// Clear all services
	c.services = make(map[reflect.Type]interface{})
	c.factories = make(map[reflect.Type]func() (interface{}, error))

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close gracefully shuts down all services in the container with timeout
func (c *Container) Close() error {
	fmt.Println("Closing DI Container resources...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		fmt.Printf("Warning: cleanup errors occurred: %v\n", err)
	}

	fmt.Println("DI Container resources closed.")
	return nil
}
