package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tacticsboard-auth/internal/auth/adapter/cache"
	authhttp "tacticsboard-auth/internal/auth/adapter/http"
	"tacticsboard-auth/internal/auth/adapter/persistence/postgres"
	"tacticsboard-auth/internal/auth/adapter/security"
	"tacticsboard-auth/internal/auth/config"
	"tacticsboard-auth/internal/auth/domain/repository"
	"tacticsboard-auth/internal/auth/usecase"
	"tacticsboard-auth/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// sweepTimeout bounds one cleanup pass against the durable store.
const sweepTimeout = 30 * time.Second

// AuthModule wires the complete authentication module: both session store
// tiers, the session manager, the token blacklist, the token service and
// the HTTP surface. The redis client and database handle are injected; their
// lifecycle belongs to the process entry point.
type AuthModule struct {
	cache     repository.Cache
	sessions  usecase.SessionManagerInterface
	blacklist usecase.TokenBlacklistInterface
	tokenSvc  repository.TokenService
	usecase   usecase.AuthUsecaseInterface
	handler   *authhttp.AuthHTTPHandler
	config    *config.Config
	logger    logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewAuthModule creates a new authentication module instance
func NewAuthModule(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	redisCache := cache.NewRedisCache(redisClient, log)
	cacheStore := cache.NewSessionStore(redisCache, log)
	durableStore := postgres.NewSessionStore(db, log)
	users := postgres.NewUserRepository(db)

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	sessions := usecase.NewSessionManager(cacheStore, durableStore, log)
	blacklist := usecase.NewTokenBlacklist(redisCache, log)
	authUsecase := usecase.NewAuthUsecase(users, sessions, blacklist, tokenSvc, cfg)
	handler := authhttp.NewAuthHTTPHandler(authUsecase, sessions, cfg)

	return &AuthModule{
		cache:     redisCache,
		sessions:  sessions,
		blacklist: blacklist,
		tokenSvc:  tokenSvc,
		usecase:   authUsecase,
		handler:   handler,
		config:    cfg,
		logger:    log.WithComponent("auth_module"),
		stopCh:    make(chan struct{}),
	}, nil
}

// RegisterRoutes registers authentication routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	middleware := am.GetMiddleware()
	am.handler.SetupAuthRoutesWithMiddleware(router, middleware)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetSessionManager returns the session manager for external access
func (am *AuthModule) GetSessionManager() usecase.SessionManagerInterface {
	return am.sessions
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return authhttp.NewAuthMiddleware(am.usecase, am.blacklist, am.config.AccessCookieName)
}

// CacheAvailable reports whether the cache tier currently answers pings.
func (am *AuthModule) CacheAvailable(ctx context.Context) bool {
	return am.cache.IsAvailable(ctx)
}

// Start launches the background cleanup sweeper. Cache entries expire on
// their own; only the durable store accumulates dead rows.
func (am *AuthModule) Start() {
	am.wg.Add(1)
	go am.runCleanupLoop()
	am.logger.WithFields(map[string]interface{}{
		"interval": am.config.SessionCleanupInterval.String(),
	}).Info("Session cleanup sweeper started")
}

// Stop terminates the cleanup sweeper and waits for it to finish.
func (am *AuthModule) Stop() error {
	close(am.stopCh)
	am.wg.Wait()
	return nil
}

func (am *AuthModule) runCleanupLoop() {
	defer am.wg.Done()

	ticker := time.NewTicker(am.config.SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-am.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if _, err := am.sessions.CleanupExpiredSessions(ctx); err != nil {
				am.logger.WithFields(map[string]interface{}{
					"error": err.Error(),
				}).Error("Session cleanup sweep failed")
			}
			cancel()
		}
	}
}
