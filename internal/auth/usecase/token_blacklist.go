package usecase

import (
	"context"
	"time"

	"tacticsboard-auth/internal/auth/domain/repository"
	"tacticsboard-auth/internal/observability/metrics"
	apperrors "tacticsboard-auth/internal/shared/errors"
	"tacticsboard-auth/internal/shared/logger"
)

const blacklistKeyPrefix = "blacklist:"

// minBlacklistTTL keeps an entry visible for at least one second so a token
// revoked in its final moments is still rejected by in-flight requests.
const minBlacklistTTL = time.Second

func blacklistKey(token string) string { return blacklistKeyPrefix + token }

// TokenBlacklistInterface marks access tokens as revoked ahead of their
// natural expiry, so a stateless token can be vetoed after logout.
type TokenBlacklistInterface interface {
	BlacklistToken(ctx context.Context, token string, remainingLifetime time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) bool
}

// TokenBlacklist records revoked tokens in the cache tier only. There is
// deliberately no durable fallback: while the cache is down, revocation is
// skipped with a warning and the token stays valid until its own expiry.
// That availability-over-security tradeoff is inherited from the session
// design and must not be silently changed.
type TokenBlacklist struct {
	cache  repository.Cache
	logger logger.Logger
}

// NewTokenBlacklist creates a blacklist over the injected cache client.
func NewTokenBlacklist(cache repository.Cache, log logger.Logger) *TokenBlacklist {
	return &TokenBlacklist{
		cache:  cache,
		logger: log.WithComponent("token_blacklist"),
	}
}

var _ TokenBlacklistInterface = (*TokenBlacklist)(nil)

// BlacklistToken writes a presence key under blacklist:{token} with a TTL
// equal to the token's remaining lifetime, so the entry disappears exactly
// when the token would have expired anyway and the blacklist never needs
// pruning. With the cache unavailable this is a logged no-op.
func (b *TokenBlacklist) BlacklistToken(ctx context.Context, token string, remainingLifetime time.Duration) error {
	if token == "" {
		return apperrors.NewValidationError("token is required")
	}
	if remainingLifetime <= 0 {
		return nil
	}
	ttl := remainingLifetime
	if ttl < minBlacklistTTL {
		ttl = minBlacklistTTL
	}

	if !b.cache.IsAvailable(ctx) {
		b.logger.WithContext(ctx).Warn("Blacklist write skipped, cache unavailable, token stays valid until natural expiry")
		metrics.BlacklistDecisionsTotal.WithLabelValues("blacklist", "skipped").Inc()
		return nil
	}

	if err := b.cache.Set(ctx, blacklistKey(token), "revoked", ttl); err != nil {
		b.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Warn("Blacklist write failed, token stays valid until natural expiry")
		metrics.BlacklistDecisionsTotal.WithLabelValues("blacklist", "skipped").Inc()
		return nil
	}
	metrics.BlacklistDecisionsTotal.WithLabelValues("blacklist", "ok").Inc()
	return nil
}

// IsTokenBlacklisted reports whether the token was explicitly revoked. It
// fails open: whenever the cache cannot answer, the token is treated as not
// blacklisted, regardless of any earlier BlacklistToken call.
func (b *TokenBlacklist) IsTokenBlacklisted(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	if !b.cache.IsAvailable(ctx) {
		b.logger.WithContext(ctx).Debug("Blacklist check skipped, cache unavailable")
		metrics.BlacklistDecisionsTotal.WithLabelValues("check", "fail_open").Inc()
		return false
	}

	revoked, err := b.cache.Exists(ctx, blacklistKey(token))
	if err != nil {
		b.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Debug("Blacklist check failed, failing open")
		metrics.BlacklistDecisionsTotal.WithLabelValues("check", "fail_open").Inc()
		return false
	}

	result := "miss"
	if revoked {
		result = "hit"
	}
	metrics.BlacklistDecisionsTotal.WithLabelValues("check", result).Inc()
	return revoked
}
