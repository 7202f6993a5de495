package usecase

import (
	"context"
	"sort"
	"time"

	"tacticsboard-auth/internal/auth/domain/model"
	"tacticsboard-auth/internal/auth/domain/repository"
	"tacticsboard-auth/internal/observability/metrics"
	apperrors "tacticsboard-auth/internal/shared/errors"
	"tacticsboard-auth/internal/shared/logger"

	"github.com/google/uuid"
)

// SessionManagerInterface defines the session lifecycle contract consumed by
// the auth usecase and the cleanup sweeper.
type SessionManagerInterface interface {
	CreateSession(ctx context.Context, userID, refreshToken string, expiresAt time.Time, ipAddress, userAgent string) (*model.Session, error)
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	ListUserSessions(ctx context.Context, userID string) ([]*model.Session, error)
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// SessionManager orchestrates the session lifecycle across the cache and
// durable tiers. The cache is preferred whenever it reports available;
// every cache failure is recovered by falling back to the durable store, so
// the only error class callers ever see is a durable store failure with no
// remaining fallback.
type SessionManager struct {
	cache   repository.SessionStore
	durable repository.DurableSessionStore
	logger  logger.Logger
}

// NewSessionManager creates a session manager over the two storage tiers.
// cache may be nil, which pins every operation to the durable store.
func NewSessionManager(
	cache repository.SessionStore,
	durable repository.DurableSessionStore,
	log logger.Logger,
) *SessionManager {
	return &SessionManager{
		cache:   cache,
		durable: durable,
		logger:  log.WithComponent("session_manager"),
	}
}

var _ SessionManagerInterface = (*SessionManager)(nil)

func (m *SessionManager) cacheUsable(ctx context.Context) bool {
	return m.cache != nil && m.cache.Available(ctx)
}

// CreateSession persists a new session and returns it with its generated id.
// The cache tier is tried first; any failure on that path falls through to
// the durable store rather than surfacing, so a login never fails merely
// because the cache degraded mid-operation. The returned session is
// discoverable by GetSession on whichever tier absorbed the write.
func (m *SessionManager) CreateSession(
	ctx context.Context,
	userID, refreshToken string,
	expiresAt time.Time,
	ipAddress, userAgent string,
) (*model.Session, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	if refreshToken == "" {
		return nil, apperrors.NewValidationError("refresh token is required")
	}
	now := time.Now()
	if !expiresAt.After(now) {
		return nil, apperrors.NewValidationError("session expiry must be in the future")
	}

	session := &model.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		CreatedAt:    now,
	}

	if m.cacheUsable(ctx) {
		err := m.cache.Create(ctx, session)
		if err == nil {
			metrics.SessionOperationsTotal.WithLabelValues("create", "cache", "ok").Inc()
			return session, nil
		}
		m.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"user_id":    userID,
			"session_id": session.ID,
			"error":      err.Error(),
		}).Warn("Cache session create failed, falling back to durable store")
		metrics.CacheFallbacksTotal.WithLabelValues("create").Inc()
	}

	if err := m.durable.Create(ctx, session); err != nil {
		metrics.SessionOperationsTotal.WithLabelValues("create", "durable", "error").Inc()
		return nil, err
	}
	metrics.SessionOperationsTotal.WithLabelValues("create", "durable", "ok").Inc()
	return session, nil
}

// GetSession returns the session by id, trying the cache first and the
// durable store on a miss or cache outage. The first tier that answers
// wins; results are never merged. An absent session is reported as
// errors.ErrSessionNotFound.
func (m *SessionManager) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, apperrors.NewValidationError("session id is required")
	}

	if m.cacheUsable(ctx) {
		session, err := m.cache.GetByID(ctx, sessionID)
		if err == nil {
			metrics.SessionOperationsTotal.WithLabelValues("get", "cache", "ok").Inc()
			return session, nil
		}
		if !apperrors.IsNotFound(err) {
			m.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Cache session read failed, trying durable store")
			metrics.CacheFallbacksTotal.WithLabelValues("get").Inc()
		}
	}

	session, err := m.durable.GetByID(ctx, sessionID)
	if err != nil {
		result := "error"
		if apperrors.IsNotFound(err) {
			result = "miss"
		}
		metrics.SessionOperationsTotal.WithLabelValues("get", "durable", result).Inc()
		return nil, err
	}
	metrics.SessionOperationsTotal.WithLabelValues("get", "durable", "ok").Inc()
	return session, nil
}

// GetSessionByRefreshToken returns the session holding the refresh token,
// cache-first like GetSession. A durable hit re-warms the cache copy on a
// best-effort basis so later reads for the same session stay on the fast
// tier.
func (m *SessionManager) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	if refreshToken == "" {
		return nil, apperrors.NewValidationError("refresh token is required")
	}

	cacheUp := m.cacheUsable(ctx)
	if cacheUp {
		session, err := m.cache.GetByRefreshToken(ctx, refreshToken)
		if err == nil {
			return session, nil
		}
		if !apperrors.IsNotFound(err) {
			m.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Warn("Cache refresh token lookup failed, trying durable store")
			metrics.CacheFallbacksTotal.WithLabelValues("get_by_refresh_token").Inc()
			cacheUp = false
		}
	}

	session, err := m.durable.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if cacheUp && session.RemainingTTL(time.Now()) > 0 {
		if err := m.cache.Create(ctx, session); err != nil {
			m.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"session_id": session.ID,
				"error":      err.Error(),
			}).Debug("Failed to re-warm session into cache")
		}
	}
	return session, nil
}

// DeleteSession removes the session from both tiers. Deleting an absent
// session is not an error, so the operation is safe to repeat. A cache
// failure is logged and otherwise ignored; the entry self-expires via its
// TTL. A durable failure propagates since no fallback remains.
func (m *SessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.NewValidationError("session id is required")
	}

	if m.cacheUsable(ctx) {
		if err := m.cache.DeleteByID(ctx, sessionID); err != nil {
			m.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Cache session delete failed, entry expires via TTL")
		}
	}

	if err := m.durable.DeleteByID(ctx, sessionID); err != nil {
		metrics.SessionOperationsTotal.WithLabelValues("delete", "durable", "error").Inc()
		return err
	}
	metrics.SessionOperationsTotal.WithLabelValues("delete", "durable", "ok").Inc()
	return nil
}

// DeleteUserSessions is the "log out everywhere" operation. The cache index
// is cleared first, then the durable rows are removed unconditionally so
// that sessions created during a past cache outage are revoked too. No
// session may remain reachable through either tier afterwards.
func (m *SessionManager) DeleteUserSessions(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.NewValidationError("user id is required")
	}

	if m.cacheUsable(ctx) {
		if err := m.cache.DeleteByUserID(ctx, userID); err != nil {
			m.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("Cache bulk session delete failed, entries expire via TTL")
		}
	}

	if err := m.durable.DeleteByUserID(ctx, userID); err != nil {
		metrics.SessionOperationsTotal.WithLabelValues("delete_all", "durable", "error").Inc()
		return err
	}
	metrics.SessionOperationsTotal.WithLabelValues("delete_all", "durable", "ok").Inc()
	return nil
}

// ListUserSessions returns the user's live sessions across both tiers,
// deduplicated by id and ordered newest first. A durable failure is
// tolerated when the cache already answered; the reverse also holds.
func (m *SessionManager) ListUserSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}

	seen := make(map[string]bool)
	var sessions []*model.Session

	cacheAnswered := false
	if m.cacheUsable(ctx) {
		cached, err := m.cache.GetByUserID(ctx, userID)
		if err == nil {
			cacheAnswered = true
			for _, s := range cached {
				if !seen[s.ID] {
					seen[s.ID] = true
					sessions = append(sessions, s)
				}
			}
		} else {
			m.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("Cache session list failed, using durable store only")
		}
	}

	durable, err := m.durable.GetByUserID(ctx, userID)
	if err != nil {
		if cacheAnswered {
			m.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("Durable session list failed, returning cache results only")
		} else {
			return nil, err
		}
	}
	for _, s := range durable {
		if !seen[s.ID] {
			seen[s.ID] = true
			sessions = append(sessions, s)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// CleanupExpiredSessions removes durable rows whose expiry has passed and
// returns how many were deleted. Cache entries need no sweep, their TTL
// already removed them.
func (m *SessionManager) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	count, err := m.durable.DeleteExpiredBefore(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		m.logger.WithFields(map[string]interface{}{
			"count": count,
		}).Info("Removed expired sessions from durable store")
		metrics.SessionsCleanedTotal.WithLabelValues().Add(float64(count))
	}
	return count, nil
}
