package cache

import (
	"context"
	"fmt"
	"time"

	"tacticsboard-auth/internal/auth/domain/model"
	"tacticsboard-auth/internal/auth/domain/repository"
	apperrors "tacticsboard-auth/internal/shared/errors"
	"tacticsboard-auth/internal/shared/logger"
)

// Cache key namespaces. The session key carries the serialized session with
// a TTL equal to its remaining lifetime, the user index is a SET of session
// ids with no TTL, and the refresh index maps a refresh token back to its
// session id so the refresh flow can find cache-resident sessions.
const (
	sessionKeyPrefix      = "session:"
	userSessionsKeyPrefix = "user_sessions:"
	refreshTokenKeyPrefix = "refresh_token:"
)

func sessionKey(id string) string          { return sessionKeyPrefix + id }
func userSessionsKey(userID string) string { return userSessionsKeyPrefix + userID }
func refreshTokenKey(token string) string  { return refreshTokenKeyPrefix + token }

// SessionStore is the cache tier session backend. Sessions live under
// session:{id} with native expiry; the per-user index makes "log out
// everywhere" possible without a scan.
type SessionStore struct {
	cache  repository.Cache
	logger logger.Logger
}

// NewSessionStore creates the cache-backed session store.
func NewSessionStore(c repository.Cache, log logger.Logger) *SessionStore {
	return &SessionStore{
		cache:  c,
		logger: log.WithComponent("cache_session_store"),
	}
}

var _ repository.SessionStore = (*SessionStore)(nil)

// Create writes the session key, the refresh token index and the user index
// member. The index updates are server-side set operations, so concurrent
// creates for one user cannot lose each other's entries. If a later step
// fails the earlier keys are rolled back and the error is returned, leaving
// the caller free to fall back to the durable tier.
func (s *SessionStore) Create(ctx context.Context, session *model.Session) error {
	ttl := session.RemainingTTL(time.Now())
	if ttl <= 0 {
		return apperrors.NewValidationError("session already expired")
	}

	if err := s.cache.SetObject(ctx, sessionKey(session.ID), session, ttl); err != nil {
		return err
	}
	if err := s.cache.Set(ctx, refreshTokenKey(session.RefreshToken), session.ID, ttl); err != nil {
		s.rollback(ctx, session, sessionKey(session.ID))
		return err
	}
	if err := s.cache.SAdd(ctx, userSessionsKey(session.UserID), session.ID); err != nil {
		s.rollback(ctx, session, sessionKey(session.ID), refreshTokenKey(session.RefreshToken))
		return err
	}
	return nil
}

func (s *SessionStore) rollback(ctx context.Context, session *model.Session, keys ...string) {
	if _, err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"session_id": session.ID,
			"error":      err.Error(),
		}).Warn("Session create rollback failed, entry expires via TTL")
	}
}

// GetByID returns the cached session. A missing or malformed entry is a
// cache miss; an entry past its expiry is deleted and reported as missing.
func (s *SessionStore) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := s.cache.GetObject(ctx, sessionKey(id), &session); err != nil {
		if apperrors.IsCacheUnavailable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("session %q: %w", id, apperrors.ErrSessionNotFound)
	}
	if session.IsExpired(time.Now()) {
		if err := s.DeleteByID(ctx, id); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			}).Warn("Failed to evict expired session")
		}
		return nil, fmt.Errorf("session %q: %w", id, apperrors.ErrSessionNotFound)
	}
	return &session, nil
}

// GetByUserID loads every session listed in the user index. Ids whose
// session key has expired are pruned from the index as they are discovered.
func (s *SessionStore) GetByUserID(ctx context.Context, userID string) ([]*model.Session, error) {
	ids, err := s.cache.SMembers(ctx, userSessionsKey(userID))
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.GetByID(ctx, id)
		if err != nil {
			if apperrors.IsCacheUnavailable(err) {
				return nil, err
			}
			if err := s.cache.SRem(ctx, userSessionsKey(userID), id); err != nil {
				s.logger.WithFields(map[string]interface{}{
					"user_id":    userID,
					"session_id": id,
					"error":      err.Error(),
				}).Warn("Failed to prune stale session id from user index")
			}
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// GetByRefreshToken resolves the refresh index to a session id and loads the
// session. A dangling index entry is treated as not found and pruned.
func (s *SessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	id, err := s.cache.Get(ctx, refreshTokenKey(refreshToken))
	if err != nil {
		if apperrors.IsCacheUnavailable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("refresh token: %w", apperrors.ErrSessionNotFound)
	}

	session, err := s.GetByID(ctx, id)
	if err != nil {
		if !apperrors.IsCacheUnavailable(err) {
			if _, delErr := s.cache.Del(ctx, refreshTokenKey(refreshToken)); delErr != nil {
				s.logger.WithFields(map[string]interface{}{
					"session_id": id,
					"error":      delErr.Error(),
				}).Warn("Failed to prune dangling refresh token index")
			}
		}
		return nil, err
	}
	return session, nil
}

// DeleteByID removes the session key, its refresh index entry and its user
// index member. Deleting an absent session is not an error; its index
// entries, if any remain, are pruned lazily by the read paths.
func (s *SessionStore) DeleteByID(ctx context.Context, id string) error {
	var session model.Session
	if err := s.cache.GetObject(ctx, sessionKey(id), &session); err != nil {
		if apperrors.IsCacheUnavailable(err) {
			return err
		}
		return nil
	}

	if _, err := s.cache.Del(ctx, sessionKey(id), refreshTokenKey(session.RefreshToken)); err != nil {
		return err
	}
	if err := s.cache.SRem(ctx, userSessionsKey(session.UserID), id); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id":    session.UserID,
			"session_id": id,
			"error":      err.Error(),
		}).Warn("Failed to remove session id from user index")
	}
	return nil
}

// DeleteByUserID removes every session listed in the user index plus the
// index key itself in a single multi-key delete.
func (s *SessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := s.cache.SMembers(ctx, userSessionsKey(userID))
	if err != nil {
		return err
	}

	keys := make([]string, 0, 2*len(ids)+1)
	for _, id := range ids {
		var session model.Session
		if err := s.cache.GetObject(ctx, sessionKey(id), &session); err == nil {
			keys = append(keys, refreshTokenKey(session.RefreshToken))
		}
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	if _, err := s.cache.Del(ctx, keys...); err != nil {
		return err
	}
	return nil
}

// Available reports whether the cache tier can serve requests right now.
func (s *SessionStore) Available(ctx context.Context) bool {
	return s.cache.IsAvailable(ctx)
}
