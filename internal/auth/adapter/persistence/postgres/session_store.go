package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tacticsboard-auth/internal/auth/domain/model"
	"tacticsboard-auth/internal/auth/domain/repository"
	apperrors "tacticsboard-auth/internal/shared/errors"
	"tacticsboard-auth/internal/shared/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStore is the durable session backend. It is consulted whenever the
// cache tier cannot serve a request, so its failures are the one condition
// the session subsystem cannot recover from locally.
type SessionStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewSessionStore creates the Postgres-backed session store.
func NewSessionStore(db *gorm.DB, log logger.Logger) *SessionStore {
	return &SessionStore{
		db:     db,
		logger: log.WithComponent("postgres_session_store"),
	}
}

var _ repository.DurableSessionStore = (*SessionStore)(nil)

// Create inserts the session row, generating id and created_at when unset.
func (s *SessionStore) Create(ctx context.Context, session *model.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return durableErr("create session", err)
	}
	return nil
}

// GetByID returns the session row. The table has no storage-level TTL, so
// rows past their expiry are filtered here and left for the cleanup sweep.
func (s *SessionStore) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %q: %w", id, apperrors.ErrSessionNotFound)
	}
	if err != nil {
		return nil, durableErr("get session", err)
	}
	if session.IsExpired(time.Now()) {
		return nil, fmt.Errorf("session %q: %w", id, apperrors.ErrSessionNotFound)
	}
	return &session, nil
}

// GetByUserID returns the user's live sessions.
func (s *SessionStore) GetByUserID(ctx context.Context, userID string) ([]*model.Session, error) {
	var sessions []*model.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, durableErr("list sessions", err)
	}
	return sessions, nil
}

// GetByRefreshToken returns the session holding the refresh token. Expired
// sessions are reported as not found so a stale token cannot be redeemed.
func (s *SessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	var session model.Session
	err := s.db.WithContext(ctx).First(&session, "refresh_token = ?", refreshToken).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("refresh token: %w", apperrors.ErrSessionNotFound)
	}
	if err != nil {
		return nil, durableErr("get session by refresh token", err)
	}
	if session.IsExpired(time.Now()) {
		return nil, fmt.Errorf("refresh token: %w", apperrors.ErrSessionNotFound)
	}
	return &session, nil
}

// DeleteByID removes the session row. Deleting an absent row is not an error.
func (s *SessionStore) DeleteByID(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&model.Session{}, "id = ?", id).Error; err != nil {
		return durableErr("delete session", err)
	}
	return nil
}

// DeleteByUserID removes every session row owned by the user.
func (s *SessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Delete(&model.Session{}, "user_id = ?", userID).Error; err != nil {
		return durableErr("delete user sessions", err)
	}
	return nil
}

// DeleteExpiredBefore removes rows whose expiry precedes t and returns the
// number removed. Called by the periodic cleanup sweep.
func (s *SessionStore) DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	tx := s.db.WithContext(ctx).Where("expires_at < ?", t).Delete(&model.Session{})
	if tx.Error != nil {
		return 0, durableErr("delete expired sessions", tx.Error)
	}
	return tx.RowsAffected, nil
}

// Available always reports true. Durable tier failures surface as errors
// from the operations themselves, not as a capability change.
func (s *SessionStore) Available(ctx context.Context) bool {
	return true
}

func durableErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, apperrors.ErrDurableStore)
}
