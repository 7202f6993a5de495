package repository

import (
	"context"
	"time"

	"tacticsboard-auth/internal/auth/domain/model"
)

// SessionStore is the contract shared by both session backends. The session
// manager holds one instance per tier and routes each call through Available
// instead of branching on connection state inline, so a backend can be
// swapped or stubbed without touching the manager.
type SessionStore interface {
	// Create persists a session. The cache tier derives the entry TTL from
	// the session's remaining lifetime; the durable tier relies on read-time
	// expiry checks instead.
	Create(ctx context.Context, session *model.Session) error

	// GetByID returns the session or errors.ErrSessionNotFound. An expired
	// session is reported as not found.
	GetByID(ctx context.Context, id string) (*model.Session, error)

	// GetByUserID returns all live sessions owned by the user.
	GetByUserID(ctx context.Context, userID string) ([]*model.Session, error)

	// GetByRefreshToken returns the session holding the given refresh token
	// or errors.ErrSessionNotFound. The durable tier resolves it through the
	// unique refresh_token column, the cache tier through a secondary index
	// key written alongside the session.
	GetByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error)

	// DeleteByID removes a session. Deleting an absent session is not an
	// error.
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID removes every session owned by the user.
	DeleteByUserID(ctx context.Context, userID string) error

	// Available reports whether the backend can currently serve requests.
	// The durable tier always reports true; its failures surface as errors
	// from the operations themselves.
	Available(ctx context.Context) bool
}

// DurableSessionStore extends SessionStore with the periodic expiry sweep.
// The cache tier has no equivalent because its entries expire natively.
type DurableSessionStore interface {
	SessionStore

	// DeleteExpiredBefore removes sessions whose expiry precedes the given
	// instant and returns the number of rows removed.
	DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error)
}
