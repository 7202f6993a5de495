package model

import "time"

// Session represents one authenticated login. The same record shape is
// stored in both backends: the cache tier keeps it under session:{id} with a
// TTL, the durable tier keeps it as a row in the sessions table.
type Session struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       string    `json:"user_id" gorm:"type:uuid;index;not null"`
	RefreshToken string    `json:"refresh_token" gorm:"uniqueIndex;not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"index;not null"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// IsExpired reports whether the session is logically dead regardless of
// which backend it was read from.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// RemainingTTL returns the session's remaining lifetime truncated to whole
// seconds. This is the TTL used for the cache entry, so the cache can never
// serve the session past ExpiresAt.
func (s *Session) RemainingTTL(now time.Time) time.Duration {
	if s.IsExpired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now).Truncate(time.Second)
}
