package costsync

import (
	"context"
	"time"
)

// Session is an authenticated remote platform session. Token carries the
// cookie material returned by the platform login endpoint.
type Session struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// IsStale reports whether the session is older than maxAge at the given
// reference time. A zero IssuedAt is always stale.
func (s *Session) IsStale(now time.Time, maxAge time.Duration) bool {
	if s == nil || s.Token == "" || s.IssuedAt.IsZero() {
		return true
	}
	return now.Sub(s.IssuedAt) > maxAge
}

// SessionStore persists the single platform session across restarts.
// Load returns shared.ErrNotFound when no session has been saved yet.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session *Session) error
}
