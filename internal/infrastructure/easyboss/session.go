package easyboss

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/domain/shared"
)

// SessionManager hands out a usable platform session, logging in only
// when the persisted one is missing or older than the staleness
// threshold. The platform invalidates concurrent sessions, so reuse
// matters more than freshness.
type SessionManager struct {
	client *Client
	store  costsync.SessionStore
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionManager creates a session manager over the given store.
func NewSessionManager(client *Client, store costsync.SessionStore, maxAge time.Duration, logger *zap.Logger) *SessionManager {
	if maxAge <= 0 {
		maxAge = 20 * time.Hour
	}
	return &SessionManager{
		client: client,
		store:  store,
		maxAge: maxAge,
		logger: logger.Named("session"),
		now:    time.Now,
	}
}

// EnsureFresh returns the persisted session if it is younger than the
// staleness threshold, otherwise performs a login and persists the
// replacement before returning it.
func (m *SessionManager) EnsureFresh(ctx context.Context) (*costsync.Session, error) {
	session, err := m.store.Load(ctx)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, costsync.NewAuthenticationError("load persisted session", err)
	}

	now := m.now()
	if !session.IsStale(now, m.maxAge) {
		m.logger.Debug("reusing persisted session", zap.Time("issued_at", session.IssuedAt))
		return session, nil
	}

	return m.Login(ctx)
}

// Login forces a fresh login and persists the resulting session,
// replacing whatever the store held.
func (m *SessionManager) Login(ctx context.Context) (*costsync.Session, error) {
	token, err := m.client.Login(ctx)
	if err != nil {
		return nil, err
	}

	session := &costsync.Session{Token: token, IssuedAt: m.now()}
	if err := m.store.Save(ctx, session); err != nil {
		return nil, costsync.NewAuthenticationError("persist session", err)
	}

	m.logger.Info("session refreshed", zap.Time("issued_at", session.IssuedAt))
	return session, nil
}
