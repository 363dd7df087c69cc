package easyboss

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/domain/shared"
)

// memorySessionStore is a test double for the durable session slot.
type memorySessionStore struct {
	session *costsync.Session
	loadErr error
	saveErr error
}

func (s *memorySessionStore) Load(ctx context.Context) (*costsync.Session, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.session == nil {
		return nil, shared.ErrNotFound
	}
	return s.session, nil
}

func (s *memorySessionStore) Save(ctx context.Context, session *costsync.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.session = session
	return nil
}

func newLoginServer(t *testing.T, logins *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Header().Add("Set-Cookie", "SESSION=fresh; Path=/")
		w.Write([]byte(`{"result":"success","data":{}}`))
	}))
}

func TestEnsureFresh(t *testing.T) {
	t.Run("reuses persisted session within threshold", func(t *testing.T) {
		var logins atomic.Int32
		server := newLoginServer(t, &logins)
		defer server.Close()

		store := &memorySessionStore{session: &costsync.Session{
			Token:    "SESSION=persisted",
			IssuedAt: time.Now().Add(-time.Hour),
		}}
		manager := NewSessionManager(newTestClient(t, server.URL), store, 20*time.Hour, zap.NewNop())

		session, err := manager.EnsureFresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "SESSION=persisted", session.Token)
		assert.Equal(t, int32(0), logins.Load())
	})

	t.Run("logs in when no session persisted", func(t *testing.T) {
		var logins atomic.Int32
		server := newLoginServer(t, &logins)
		defer server.Close()

		store := &memorySessionStore{}
		manager := NewSessionManager(newTestClient(t, server.URL), store, 20*time.Hour, zap.NewNop())

		session, err := manager.EnsureFresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "SESSION=fresh", session.Token)
		assert.Equal(t, int32(1), logins.Load())
		// Replacement persisted
		require.NotNil(t, store.session)
		assert.Equal(t, "SESSION=fresh", store.session.Token)
	})

	t.Run("logs in when persisted session is stale", func(t *testing.T) {
		var logins atomic.Int32
		server := newLoginServer(t, &logins)
		defer server.Close()

		store := &memorySessionStore{session: &costsync.Session{
			Token:    "SESSION=old",
			IssuedAt: time.Now().Add(-21 * time.Hour),
		}}
		manager := NewSessionManager(newTestClient(t, server.URL), store, 20*time.Hour, zap.NewNop())

		session, err := manager.EnsureFresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "SESSION=fresh", session.Token)
		assert.Equal(t, int32(1), logins.Load())
	})

	t.Run("store load failure", func(t *testing.T) {
		var logins atomic.Int32
		server := newLoginServer(t, &logins)
		defer server.Close()

		store := &memorySessionStore{loadErr: errors.New("db down")}
		manager := NewSessionManager(newTestClient(t, server.URL), store, 20*time.Hour, zap.NewNop())

		_, err := manager.EnsureFresh(context.Background())
		require.Error(t, err)
		assert.Equal(t, costsync.ErrKindAuthentication, costsync.KindOf(err))
	})

	t.Run("store save failure", func(t *testing.T) {
		var logins atomic.Int32
		server := newLoginServer(t, &logins)
		defer server.Close()

		store := &memorySessionStore{saveErr: errors.New("disk full")}
		manager := NewSessionManager(newTestClient(t, server.URL), store, 20*time.Hour, zap.NewNop())

		_, err := manager.EnsureFresh(context.Background())
		require.Error(t, err)
		assert.Equal(t, costsync.ErrKindAuthentication, costsync.KindOf(err))
	})
}

func TestForcedLogin(t *testing.T) {
	var logins atomic.Int32
	server := newLoginServer(t, &logins)
	defer server.Close()

	store := &memorySessionStore{session: &costsync.Session{
		Token:    "SESSION=persisted",
		IssuedAt: time.Now(),
	}}
	manager := NewSessionManager(newTestClient(t, server.URL), store, 20*time.Hour, zap.NewNop())

	// Login ignores freshness and replaces the slot
	session, err := manager.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SESSION=fresh", session.Token)
	assert.Equal(t, int32(1), logins.Load())
	assert.Equal(t, "SESSION=fresh", store.session.Token)
}
