package costsync

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionIsStale(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	maxAge := 20 * time.Hour

	tests := []struct {
		name    string
		session *Session
		want    bool
	}{
		{"nil session", nil, true},
		{"empty token", &Session{IssuedAt: now}, true},
		{"zero issuedAt", &Session{Token: "tok"}, true},
		{"fresh", &Session{Token: "tok", IssuedAt: now.Add(-19 * time.Hour)}, false},
		{"exactly at threshold", &Session{Token: "tok", IssuedAt: now.Add(-20 * time.Hour)}, false},
		{"past threshold", &Session{Token: "tok", IssuedAt: now.Add(-20*time.Hour - time.Second)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.IsStale(now, maxAge))
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.True(t, JobStatusSuccess.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
}

func TestRecentDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 42, 7, 0, time.UTC)

	r := RecentDays(now, 3)
	assert.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), r.From)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC), r.To)

	r = RecentDays(now, 0)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), r.From)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrKindAuthentication, KindOf(NewAuthenticationError("bad password", nil)))
	assert.Equal(t, ErrKindSessionExpired, KindOf(NewSessionExpiredError("login invalid")))
	assert.Equal(t, ErrKindPollingTimeout, KindOf(NewPollingTimeoutError("30m elapsed")))

	wrapped := fmt.Errorf("poll: %w", NewSessionExpiredError("code 50001"))
	assert.Equal(t, ErrKindSessionExpired, KindOf(wrapped))
	assert.True(t, IsSessionExpired(wrapped))

	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.False(t, IsSessionExpired(errors.New("plain")))
}

func TestSyncErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTaskCreationError("createOrderExportTask", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "task_creation")
	assert.Contains(t, err.Error(), "connection refused")
}
