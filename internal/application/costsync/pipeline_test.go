package costsync

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
)

type fakeSessions struct {
	session *costsync.Session
	err     error
	calls   int
}

func (f *fakeSessions) EnsureFresh(context.Context) (*costsync.Session, error) {
	f.calls++
	return f.session, f.err
}

type fakeStarter struct {
	jobID  string
	err    error
	window costsync.DateRange
}

func (f *fakeStarter) CreateExportJob(_ context.Context, _ *costsync.Session, window costsync.DateRange) (string, error) {
	f.window = window
	return f.jobID, f.err
}

type fakeWaiter struct {
	job     *costsync.ExportJob
	err     error
	release chan struct{} // when set, blocks until closed
}

func (f *fakeWaiter) WaitForCompletion(context.Context, *costsync.Session, string) (*costsync.ExportJob, error) {
	if f.release != nil {
		<-f.release
	}
	return f.job, f.err
}

type fakeFetcher struct {
	dir  string
	err  error
	path string
}

func (f *fakeFetcher) Download(context.Context, *costsync.Session, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.path = filepath.Join(f.dir, "artifact.csv")
	if err := os.WriteFile(f.path, []byte("订单编号\n"), 0o644); err != nil {
		return "", err
	}
	return f.path, nil
}

type fakeReconciler struct {
	result costsync.ReconciliationResult
	err    error
	path   string
}

func (f *fakeReconciler) ReconcileFile(_ context.Context, path string) (costsync.ReconciliationResult, error) {
	f.path = path
	return f.result, f.err
}

type memoryRecorder struct {
	mu   sync.Mutex
	runs []*costsync.SyncRun
}

func (m *memoryRecorder) Record(_ context.Context, run *costsync.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryRecorder) Recent(context.Context, int) ([]*costsync.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs, nil
}

type pipelineFixture struct {
	sessions   *fakeSessions
	starter    *fakeStarter
	waiter     *fakeWaiter
	fetcher    *fakeFetcher
	reconciler *fakeReconciler
	recorder   *memoryRecorder
	pipeline   *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		sessions:   &fakeSessions{session: &costsync.Session{Token: "SESSION=abc", IssuedAt: time.Now()}},
		starter:    &fakeStarter{jobID: "42"},
		waiter:     &fakeWaiter{job: &costsync.ExportJob{ID: "42", Status: costsync.JobStatusSuccess, ResultLocation: "https://oss.example.com/export.csv"}},
		fetcher:    &fakeFetcher{dir: t.TempDir()},
		reconciler: &fakeReconciler{result: costsync.ReconciliationResult{UpdatedCount: 8, TotalCount: 10, ErrorCount: 1}},
		recorder:   &memoryRecorder{},
	}
	f.pipeline = NewPipeline(f.sessions, f.starter, f.waiter, f.fetcher, f.reconciler, f.recorder, zap.NewNop())
	return f
}

func testWindow() costsync.DateRange {
	return costsync.DateRange{
		From: time.Date(2026, 3, 7, 0, 0, 0, 0, time.Local),
		To:   time.Date(2026, 3, 10, 23, 59, 59, 0, time.Local),
	}
}

func TestFetchAndSync_HappyPath(t *testing.T) {
	f := newPipelineFixture(t)

	outcome, err := f.pipeline.FetchAndSync(context.Background(), costsync.TriggerManual, testWindow())
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, "42", outcome.JobID)
	assert.Equal(t, 8, outcome.Updated)
	assert.Equal(t, 10, outcome.Total)
	assert.Equal(t, 1, outcome.Errors)
	assert.Empty(t, outcome.Stage)

	// The export window is handed through untouched.
	assert.Equal(t, testWindow(), f.starter.window)

	// The reconciler saw the downloaded artifact, and it is gone afterwards.
	assert.Equal(t, f.fetcher.path, f.reconciler.path)
	_, statErr := os.Stat(f.fetcher.path)
	assert.True(t, os.IsNotExist(statErr))

	require.Len(t, f.recorder.runs, 1)
	run := f.recorder.runs[0]
	assert.Equal(t, costsync.TriggerManual, run.Trigger)
	assert.True(t, run.Outcome.Success)
	assert.False(t, f.pipeline.Running())
}

func TestFetchAndSync_StageAttribution(t *testing.T) {
	tests := []struct {
		name      string
		arrange   func(*pipelineFixture)
		wantStage costsync.Stage
		wantKind  costsync.ErrorKind
	}{
		{
			name:      "login failure",
			arrange:   func(f *pipelineFixture) { f.sessions.err = costsync.NewAuthenticationError("login rejected", nil) },
			wantStage: costsync.StageAuth,
			wantKind:  costsync.ErrKindAuthentication,
		},
		{
			name:      "task creation refused",
			arrange:   func(f *pipelineFixture) { f.starter.err = costsync.NewTaskCreationError("export refused", nil) },
			wantStage: costsync.StageCreateTask,
			wantKind:  costsync.ErrKindTaskCreation,
		},
		{
			name:      "poll timeout",
			arrange:   func(f *pipelineFixture) { f.waiter.err = costsync.NewPollingTimeoutError("task 42 did not finish") },
			wantStage: costsync.StagePoll,
			wantKind:  costsync.ErrKindPollingTimeout,
		},
		{
			name:      "session expired mid-poll",
			arrange:   func(f *pipelineFixture) { f.waiter.err = costsync.NewSessionExpiredError("session expired") },
			wantStage: costsync.StagePoll,
			wantKind:  costsync.ErrKindSessionExpired,
		},
		{
			name:      "download failure",
			arrange:   func(f *pipelineFixture) { f.fetcher.err = costsync.NewDownloadError("status 403", nil) },
			wantStage: costsync.StageDownload,
			wantKind:  costsync.ErrKindDownload,
		},
		{
			name:      "unreadable artifact",
			arrange:   func(f *pipelineFixture) { f.reconciler.err = costsync.NewParseError("bad artifact", nil) },
			wantStage: costsync.StageReconcile,
			wantKind:  costsync.ErrKindParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t)
			tt.arrange(f)

			outcome, err := f.pipeline.FetchAndSync(context.Background(), costsync.TriggerScheduled, testWindow())
			require.Error(t, err)
			require.NotNil(t, outcome)

			assert.False(t, outcome.Success)
			assert.Equal(t, tt.wantStage, outcome.Stage)
			assert.Equal(t, tt.wantKind, outcome.ErrorKind)
			assert.NotEmpty(t, outcome.Message)

			// Failed runs are recorded too.
			require.Len(t, f.recorder.runs, 1)
			assert.Equal(t, tt.wantStage, f.recorder.runs[0].Outcome.Stage)
			assert.False(t, f.pipeline.Running())
		})
	}
}

func TestFetchAndSync_ArtifactRemovedOnReconcileFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.reconciler.err = costsync.NewParseError("bad artifact", nil)

	_, err := f.pipeline.FetchAndSync(context.Background(), costsync.TriggerManual, testWindow())
	require.Error(t, err)

	_, statErr := os.Stat(f.fetcher.path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchAndSync_RejectsConcurrentRun(t *testing.T) {
	f := newPipelineFixture(t)
	f.waiter.release = make(chan struct{})

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, err := f.pipeline.FetchAndSync(context.Background(), costsync.TriggerManual, testWindow())
		assert.NoError(t, err)
	}()

	// Wait for the first run to take the slot.
	require.Eventually(t, f.pipeline.Running, time.Second, time.Millisecond)

	_, err := f.pipeline.FetchAndSync(context.Background(), costsync.TriggerManual, testWindow())
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(f.waiter.release)
	<-firstDone

	// The slot is free again.
	_, err = f.pipeline.FetchAndSync(context.Background(), costsync.TriggerManual, testWindow())
	assert.NoError(t, err)
}

func TestSyncRecentDays_Window(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.now = func() time.Time {
		return time.Date(2026, 3, 10, 15, 30, 0, 0, time.Local)
	}

	_, err := f.pipeline.SyncRecentDays(context.Background(), costsync.TriggerScheduled, 3)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, time.Local), f.starter.window.From)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 59, 59, 0, time.Local), f.starter.window.To)
}
