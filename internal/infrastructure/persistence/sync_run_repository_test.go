package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitboard/backend/internal/domain/costsync"
)

func TestSyncRunRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("record assigns id and roundtrips outcome", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))

		started := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
		run := &costsync.SyncRun{
			Trigger:  costsync.TriggerManual,
			DateFrom: started.AddDate(0, 0, -3),
			DateTo:   started,
			Outcome: costsync.Outcome{
				Success:   true,
				JobID:     "98765",
				Updated:   42,
				Total:     50,
				Errors:    2,
				StartedAt: started,
				Duration:  90 * time.Second,
			},
			CreatedAt: started,
		}
		require.NoError(t, repo.Record(ctx, run))
		assert.NotEmpty(t, run.ID)

		runs, err := repo.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)

		got := runs[0]
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, costsync.TriggerManual, got.Trigger)
		assert.True(t, got.Outcome.Success)
		assert.Equal(t, "98765", got.Outcome.JobID)
		assert.Equal(t, 42, got.Outcome.Updated)
		assert.Equal(t, 50, got.Outcome.Total)
		assert.Equal(t, 2, got.Outcome.Errors)
		assert.Equal(t, 90*time.Second, got.Outcome.Duration)
	})

	t.Run("failed run keeps stage and error kind", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))

		run := &costsync.SyncRun{
			Trigger:  costsync.TriggerScheduled,
			DateFrom: time.Now().AddDate(0, 0, -3),
			DateTo:   time.Now(),
			Outcome: costsync.Outcome{
				Success:   false,
				Stage:     costsync.StagePoll,
				ErrorKind: costsync.ErrKindPollingTimeout,
				Message:   "export task 777 did not finish within 30m0s",
				StartedAt: time.Now(),
				Duration:  30 * time.Minute,
			},
		}
		require.NoError(t, repo.Record(ctx, run))

		runs, err := repo.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, costsync.StagePoll, runs[0].Outcome.Stage)
		assert.Equal(t, costsync.ErrKindPollingTimeout, runs[0].Outcome.ErrorKind)
	})

	t.Run("recent orders newest first and honors limit", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))

		base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			require.NoError(t, repo.Record(ctx, &costsync.SyncRun{
				Trigger:   costsync.TriggerScheduled,
				DateFrom:  base,
				DateTo:    base,
				Outcome:   costsync.Outcome{Success: true, StartedAt: base},
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			}))
		}

		runs, err := repo.Recent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.True(t, runs[0].CreatedAt.After(runs[1].CreatedAt))
		assert.True(t, runs[1].CreatedAt.After(runs[2].CreatedAt))
	})
}
