package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/persistence/models"
)

// SyncRunRepository persists the pipeline run log.
type SyncRunRepository struct {
	db *gorm.DB
}

// Compile-time interface check
var _ costsync.SyncRunRecorder = (*SyncRunRepository)(nil)

// NewSyncRunRepository creates a new sync run repository
func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Record inserts one run. A zero run ID gets a fresh UUID.
func (r *SyncRunRepository) Record(ctx context.Context, run *costsync.SyncRun) error {
	model := toSyncRunModel(run)
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
		run.ID = model.ID.String()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, newest first.
func (r *SyncRunRepository) Recent(ctx context.Context, limit int) ([]*costsync.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.SyncRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}

	runs := make([]*costsync.SyncRun, len(rows))
	for i := range rows {
		runs[i] = toSyncRunDomain(&rows[i])
	}
	return runs, nil
}

func toSyncRunModel(run *costsync.SyncRun) *models.SyncRun {
	id, _ := uuid.Parse(run.ID)
	return &models.SyncRun{
		ID:         id,
		Trigger:    run.Trigger,
		DateFrom:   run.DateFrom,
		DateTo:     run.DateTo,
		Success:    run.Outcome.Success,
		JobID:      run.Outcome.JobID,
		Updated:    run.Outcome.Updated,
		Total:      run.Outcome.Total,
		Errors:     run.Outcome.Errors,
		Stage:      string(run.Outcome.Stage),
		ErrorKind:  string(run.Outcome.ErrorKind),
		Message:    run.Outcome.Message,
		StartedAt:  run.Outcome.StartedAt,
		DurationMs: run.Outcome.Duration.Milliseconds(),
		CreatedAt:  run.CreatedAt,
	}
}

func toSyncRunDomain(m *models.SyncRun) *costsync.SyncRun {
	return &costsync.SyncRun{
		ID:       m.ID.String(),
		Trigger:  m.Trigger,
		DateFrom: m.DateFrom,
		DateTo:   m.DateTo,
		Outcome: costsync.Outcome{
			Success:   m.Success,
			JobID:     m.JobID,
			Updated:   m.Updated,
			Total:     m.Total,
			Errors:    m.Errors,
			Stage:     costsync.Stage(m.Stage),
			ErrorKind: costsync.ErrorKind(m.ErrorKind),
			Message:   m.Message,
			StartedAt: m.StartedAt,
			Duration:  time.Duration(m.DurationMs) * time.Millisecond,
		},
		CreatedAt: m.CreatedAt,
	}
}
