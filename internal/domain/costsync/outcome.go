package costsync

import (
	"context"
	"time"
)

// Stage names the pipeline step an outcome (or failure) belongs to.
type Stage string

const (
	StageAuth       Stage = "auth"
	StageCreateTask Stage = "create_task"
	StagePoll       Stage = "poll"
	StageDownload   Stage = "download"
	StageReconcile  Stage = "reconcile"
)

// Outcome is the result of one full pipeline invocation.
type Outcome struct {
	Success   bool          `json:"success"`
	JobID     string        `json:"jobId,omitempty"`
	Updated   int           `json:"updated"`
	Total     int           `json:"total"`
	Errors    int           `json:"errors"`
	Stage     Stage         `json:"stage,omitempty"`
	ErrorKind ErrorKind     `json:"errorKind,omitempty"`
	Message   string        `json:"message,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// SyncRun is one persisted pipeline invocation, kept for the run log.
type SyncRun struct {
	ID        string
	Trigger   string
	DateFrom  time.Time
	DateTo    time.Time
	Outcome   Outcome
	CreatedAt time.Time
}

// Run triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// SyncRunRecorder persists pipeline invocations for the run log.
type SyncRunRecorder interface {
	Record(ctx context.Context, run *SyncRun) error
	Recent(ctx context.Context, limit int) ([]*SyncRun, error)
}
