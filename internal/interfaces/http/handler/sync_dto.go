package handler

import (
	"time"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/scheduler"
)

// dateLayout is the wire format for sync window bounds.
const dateLayout = "2006-01-02"

// FetchSyncRequest selects the order window to reconcile. Either an explicit
// date range or a trailing number of days; days wins when both are present.
type FetchSyncRequest struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Days     *int   `json:"days"`
}

// FetchSyncResponse acknowledges a started sync run
type FetchSyncResponse struct {
	Started  bool   `json:"started"`
	Trigger  string `json:"trigger"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// SyncStatusResponse reports pipeline and scheduler state
type SyncStatusResponse struct {
	SyncRunning bool             `json:"sync_running"`
	Scheduler   scheduler.Status `json:"scheduler"`
}

// SchedulerActionResponse acknowledges a scheduler start or stop
type SchedulerActionResponse struct {
	Running bool `json:"running"`
}

// SyncRunResponse is one entry of the run log
type SyncRunResponse struct {
	ID        string           `json:"id"`
	Trigger   string           `json:"trigger"`
	DateFrom  time.Time        `json:"date_from"`
	DateTo    time.Time        `json:"date_to"`
	Outcome   costsync.Outcome `json:"outcome"`
	CreatedAt time.Time        `json:"created_at"`
}

func toSyncRunResponse(run *costsync.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:        run.ID,
		Trigger:   run.Trigger,
		DateFrom:  run.DateFrom,
		DateTo:    run.DateTo,
		Outcome:   run.Outcome,
		CreatedAt: run.CreatedAt,
	}
}
