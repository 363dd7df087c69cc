package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	appcostsync "github.com/profitboard/backend/internal/application/costsync"
	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/scheduler"
	"github.com/profitboard/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// SyncService runs cost sync over an order window.
type SyncService interface {
	FetchAndSync(ctx context.Context, trigger string, window costsync.DateRange) (*costsync.Outcome, error)
	Running() bool
}

// SchedulerControl starts and stops the periodic sync loop.
type SchedulerControl interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() scheduler.Status
}

// SyncHandler exposes the cost sync pipeline over HTTP
type SyncHandler struct {
	BaseHandler
	sync      SyncService
	scheduler SchedulerControl
	runs      costsync.SyncRunRecorder
	logger    *zap.Logger

	// baseCtx outlives individual requests; background runs and the
	// scheduler loop are bound to it, not to the triggering request.
	baseCtx context.Context
	now     func() time.Time
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(baseCtx context.Context, sync SyncService, sched SchedulerControl, runs costsync.SyncRunRecorder, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		sync:      sync,
		scheduler: sched,
		runs:      runs,
		logger:    logger.Named("sync_handler"),
		baseCtx:   baseCtx,
		now:       time.Now,
	}
}

// RegisterRoutes registers sync routes on the API group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.POST("/fetch", h.Fetch)
	sync.GET("/status", h.Status)
	sync.GET("/runs", h.Runs)
	sync.POST("/scheduler/start", h.StartScheduler)
	sync.POST("/scheduler/stop", h.StopScheduler)
}

// Fetch starts a cost sync run over the requested window and returns 202.
// The run continues in the background; its outcome lands in the run log.
// POST /api/sync/fetch
func (h *SyncHandler) Fetch(c *gin.Context) {
	var req FetchSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	window, details := h.resolveWindow(req)
	if len(details) > 0 {
		h.ValidationError(c, details)
		return
	}

	if h.sync.Running() {
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, "A cost sync run is already in progress")
		return
	}

	go func() {
		outcome, err := h.sync.FetchAndSync(h.baseCtx, costsync.TriggerManual, window)
		if err != nil {
			if errors.Is(err, appcostsync.ErrSyncInProgress) {
				h.logger.Warn("Manual sync lost the start race, skipping")
				return
			}
			fields := []zap.Field{zap.Error(err)}
			if outcome != nil {
				fields = append(fields, zap.String("stage", string(outcome.Stage)))
			}
			h.logger.Error("Manual sync run failed", fields...)
		}
	}()

	h.Accepted(c, FetchSyncResponse{
		Started:  true,
		Trigger:  costsync.TriggerManual,
		DateFrom: window.From.Format(dateLayout),
		DateTo:   window.To.Format(dateLayout),
	})
}

// resolveWindow turns the request into a concrete date range, collecting
// validation problems along the way.
func (h *SyncHandler) resolveWindow(req FetchSyncRequest) (costsync.DateRange, []dto.ValidationDetail) {
	if req.Days != nil {
		if *req.Days < 0 {
			return costsync.DateRange{}, []dto.ValidationDetail{
				{Field: "days", Message: "Must not be negative"},
			}
		}
		return costsync.RecentDays(h.now(), *req.Days), nil
	}

	var details []dto.ValidationDetail
	if req.DateFrom == "" {
		details = append(details, dto.ValidationDetail{Field: "date_from", Message: "Required when days is absent"})
	}
	if req.DateTo == "" {
		details = append(details, dto.ValidationDetail{Field: "date_to", Message: "Required when days is absent"})
	}
	if len(details) > 0 {
		return costsync.DateRange{}, details
	}

	from, err := time.ParseInLocation(dateLayout, req.DateFrom, time.Local)
	if err != nil {
		details = append(details, dto.ValidationDetail{Field: "date_from", Message: "Expected YYYY-MM-DD"})
	}
	to, err := time.ParseInLocation(dateLayout, req.DateTo, time.Local)
	if err != nil {
		details = append(details, dto.ValidationDetail{Field: "date_to", Message: "Expected YYYY-MM-DD"})
	}
	if len(details) > 0 {
		return costsync.DateRange{}, details
	}
	if to.Before(from) {
		return costsync.DateRange{}, []dto.ValidationDetail{
			{Field: "date_to", Message: "Must not be before date_from"},
		}
	}

	// Extend the upper bound to the end of the day so orders placed that
	// day are included.
	return costsync.DateRange{From: from, To: to.Add(24*time.Hour - time.Second)}, nil
}

// Status reports whether a run is in flight and the scheduler state.
// GET /api/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	h.Success(c, SyncStatusResponse{
		SyncRunning: h.sync.Running(),
		Scheduler:   h.scheduler.Status(),
	})
}

// StartScheduler starts the periodic sync loop.
// POST /api/sync/scheduler/start
func (h *SyncHandler) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(h.baseCtx); err != nil {
		if errors.Is(err, scheduler.ErrSchedulerAlreadyRunning) {
			h.Conflict(c, "Scheduler is already running")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, SchedulerActionResponse{Running: true})
}

// StopScheduler stops the periodic sync loop.
// POST /api/sync/scheduler/stop
func (h *SyncHandler) StopScheduler(c *gin.Context) {
	if err := h.scheduler.Stop(c.Request.Context()); err != nil {
		if errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			h.Conflict(c, "Scheduler is not running")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, SchedulerActionResponse{Running: false})
}

// Runs lists recent sync runs, newest first.
// GET /api/sync/runs?limit=20
func (h *SyncHandler) Runs(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	runs, err := h.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toSyncRunResponse(run))
	}
	h.Success(c, out)
}
