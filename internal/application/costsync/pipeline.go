package costsync

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/telemetry"
)

// ErrSyncInProgress is returned when a run is requested while another run
// holds the pipeline. The platform account has a single export queue and
// one durable session slot, so concurrent runs would trample each other.
var ErrSyncInProgress = errors.New("cost sync already in progress")

// SessionProvider yields a usable platform session, logging in when the
// stored one is missing or stale.
type SessionProvider interface {
	EnsureFresh(ctx context.Context) (*costsync.Session, error)
}

// ExportStarter queues a cost export on the platform.
type ExportStarter interface {
	CreateExportJob(ctx context.Context, session *costsync.Session, window costsync.DateRange) (string, error)
}

// ExportWaiter polls an export job until it reaches a usable terminal state.
type ExportWaiter interface {
	WaitForCompletion(ctx context.Context, session *costsync.Session, jobID string) (*costsync.ExportJob, error)
}

// ArtifactFetcher downloads a finished export artifact and returns its
// local path.
type ArtifactFetcher interface {
	Download(ctx context.Context, session *costsync.Session, resultLocation string) (string, error)
}

// ArtifactReconciler applies a downloaded artifact to the order store.
type ArtifactReconciler interface {
	ReconcileFile(ctx context.Context, path string) (costsync.ReconciliationResult, error)
}

// RunObserver receives every finished run, e.g. for metrics.
type RunObserver interface {
	ObserveRun(ctx context.Context, trigger string, outcome *costsync.Outcome)
}

// Pipeline coordinates one full cost synchronization run:
// session → export job → poll → download → reconcile.
type Pipeline struct {
	sessions   SessionProvider
	starter    ExportStarter
	waiter     ExportWaiter
	fetcher    ArtifactFetcher
	reconciler ArtifactReconciler
	recorder   costsync.SyncRunRecorder
	observer   RunObserver
	logger     *zap.Logger
	running    atomic.Bool
	now        func() time.Time
}

// NewPipeline creates a new pipeline coordinator. The recorder may be nil;
// runs are then only logged.
func NewPipeline(
	sessions SessionProvider,
	starter ExportStarter,
	waiter ExportWaiter,
	fetcher ArtifactFetcher,
	reconciler ArtifactReconciler,
	recorder costsync.SyncRunRecorder,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		sessions:   sessions,
		starter:    starter,
		waiter:     waiter,
		fetcher:    fetcher,
		reconciler: reconciler,
		recorder:   recorder,
		logger:     logger.Named("pipeline"),
		now:        time.Now,
	}
}

// SetObserver attaches a run observer. Must be called before Start-time use;
// it is not safe to swap while a run is in flight.
func (p *Pipeline) SetObserver(observer RunObserver) {
	p.observer = observer
}

// Running reports whether a run currently holds the pipeline.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// SyncRecentDays runs the pipeline over the trailing n-day window ending
// today at 23:59:59.
func (p *Pipeline) SyncRecentDays(ctx context.Context, trigger string, days int) (*costsync.Outcome, error) {
	return p.FetchAndSync(ctx, trigger, costsync.RecentDays(p.now(), days))
}

// FetchAndSync runs one synchronization over the given order-time window.
// Only one run may be active at a time; a concurrent call returns
// ErrSyncInProgress. The returned outcome is also recorded, so a caller
// that only needs the error may ignore it.
func (p *Pipeline) FetchAndSync(ctx context.Context, trigger string, window costsync.DateRange) (*costsync.Outcome, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer p.running.Store(false)

	started := p.now()
	outcome := &costsync.Outcome{StartedAt: started}

	ctx, span := telemetry.StartSpan(ctx, "costsync.run",
		telemetry.WithAttribute("sync.trigger", trigger))
	defer span.End()

	p.logger.Info("starting cost sync",
		zap.String("trigger", trigger),
		zap.Time("date_from", window.From),
		zap.Time("date_to", window.To))

	fail := func(stage costsync.Stage, err error) (*costsync.Outcome, error) {
		outcome.Success = false
		outcome.Stage = stage
		outcome.ErrorKind = costsync.KindOf(err)
		outcome.Message = err.Error()
		outcome.Duration = p.now().Sub(started)
		telemetry.SetAttribute(span, "sync.stage", string(stage))
		telemetry.RecordError(span, err)
		p.logger.Error("cost sync failed",
			zap.String("trigger", trigger),
			zap.String("stage", string(stage)),
			zap.String("error_kind", string(outcome.ErrorKind)),
			zap.Duration("duration", outcome.Duration),
			zap.Error(err))
		p.record(ctx, trigger, window, outcome)
		return outcome, err
	}

	session, err := p.sessions.EnsureFresh(ctx)
	if err != nil {
		return fail(costsync.StageAuth, err)
	}

	jobID, err := p.starter.CreateExportJob(ctx, session, window)
	if err != nil {
		return fail(costsync.StageCreateTask, err)
	}
	outcome.JobID = jobID

	job, err := p.waiter.WaitForCompletion(ctx, session, jobID)
	if err != nil {
		return fail(costsync.StagePoll, err)
	}

	path, err := p.fetcher.Download(ctx, session, job.ResultLocation)
	if err != nil {
		return fail(costsync.StageDownload, err)
	}
	defer p.removeArtifact(path)

	result, err := p.reconciler.ReconcileFile(ctx, path)
	if err != nil {
		return fail(costsync.StageReconcile, err)
	}

	outcome.Success = true
	outcome.Updated = result.UpdatedCount
	outcome.Total = result.TotalCount
	outcome.Errors = result.ErrorCount
	outcome.Duration = p.now().Sub(started)
	telemetry.SetAttributes(span,
		"sync.updated", outcome.Updated,
		"sync.total", outcome.Total,
		"sync.errors", outcome.Errors,
	)
	telemetry.SetOK(span)

	p.logger.Info("cost sync finished",
		zap.String("trigger", trigger),
		zap.String("job_id", jobID),
		zap.Int("updated", outcome.Updated),
		zap.Int("total", outcome.Total),
		zap.Int("errors", outcome.Errors),
		zap.Duration("duration", outcome.Duration))

	p.record(ctx, trigger, window, outcome)
	return outcome, nil
}

// removeArtifact deletes the downloaded file. Artifacts hold order-level
// financials and must not linger on disk past the run.
func (p *Pipeline) removeArtifact(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("failed to remove artifact", zap.String("path", path), zap.Error(err))
	}
}

func (p *Pipeline) record(ctx context.Context, trigger string, window costsync.DateRange, outcome *costsync.Outcome) {
	if p.observer != nil {
		p.observer.ObserveRun(ctx, trigger, outcome)
	}
	if p.recorder == nil {
		return
	}
	run := &costsync.SyncRun{
		Trigger:  trigger,
		DateFrom: window.From,
		DateTo:   window.To,
		Outcome:  *outcome,
	}
	if err := p.recorder.Record(ctx, run); err != nil {
		p.logger.Warn("failed to record sync run", zap.Error(err))
	}
}
