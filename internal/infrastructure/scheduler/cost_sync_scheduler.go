package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appcostsync "github.com/profitboard/backend/internal/application/costsync"
	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/config"
)

// SyncRunner runs one cost synchronization over a trailing day window.
type SyncRunner interface {
	SyncRecentDays(ctx context.Context, trigger string, days int) (*costsync.Outcome, error)
}

// Status is a snapshot of the scheduler for monitoring endpoints. The
// interval is formatted as a duration string so the JSON payload reads
// "4h0m0s" rather than raw nanoseconds.
type Status struct {
	Running     bool              `json:"running"`
	Interval    string            `json:"interval"`
	SyncDays    int               `json:"syncDays"`
	LastRunAt   *time.Time        `json:"lastRunAt,omitempty"`
	NextRunAt   *time.Time        `json:"nextRunAt,omitempty"`
	LastOutcome *costsync.Outcome `json:"lastOutcome,omitempty"`
}

// CostSyncScheduler periodically runs the cost sync pipeline over the
// configured trailing window.
type CostSyncScheduler struct {
	config config.SchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	stateMu     sync.RWMutex
	lastRunAt   *time.Time
	nextRunAt   *time.Time
	lastOutcome *costsync.Outcome
}

// NewCostSyncScheduler creates a new scheduler
func NewCostSyncScheduler(cfg config.SchedulerConfig, runner SyncRunner, logger *zap.Logger) (*CostSyncScheduler, error) {
	if cfg.Interval <= 0 || cfg.SyncDays < 0 {
		return nil, ErrInvalidConfig
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostSyncScheduler{
		config: cfg,
		runner: runner,
		logger: logger.Named("scheduler"),
	}, nil
}

// Start starts the scheduler loop. Calling Start on a running scheduler
// returns ErrSchedulerAlreadyRunning.
func (s *CostSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerAlreadyRunning
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Cost sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("sync_days", s.config.SyncDays),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop gracefully stops the scheduler. A run already in flight finishes;
// Stop waits for it up to the context deadline.
func (s *CostSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Cost sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Cost sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Running reports whether the scheduler loop is active.
func (s *CostSyncScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Status returns a snapshot for monitoring endpoints.
func (s *CostSyncScheduler) Status() Status {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return Status{
		Running:     s.Running(),
		Interval:    s.config.Interval.String(),
		SyncDays:    s.config.SyncDays,
		LastRunAt:   s.lastRunAt,
		NextRunAt:   s.nextRunAt,
		LastOutcome: s.lastOutcome,
	}
}

func (s *CostSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.setNextRun(time.Now().Add(s.config.Interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
			s.setNextRun(time.Now().Add(s.config.Interval))
		}
	}
}

func (s *CostSyncScheduler) runOnce(ctx context.Context) {
	started := time.Now()
	outcome, err := s.runner.SyncRecentDays(ctx, costsync.TriggerScheduled, s.config.SyncDays)

	s.stateMu.Lock()
	s.lastRunAt = &started
	if outcome != nil {
		s.lastOutcome = outcome
	}
	s.stateMu.Unlock()

	switch {
	case err == nil:
		// Outcome details are logged by the pipeline itself.
	case errors.Is(err, appcostsync.ErrSyncInProgress):
		s.logger.Warn("Skipping scheduled sync, a run is already in progress")
	default:
		s.logger.Error("Scheduled cost sync failed", zap.Error(err))
	}
}

func (s *CostSyncScheduler) setNextRun(at time.Time) {
	s.stateMu.Lock()
	s.nextRunAt = &at
	s.stateMu.Unlock()
}
