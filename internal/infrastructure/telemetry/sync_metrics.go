// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
)

// MetricsError represents an error in metrics setup.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// SyncRunDurationBuckets are bucket boundaries for full pipeline runs
// (seconds). Runs spend most of their time waiting on the export task.
var SyncRunDurationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800}

// Attribute keys shared across sync pipeline metrics.
var (
	AttrSyncTrigger   = attribute.Key("sync.trigger")
	AttrSyncResult    = attribute.Key("sync.result")
	AttrSyncStage     = attribute.Key("sync.stage")
	AttrSyncErrorKind = attribute.Key("sync.error_kind")
)

// SyncMetrics tracks cost sync pipeline activity.
type SyncMetrics struct {
	logger *zap.Logger

	runsTotal     *Counter
	rowsUpdated   *Counter
	rowErrors     *Counter
	stageFailures *Counter
	runDuration   *Histogram
}

// NewSyncMetrics creates sync pipeline metrics on the given meter.
func NewSyncMetrics(meter metric.Meter, logger *zap.Logger) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{logger: logger}

	var err error
	sm.runsTotal, err = NewCounter(meter,
		"costsync_runs_total",
		"Total number of cost sync pipeline runs",
		"{runs}")
	if err != nil {
		return nil, err
	}

	sm.rowsUpdated, err = NewCounter(meter,
		"costsync_rows_updated_total",
		"Total number of order rows updated with platform costs",
		"{rows}")
	if err != nil {
		return nil, err
	}

	sm.rowErrors, err = NewCounter(meter,
		"costsync_row_errors_total",
		"Total number of artifact rows that failed to apply",
		"{rows}")
	if err != nil {
		return nil, err
	}

	sm.stageFailures, err = NewCounter(meter,
		"costsync_stage_failures_total",
		"Total number of pipeline failures by stage",
		"{failures}")
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "costsync_run_duration_seconds",
		Description: "Duration of full cost sync pipeline runs",
		Unit:        "s",
		Boundaries:  SyncRunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// ObserveRun records one finished pipeline invocation.
func (sm *SyncMetrics) ObserveRun(ctx context.Context, trigger string, outcome *costsync.Outcome) {
	if outcome == nil {
		return
	}

	result := "success"
	if !outcome.Success {
		result = "failure"
	}

	sm.runsTotal.Inc(ctx,
		AttrSyncTrigger.String(trigger),
		AttrSyncResult.String(result),
	)
	sm.runDuration.RecordDuration(ctx, outcome.Duration,
		AttrSyncTrigger.String(trigger),
		AttrSyncResult.String(result),
	)

	if outcome.Success {
		sm.rowsUpdated.Add(ctx, int64(outcome.Updated), AttrSyncTrigger.String(trigger))
		sm.rowErrors.Add(ctx, int64(outcome.Errors), AttrSyncTrigger.String(trigger))
		return
	}

	sm.stageFailures.Inc(ctx,
		AttrSyncStage.String(string(outcome.Stage)),
		AttrSyncErrorKind.String(string(outcome.ErrorKind)),
	)
}
