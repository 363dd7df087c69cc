package costsync

import (
	"context"

	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/ingest"
)

// Reconciler applies cost rows from an export artifact to the order store.
type Reconciler struct {
	updater costsync.OrderCostUpdater
	logger  *zap.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(updater costsync.OrderCostUpdater, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		updater: updater,
		logger:  logger.Named("reconciler"),
	}
}

// ReconcileFile parses the artifact at path and applies every usable row.
//
// Rows without an order serial are skipped; they still count toward the
// total but are neither updates nor errors. A failure on one row never
// aborts the batch. An empty artifact yields {0, 0, 0} without error.
func (r *Reconciler) ReconcileFile(ctx context.Context, path string) (costsync.ReconciliationResult, error) {
	rows, err := ingest.ParseArtifact(path)
	if err != nil {
		return costsync.ReconciliationResult{}, costsync.NewParseError("failed to parse export artifact", err)
	}
	return r.apply(ctx, rows), nil
}

func (r *Reconciler) apply(ctx context.Context, rows []*ingest.Row) costsync.ReconciliationResult {
	result := costsync.ReconciliationResult{TotalCount: len(rows)}

	for _, row := range rows {
		costRow, ok, err := ingest.ToCostRow(row)
		if err != nil {
			result.ErrorCount++
			r.logger.Warn("skipping malformed row",
				zap.Int("line", row.LineNumber),
				zap.Error(err))
			continue
		}
		if !ok {
			// No order serial; the platform pads exports with summary rows.
			continue
		}

		matched, err := r.updater.UpdateCosts(ctx, costRow)
		if err != nil {
			result.ErrorCount++
			r.logger.Warn("failed to update order costs",
				zap.String("order_sn", costRow.OrderSN),
				zap.Int("line", row.LineNumber),
				zap.Error(err))
			continue
		}
		if !matched {
			r.logger.Debug("no matching order for row",
				zap.String("order_sn", costRow.OrderSN))
			continue
		}
		result.UpdatedCount++
	}

	r.logger.Info("reconciliation finished",
		zap.Int("total", result.TotalCount),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("errors", result.ErrorCount))

	return result
}
