package costsync

import (
	"context"

	"github.com/shopspring/decimal"
)

// CostRow is one parsed artifact row carrying the cost components for a
// single platform order.
type CostRow struct {
	OrderSN          string
	PurchaseTotal    decimal.Decimal
	PackagingCost    decimal.Decimal
	ForwarderFreight decimal.Decimal
	OtherCost        decimal.Decimal
}

// ReconciliationResult summarizes one reconciliation pass over an artifact.
type ReconciliationResult struct {
	UpdatedCount int `json:"updatedCount"`
	TotalCount   int `json:"totalCount"`
	ErrorCount   int `json:"errorCount"`
}

// OrderCostUpdater applies one row's cost columns to an existing order.
// The update is keyed on the order serial and never inserts; matched
// reports whether an order with that serial exists.
type OrderCostUpdater interface {
	UpdateCosts(ctx context.Context, row CostRow) (matched bool, err error)
}
