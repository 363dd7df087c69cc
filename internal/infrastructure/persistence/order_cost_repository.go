package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/persistence/models"
)

// OrderCostRepository applies reconciled cost rows to platform orders.
type OrderCostRepository struct {
	db *gorm.DB
}

// Compile-time interface check
var _ costsync.OrderCostUpdater = (*OrderCostRepository)(nil)

// NewOrderCostRepository creates a new order cost repository
func NewOrderCostRepository(db *gorm.DB) *OrderCostRepository {
	return &OrderCostRepository{db: db}
}

// UpdateCosts writes the row's cost columns onto the order with the
// matching serial. Update-if-exists: an unmatched serial reports
// matched=false and writes nothing.
func (r *OrderCostRepository) UpdateCosts(ctx context.Context, row costsync.CostRow) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PlatformOrder{}).
		Where("platform_order_sn = ?", row.OrderSN).
		Updates(map[string]any{
			"purchase_price_total": row.PurchaseTotal,
			"packaging_cost":       row.PackagingCost,
			"forwarder_freight":    row.ForwarderFreight,
			"other_cost":           row.OtherCost,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("update order costs: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
