package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/infrastructure/persistence/models"
)

func seedOrder(t *testing.T, db *gorm.DB, serial string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Create(&models.PlatformOrder{
		ID:              uuid.New(),
		Platform:        "shopee",
		ShopName:        "main-shop",
		PlatformOrderSN: serial,
		OrderStatus:     "COMPLETED",
		EscrowAmount:    decimal.RequireFromString("99.90"),
		CreatedAt:       now,
		UpdatedAt:       now,
	}).Error)
}

func TestOrderCostRepository_UpdateCosts(t *testing.T) {
	ctx := context.Background()

	t.Run("matched serial updates cost columns", func(t *testing.T) {
		db := setupTestDB(t)
		seedOrder(t, db, "SN-001")
		repo := NewOrderCostRepository(db)

		matched, err := repo.UpdateCosts(ctx, costsync.CostRow{
			OrderSN:          "SN-001",
			PurchaseTotal:    decimal.RequireFromString("12.50"),
			PackagingCost:    decimal.RequireFromString("1.20"),
			ForwarderFreight: decimal.RequireFromString("3.00"),
			OtherCost:        decimal.RequireFromString("0.30"),
		})
		require.NoError(t, err)
		assert.True(t, matched)

		var order models.PlatformOrder
		require.NoError(t, db.Where("platform_order_sn = ?", "SN-001").First(&order).Error)
		assert.True(t, order.PurchasePriceTotal.Equal(decimal.RequireFromString("12.50")))
		assert.True(t, order.PackagingCost.Equal(decimal.RequireFromString("1.20")))
		assert.True(t, order.ForwarderFreight.Equal(decimal.RequireFromString("3.00")))
		assert.True(t, order.OtherCost.Equal(decimal.RequireFromString("0.30")))
		// Untouched columns survive
		assert.True(t, order.EscrowAmount.Equal(decimal.RequireFromString("99.90")))
	})

	t.Run("unmatched serial reports no match and inserts nothing", func(t *testing.T) {
		db := setupTestDB(t)
		seedOrder(t, db, "SN-001")
		repo := NewOrderCostRepository(db)

		matched, err := repo.UpdateCosts(ctx, costsync.CostRow{OrderSN: "SN-MISSING"})
		require.NoError(t, err)
		assert.False(t, matched)

		var count int64
		require.NoError(t, db.Model(&models.PlatformOrder{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

// TestOrderCostRepository_SQLContract pins the generated SQL: a single
// UPDATE keyed on the serial, never an INSERT.
func TestOrderCostRepository_SQLContract(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE "platform_orders" SET .+ WHERE platform_order_sn = \$`).
		WithArgs(
			sqlmock.AnyArg(), // forwarder_freight
			sqlmock.AnyArg(), // other_cost
			sqlmock.AnyArg(), // packaging_cost
			sqlmock.AnyArg(), // purchase_price_total
			sqlmock.AnyArg(), // updated_at
			"SN-777",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOrderCostRepository(db)
	matched, err := repo.UpdateCosts(context.Background(), costsync.CostRow{
		OrderSN:       "SN-777",
		PurchaseTotal: decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.NoError(t, mock.ExpectationsWereMet())
}
