// Package models holds the GORM persistence models. They are kept
// separate from the domain types so schema concerns (column types,
// indexes) never leak into the domain layer.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformOrder is an order imported from the selling platform. The
// cost sync pipeline only ever updates the four cost columns of rows
// that already exist; it never inserts.
type PlatformOrder struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	Platform        string    `gorm:"size:32;index"`
	ShopName        string    `gorm:"size:128"`
	PlatformOrderSN string    `gorm:"column:platform_order_sn;size:64;uniqueIndex;not null"`
	OrderStatus     string    `gorm:"size:32"`

	EscrowAmount       decimal.Decimal `gorm:"type:numeric(14,4)"`
	PurchasePriceTotal decimal.Decimal `gorm:"type:numeric(14,4)"`
	PackagingCost      decimal.Decimal `gorm:"type:numeric(14,4)"`
	ForwarderFreight   decimal.Decimal `gorm:"type:numeric(14,4)"`
	OtherCost          decimal.Decimal `gorm:"type:numeric(14,4)"`
	Profit             decimal.Decimal `gorm:"type:numeric(14,4)"`

	GmtOrderStart *time.Time
	GmtPay        *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName overrides the default table name
func (PlatformOrder) TableName() string {
	return "platform_orders"
}

// ConfigEntry is a durable key-value slot. The platform session lives
// in one of these under a well-known key.
type ConfigEntry struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName overrides the default table name
func (ConfigEntry) TableName() string {
	return "config_entries"
}

// SyncRun records one cost sync pipeline invocation.
type SyncRun struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Trigger   string    `gorm:"size:16;not null"`
	DateFrom  time.Time `gorm:"not null"`
	DateTo    time.Time `gorm:"not null"`
	Success   bool      `gorm:"not null"`
	JobID     string    `gorm:"size:64"`
	Updated   int       `gorm:"not null;default:0"`
	Total     int       `gorm:"not null;default:0"`
	Errors    int       `gorm:"not null;default:0"`
	Stage     string    `gorm:"size:16"`
	ErrorKind string    `gorm:"size:32"`
	Message   string    `gorm:"type:text"`
	StartedAt time.Time `gorm:"not null"`
	// Duration in milliseconds; SQL intervals are awkward across drivers
	DurationMs int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName overrides the default table name
func (SyncRun) TableName() string {
	return "sync_runs"
}

// User is a dashboard account.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName overrides the default table name
func (User) TableName() string {
	return "users"
}
