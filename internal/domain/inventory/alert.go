package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// AlertStatus is the state of a low-stock alert
type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "OPEN"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusResolved     AlertStatus = "RESOLVED"
)

// LowStockAlert is raised when an item's quantity falls to or below its threshold.
// At most one unresolved alert exists per item.
type LowStockAlert struct {
	shared.TenantEntity
	InventoryItemID uuid.UUID   `gorm:"type:uuid;not null;index:idx_low_stock_alerts_item"`
	WarehouseID     uuid.UUID   `gorm:"type:uuid;not null"`
	ProductID       uuid.UUID   `gorm:"type:uuid;not null"`
	VariantID       *uuid.UUID  `gorm:"type:uuid"`
	Quantity        int64       `gorm:"not null"`
	Threshold       int         `gorm:"not null"`
	Status          AlertStatus `gorm:"size:20;not null;index:idx_low_stock_alerts_status"`
	AcknowledgedBy  *uuid.UUID  `gorm:"type:uuid"`
	AcknowledgedAt  *time.Time  `gorm:""`
	ResolvedAt      *time.Time  `gorm:""`
}

// TableName returns the table name for GORM
func (LowStockAlert) TableName() string {
	return "low_stock_alerts"
}

// NewLowStockAlert opens an alert for the item
func NewLowStockAlert(item *InventoryItem, threshold int) *LowStockAlert {
	return &LowStockAlert{
		TenantEntity:    shared.NewTenantEntity(item.TenantID),
		InventoryItemID: item.ID,
		WarehouseID:     item.WarehouseID,
		ProductID:       item.ProductID,
		VariantID:       item.VariantID,
		Quantity:        item.Quantity,
		Threshold:       threshold,
		Status:          AlertStatusOpen,
	}
}

// Acknowledge marks the alert as seen by a user
func (a *LowStockAlert) Acknowledge(userID uuid.UUID) error {
	if a.Status != AlertStatusOpen {
		return shared.InvalidState("Only open alerts can be acknowledged")
	}
	now := time.Now()
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedBy = &userID
	a.AcknowledgedAt = &now
	a.UpdatedAt = now
	return nil
}

// Resolve closes the alert after restocking
func (a *LowStockAlert) Resolve() {
	now := time.Now()
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
	a.UpdatedAt = now
}

// Refresh records the latest quantity on an unresolved alert
func (a *LowStockAlert) Refresh(quantity int64) {
	a.Quantity = quantity
	a.UpdatedAt = time.Now()
}

// AlertAction is the outcome of evaluating a stock level against its threshold
type AlertAction int

const (
	AlertActionNone AlertAction = iota
	AlertActionOpen
	AlertActionRefresh
	AlertActionResolve
)

// EvaluateStockLevel decides what to do with alerts after a movement
func EvaluateStockLevel(quantity int64, threshold int, hasUnresolved bool) AlertAction {
	low := quantity <= int64(threshold)
	switch {
	case low && !hasUnresolved:
		return AlertActionOpen
	case low && hasUnresolved:
		return AlertActionRefresh
	case !low && hasUnresolved:
		return AlertActionResolve
	default:
		return AlertActionNone
	}
}
