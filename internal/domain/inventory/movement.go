package inventory

import (
	"strings"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementPurchase    MovementType = "PURCHASE"
	MovementSale        MovementType = "SALE"
	MovementReturn      MovementType = "RETURN"
	MovementDamage      MovementType = "DAMAGE"
	MovementAdjustment  MovementType = "ADJUSTMENT"
	MovementTransfer    MovementType = "TRANSFER"
	MovementTransferOut MovementType = "TRANSFER_OUT"
	MovementTransferIn  MovementType = "TRANSFER_IN"
)

// ParseMovementType parses a movement type case-insensitively
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case MovementPurchase, MovementSale, MovementReturn, MovementDamage, MovementAdjustment, MovementTransfer:
		return t, nil
	}
	return "", shared.InvalidInput("Unknown movement type: " + s)
}

// IsOutbound reports whether the movement removes stock
func (t MovementType) IsOutbound() bool {
	return t == MovementSale || t == MovementDamage || t == MovementTransferOut
}

// ValidateQuantity checks the quantity is acceptable for the movement type.
// Adjustments set an absolute count and accept zero.
func (t MovementType) ValidateQuantity(quantity int64) error {
	if t == MovementAdjustment {
		if quantity < 0 {
			return shared.InvalidInput("Adjusted quantity cannot be negative")
		}
		return nil
	}
	if quantity <= 0 {
		return shared.InvalidInput("Quantity must be positive")
	}
	return nil
}

// Reference types for movements created by other modules
const (
	ReferenceOrder       = "ORDER"
	ReferenceReturn      = "RETURN"
	ReferenceTransfer    = "TRANSFER"
	ReferenceManual      = "MANUAL"
	ReferenceIntegration = "INTEGRATION"
)

// StockMovement is an immutable record of a quantity change
type StockMovement struct {
	shared.TenantEntity
	InventoryItemID uuid.UUID    `gorm:"type:uuid;not null;index:idx_stock_movements_item"`
	WarehouseID     uuid.UUID    `gorm:"type:uuid;not null"`
	ProductID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_stock_movements_product"`
	VariantID       *uuid.UUID   `gorm:"type:uuid"`
	Type            MovementType `gorm:"size:20;not null"`
	Quantity        int64        `gorm:"not null"`
	QuantityBefore  int64        `gorm:"not null"`
	QuantityAfter   int64        `gorm:"not null"`
	Reason          string       `gorm:"size:500"`
	ReferenceType   string       `gorm:"size:30"`
	ReferenceID     string       `gorm:"size:100"`
	IdempotencyKey  *string      `gorm:"size:100;index:idx_stock_movements_idem"`
	TransferID      *uuid.UUID   `gorm:"type:uuid"`
	CreatedBy       *uuid.UUID   `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement records a movement applied to an item
func NewStockMovement(item *InventoryItem, t MovementType, quantity, before, after int64) *StockMovement {
	return &StockMovement{
		TenantEntity:    shared.NewTenantEntity(item.TenantID),
		InventoryItemID: item.ID,
		WarehouseID:     item.WarehouseID,
		ProductID:       item.ProductID,
		VariantID:       item.VariantID,
		Type:            t,
		Quantity:        quantity,
		QuantityBefore:  before,
		QuantityAfter:   after,
	}
}
