package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// InventoryItem is the stock level of one product (or variant) in one warehouse.
// Writes use optimistic locking on Version.
type InventoryItem struct {
	shared.TenantAggregateRoot
	WarehouseID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_inventory_items_location"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_inventory_items_location;index:idx_inventory_items_product"`
	VariantID      *uuid.UUID `gorm:"type:uuid;index:idx_inventory_items_location"`
	Quantity       int64      `gorm:"not null;default:0"`
	LastMovementAt *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates an empty stock record for a warehouse/product/variant
func NewInventoryItem(tenantID, warehouseID, productID uuid.UUID, variantID *uuid.UUID) (*InventoryItem, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.InvalidInput("Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.InvalidInput("Product ID cannot be empty")
	}
	return &InventoryItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		WarehouseID:         warehouseID,
		ProductID:           productID,
		VariantID:           variantID,
	}, nil
}

// Apply computes the new quantity for a movement made at now and updates the
// item. It returns the quantities before and after the movement.
func (i *InventoryItem) Apply(movementType MovementType, quantity int64, now time.Time) (before, after int64, err error) {
	if err := movementType.ValidateQuantity(quantity); err != nil {
		return 0, 0, err
	}

	before = i.Quantity
	switch movementType {
	case MovementPurchase, MovementReturn, MovementTransferIn:
		after = before + quantity
	case MovementSale, MovementDamage, MovementTransferOut:
		if quantity > before {
			return before, before, shared.ErrInsufficientStock
		}
		after = before - quantity
	case MovementAdjustment:
		after = quantity
	default:
		return before, before, shared.InvalidInput("Unknown movement type")
	}

	i.Quantity = after
	i.LastMovementAt = &now
	i.UpdatedAt = now
	return before, after, nil
}

