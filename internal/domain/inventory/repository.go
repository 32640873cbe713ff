package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// InventoryItemRepository persists stock levels
type InventoryItemRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*InventoryItem, error)
	// FindByLocation returns the item for a warehouse/product/variant or shared.ErrNotFound
	FindByLocation(ctx context.Context, tenantID, warehouseID, productID uuid.UUID, variantID *uuid.UUID) (*InventoryItem, error)
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]InventoryItem, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]InventoryItem, int64, error)
	Create(ctx context.Context, item *InventoryItem) error
	// SaveWithLock updates the item if its version still matches and bumps the version.
	// Returns shared.ErrConcurrencyConflict when another writer got there first.
	SaveWithLock(ctx context.Context, item *InventoryItem) error
}

// StockMovementRepository persists stock movements
type StockMovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) ([]StockMovement, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)
	// SumOutbound totals SALE quantities for a product since the given time
	SumOutbound(ctx context.Context, tenantID, productID uuid.UUID, since time.Time) (int64, error)
}

// LowStockAlertRepository persists low-stock alerts
type LowStockAlertRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*LowStockAlert, error)
	// FindUnresolvedByItem returns the open or acknowledged alert for an item, or shared.ErrNotFound
	FindUnresolvedByItem(ctx context.Context, tenantID, itemID uuid.UUID) (*LowStockAlert, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]LowStockAlert, int64, error)
	CountOpen(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Save(ctx context.Context, alert *LowStockAlert) error
}
