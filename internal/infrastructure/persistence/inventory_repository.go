package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/shared"
)

// GormInventoryItemRepository implements inventory.InventoryItemRepository
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// FindByID finds an inventory item by its ID within a tenant
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Inventory item")
	}
	return &item, nil
}

// FindByLocation finds the stock row of a product (or variant) in a warehouse
func (r *GormInventoryItemRepository) FindByLocation(ctx context.Context, tenantID, warehouseID, productID uuid.UUID, variantID *uuid.UUID) (*inventory.InventoryItem, error) {
	query := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}

	var item inventory.InventoryItem
	if err := query.First(&item).Error; err != nil {
		return nil, notFound(err, "Inventory item")
	}
	return &item, nil
}

// FindByProduct returns the product's stock rows across warehouses
func (r *GormInventoryItemRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]inventory.InventoryItem, error) {
	var items []inventory.InventoryItem
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Where("product_id = ?", productID).
		Order("created_at").
		Find(&items).Error
	return items, err
}

// FindAll lists stock rows. Filters: warehouse_id, product_id, out_of_stock.
func (r *GormInventoryItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryItem, int64, error) {
	query := conn(ctx, r.db).Model(&inventory.InventoryItem{}).Scopes(tenantScope(tenantID))
	for key, value := range filter.Filters {
		switch key {
		case "warehouse_id", "product_id":
			query = query.Where(key+" = ?", value)
		case "out_of_stock":
			if value == true {
				query = query.Where("quantity = 0")
			}
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []inventory.InventoryItem
	if err := query.Scopes(paginate(filter, inventorySortFields, "updated_at")).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Create inserts a new stock row. A concurrent insert of the same location
// surfaces as a concurrency conflict so the caller re-reads and retries. The
// insert runs under a savepoint so the conflict leaves an outer transaction usable.
func (r *GormInventoryItemRepository) Create(ctx context.Context, item *inventory.InventoryItem) error {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(item).Error
	})
	if err != nil && translate(err, "") != err {
		return shared.ErrConcurrencyConflict
	}
	return err
}

// SaveWithLock saves with optimistic locking on version
func (r *GormInventoryItemRepository) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	return updateVersioned(conn(ctx, r.db), item, &item.BaseAggregateRoot, item.TenantID)
}

// GormStockMovementRepository implements inventory.StockMovementRepository
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create records a movement. A repeated idempotency key is a conflict.
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(movement).Error
	})
	if err != nil && translate(err, "") != err {
		return shared.ErrConcurrencyConflict
	}
	return err
}

// FindByIdempotencyKey returns the movement recorded under key together with
// the other leg when it was a transfer
func (r *GormStockMovementRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) ([]inventory.StockMovement, error) {
	db := conn(ctx, r.db)
	transfers := db.Model(&inventory.StockMovement{}).
		Select("transfer_id").
		Where("tenant_id = ? AND idempotency_key = ? AND transfer_id IS NOT NULL", tenantID, key)

	var movements []inventory.StockMovement
	err := db.Scopes(tenantScope(tenantID)).
		Where("idempotency_key = ? OR transfer_id IN (?)", key, transfers).
		Order("created_at").
		Find(&movements).Error
	return movements, err
}

// FindAll lists movements. Filters: product_id, warehouse_id, type, reference_id.
func (r *GormStockMovementRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	query := conn(ctx, r.db).Model(&inventory.StockMovement{}).Scopes(tenantScope(tenantID))
	for key, value := range filter.Filters {
		switch key {
		case "product_id", "warehouse_id", "type", "reference_id":
			query = query.Where(key+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var movements []inventory.StockMovement
	if err := query.Scopes(paginate(filter, movementSortFields, "created_at")).Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

func (r *GormStockMovementRepository) SumOutbound(ctx context.Context, tenantID, productID uuid.UUID, since time.Time) (int64, error) {
	var sum int64
	err := conn(ctx, r.db).Model(&inventory.StockMovement{}).
		Scopes(tenantScope(tenantID)).
		Where("product_id = ? AND type = ? AND created_at >= ?", productID, inventory.MovementSale, since).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	return sum, err
}

// GormLowStockAlertRepository implements inventory.LowStockAlertRepository
type GormLowStockAlertRepository struct {
	db *gorm.DB
}

// NewGormLowStockAlertRepository creates a new GormLowStockAlertRepository
func NewGormLowStockAlertRepository(db *gorm.DB) *GormLowStockAlertRepository {
	return &GormLowStockAlertRepository{db: db}
}

func (r *GormLowStockAlertRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.LowStockAlert, error) {
	var alert inventory.LowStockAlert
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&alert, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Low stock alert")
	}
	return &alert, nil
}

func (r *GormLowStockAlertRepository) FindUnresolvedByItem(ctx context.Context, tenantID, itemID uuid.UUID) (*inventory.LowStockAlert, error) {
	var alert inventory.LowStockAlert
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Where("inventory_item_id = ? AND status <> ?", itemID, inventory.AlertStatusResolved).
		Order("created_at DESC").
		First(&alert).Error; err != nil {
		return nil, notFound(err, "Low stock alert")
	}
	return &alert, nil
}

// FindAll lists alerts. Filters: status, product_id, warehouse_id.
func (r *GormLowStockAlertRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.LowStockAlert, int64, error) {
	query := conn(ctx, r.db).Model(&inventory.LowStockAlert{}).Scopes(tenantScope(tenantID))
	for key, value := range filter.Filters {
		switch key {
		case "status", "product_id", "warehouse_id":
			query = query.Where(key+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var alerts []inventory.LowStockAlert
	if err := query.Scopes(paginate(filter, alertSortFields, "created_at")).Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// CountOpen counts alerts that are not resolved yet
func (r *GormLowStockAlertRepository) CountOpen(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&inventory.LowStockAlert{}).
		Scopes(tenantScope(tenantID)).
		Where("status <> ?", inventory.AlertStatusResolved).
		Count(&count).Error
	return count, err
}

func (r *GormLowStockAlertRepository) Save(ctx context.Context, alert *inventory.LowStockAlert) error {
	return conn(ctx, r.db).Save(alert).Error
}

var (
	_ inventory.InventoryItemRepository = (*GormInventoryItemRepository)(nil)
	_ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
	_ inventory.LowStockAlertRepository = (*GormLowStockAlertRepository)(nil)
)
