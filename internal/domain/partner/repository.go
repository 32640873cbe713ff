package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/shared"
)

// CustomerRepository persists customers
type CustomerRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Customer, error)
	FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*Customer, error)
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)
	// FindSegment returns customers matching the tiers (all when empty), optionally opted-in only
	FindSegment(ctx context.Context, tenantID uuid.UUID, tiers []loyalty.Tier, optedInOnly bool) ([]Customer, error)
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// SaveWithLock updates with optimistic locking on Version
	SaveWithLock(ctx context.Context, customer *Customer) error
	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// WarehouseRepository persists warehouses
type WarehouseRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Warehouse, error)
	FindDefault(ctx context.Context, tenantID uuid.UUID) (*Warehouse, error)
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]Warehouse, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error)
	// ClearDefault unsets the default flag on every warehouse of the tenant
	ClearDefault(ctx context.Context, tenantID uuid.UUID) error
	Save(ctx context.Context, warehouse *Warehouse) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
