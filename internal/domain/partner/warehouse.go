package partner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/shared"
)

// WarehouseStatus represents whether a warehouse accepts stock movements
type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "ACTIVE"
	WarehouseStatusInactive WarehouseStatus = "INACTIVE"
)

// Warehouse is a stock location. Each tenant has exactly one default warehouse
// that order fulfilment draws from.
type Warehouse struct {
	shared.TenantEntity
	Code      string          `gorm:"size:50;not null;index:idx_warehouses_code"`
	Name      string          `gorm:"size:200;not null"`
	Address   Address         `gorm:"serializer:json;type:jsonb"`
	IsDefault bool            `gorm:"not null;default:false"`
	Status    WarehouseStatus `gorm:"size:20;not null;default:'ACTIVE'"`
	DeletedAt gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates an active warehouse
func NewWarehouse(tenantID uuid.UUID, code, name string, address Address) (*Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.InvalidInput("Warehouse code cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidInput("Warehouse name cannot be empty")
	}
	return &Warehouse{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Code:         code,
		Name:         name,
		Address:      address,
		Status:       WarehouseStatusActive,
	}, nil
}

// Update changes the name and address
func (w *Warehouse) Update(name string, address Address) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.InvalidInput("Warehouse name cannot be empty")
	}
	w.Name = name
	w.Address = address
	w.UpdatedAt = time.Now()
	return nil
}

// Activate allows stock movements
func (w *Warehouse) Activate() {
	w.Status = WarehouseStatusActive
	w.UpdatedAt = time.Now()
}

// Deactivate blocks stock movements; the default warehouse cannot be deactivated
func (w *Warehouse) Deactivate() error {
	if w.IsDefault {
		return shared.InvalidState("The default warehouse cannot be deactivated")
	}
	w.Status = WarehouseStatusInactive
	w.UpdatedAt = time.Now()
	return nil
}

// IsActive reports whether the warehouse accepts movements
func (w *Warehouse) IsActive() bool {
	return w.Status == WarehouseStatusActive
}
