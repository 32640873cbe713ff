package partner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
)

// WarehouseService manages stock locations. A tenant always has exactly one
// default warehouse once it has any.
type WarehouseService struct {
	warehouseRepo partner.WarehouseRepository
	txManager     shared.TxManager
	logger        *zap.Logger
}

// NewWarehouseService creates a new WarehouseService
func NewWarehouseService(warehouseRepo partner.WarehouseRepository, txManager shared.TxManager, logger *zap.Logger) *WarehouseService {
	return &WarehouseService{warehouseRepo: warehouseRepo, txManager: txManager, logger: logger}
}

// Create adds a warehouse. The first warehouse of a tenant becomes the default.
func (s *WarehouseService) Create(ctx context.Context, tenantID uuid.UUID, req WarehouseRequest) (*WarehouseResponse, error) {
	warehouse, err := partner.NewWarehouse(tenantID, req.Code, req.Name, req.Address.toDomain())
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.warehouseRepo.ExistsByCode(ctx, tenantID, warehouse.Code, nil)
		if err != nil {
			return err
		}
		if exists {
			return shared.AlreadyExists(fmt.Sprintf("Warehouse code %s already exists", warehouse.Code))
		}

		makeDefault := req.IsDefault
		if !makeDefault {
			if _, err := s.warehouseRepo.FindDefault(ctx, tenantID); err != nil {
				if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
				makeDefault = true
			}
		}
		if makeDefault {
			if err := s.warehouseRepo.ClearDefault(ctx, tenantID); err != nil {
				return err
			}
			warehouse.IsDefault = true
		}
		return s.warehouseRepo.Save(ctx, warehouse)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Warehouse created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("warehouse_id", warehouse.ID.String()),
		zap.Bool("default", warehouse.IsDefault))

	response := ToWarehouseResponse(warehouse)
	return &response, nil
}

// List returns all warehouses of the tenant
func (s *WarehouseService) List(ctx context.Context, tenantID uuid.UUID) ([]WarehouseResponse, error) {
	warehouses, err := s.warehouseRepo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]WarehouseResponse, len(warehouses))
	for i := range warehouses {
		out[i] = ToWarehouseResponse(&warehouses[i])
	}
	return out, nil
}

// GetByID returns one warehouse
func (s *WarehouseService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*WarehouseResponse, error) {
	warehouse, err := s.warehouseRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToWarehouseResponse(warehouse)
	return &response, nil
}

// Update changes name and address, and can promote the warehouse to default
// or toggle whether it accepts stock
func (s *WarehouseService) Update(ctx context.Context, tenantID, id uuid.UUID, req WarehouseRequest) (*WarehouseResponse, error) {
	var warehouse *partner.Warehouse
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		warehouse, err = s.warehouseRepo.FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := warehouse.Update(req.Name, req.Address.toDomain()); err != nil {
			return err
		}
		if req.Active != nil {
			if *req.Active {
				warehouse.Activate()
			} else if err := warehouse.Deactivate(); err != nil {
				return err
			}
		}
		if req.IsDefault && !warehouse.IsDefault {
			if !warehouse.IsActive() {
				return shared.InvalidState("An inactive warehouse cannot be the default")
			}
			if err := s.warehouseRepo.ClearDefault(ctx, tenantID); err != nil {
				return err
			}
			warehouse.IsDefault = true
		}
		return s.warehouseRepo.Save(ctx, warehouse)
	})
	if err != nil {
		return nil, err
	}
	response := ToWarehouseResponse(warehouse)
	return &response, nil
}

// Delete soft-deletes a warehouse other than the default one
func (s *WarehouseService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	warehouse, err := s.warehouseRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if warehouse.IsDefault {
		return shared.InvalidState("The default warehouse cannot be deleted")
	}
	return s.warehouseRepo.Delete(ctx, tenantID, id)
}
