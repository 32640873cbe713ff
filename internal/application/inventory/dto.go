package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/inventory"
)

// RecordMovementRequest records a manual stock movement. TRANSFER requires a
// destination warehouse. An omitted warehouse means the default warehouse.
type RecordMovementRequest struct {
	WarehouseID            *uuid.UUID `json:"warehouse_id"`
	DestinationWarehouseID *uuid.UUID `json:"destination_warehouse_id"`
	ProductID              uuid.UUID  `json:"product_id" binding:"required"`
	VariantID              *uuid.UUID `json:"variant_id"`
	Type                   string     `json:"type" binding:"required,oneof=PURCHASE SALE RETURN DAMAGE ADJUSTMENT TRANSFER"`
	Quantity               int64      `json:"quantity" binding:"min=0"`
	Reason                 string     `json:"reason" binding:"max=500"`
	ReferenceID            string     `json:"reference_id" binding:"max=100"`
	IdempotencyKey         string     `json:"idempotency_key" binding:"max=100"`
}

// TransferRequest moves stock between two warehouses
type TransferRequest struct {
	FromWarehouseID uuid.UUID  `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uuid.UUID  `json:"to_warehouse_id" binding:"required"`
	ProductID       uuid.UUID  `json:"product_id" binding:"required"`
	VariantID       *uuid.UUID `json:"variant_id"`
	Quantity        int64      `json:"quantity" binding:"required,min=1"`
	Reason          string     `json:"reason" binding:"max=500"`
	IdempotencyKey  string     `json:"idempotency_key" binding:"max=100"`
}

// MovementInput is a stock movement requested by another module or the API
type MovementInput struct {
	WarehouseID    uuid.UUID
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Type           inventory.MovementType
	Quantity       int64
	Reason         string
	ReferenceType  string
	ReferenceID    string
	IdempotencyKey string
	CreatedBy      *uuid.UUID
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID              uuid.UUID  `json:"id"`
	InventoryItemID uuid.UUID  `json:"inventory_item_id"`
	WarehouseID     uuid.UUID  `json:"warehouse_id"`
	ProductID       uuid.UUID  `json:"product_id"`
	VariantID       *uuid.UUID `json:"variant_id,omitempty"`
	Type            string     `json:"type"`
	Quantity        int64      `json:"quantity"`
	QuantityBefore  int64      `json:"quantity_before"`
	QuantityAfter   int64      `json:"quantity_after"`
	Reason          string     `json:"reason,omitempty"`
	ReferenceType   string     `json:"reference_type,omitempty"`
	ReferenceID     string     `json:"reference_id,omitempty"`
	TransferID      *uuid.UUID `json:"transfer_id,omitempty"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToMovementResponse converts a movement
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		WarehouseID:     m.WarehouseID,
		ProductID:       m.ProductID,
		VariantID:       m.VariantID,
		Type:            string(m.Type),
		Quantity:        m.Quantity,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		Reason:          m.Reason,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		TransferID:      m.TransferID,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// MovementResult is the outcome of a movement or transfer. Replayed is set
// when an idempotency key matched an earlier request.
type MovementResult struct {
	Movements []MovementResponse `json:"movements"`
	Replayed  bool               `json:"replayed"`
}

// StockResponse represents a stock level in API responses
type StockResponse struct {
	ID             uuid.UUID  `json:"id"`
	WarehouseID    uuid.UUID  `json:"warehouse_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	Quantity       int64      `json:"quantity"`
	LastMovementAt *time.Time `json:"last_movement_at,omitempty"`
	Version        int        `json:"version"`
}

// ToStockResponse converts an inventory item
func ToStockResponse(i *inventory.InventoryItem) StockResponse {
	return StockResponse{
		ID:             i.ID,
		WarehouseID:    i.WarehouseID,
		ProductID:      i.ProductID,
		VariantID:      i.VariantID,
		Quantity:       i.Quantity,
		LastMovementAt: i.LastMovementAt,
		Version:        i.Version,
	}
}

// StockListFilter filters stock levels
type StockListFilter struct {
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	ProductID   *uuid.UUID `form:"product_id"`
	OutOfStock  bool       `form:"out_of_stock"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by" binding:"omitempty,oneof=quantity last_movement_at created_at updated_at"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MovementListFilter filters stock movements
type MovementListFilter struct {
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	ProductID   *uuid.UUID `form:"product_id"`
	Type        string     `form:"type" binding:"omitempty,oneof=PURCHASE SALE RETURN DAMAGE ADJUSTMENT TRANSFER_OUT TRANSFER_IN"`
	ReferenceID string     `form:"reference_id" binding:"max=100"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AlertListFilter filters low-stock alerts
type AlertListFilter struct {
	Status      string     `form:"status" binding:"omitempty,oneof=OPEN ACKNOWLEDGED RESOLVED"`
	ProductID   *uuid.UUID `form:"product_id"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AlertResponse represents a low-stock alert in API responses
type AlertResponse struct {
	ID              uuid.UUID  `json:"id"`
	InventoryItemID uuid.UUID  `json:"inventory_item_id"`
	WarehouseID     uuid.UUID  `json:"warehouse_id"`
	ProductID       uuid.UUID  `json:"product_id"`
	ProductName     string     `json:"product_name,omitempty"`
	SKU             string     `json:"sku,omitempty"`
	VariantID       *uuid.UUID `json:"variant_id,omitempty"`
	Quantity        int64      `json:"quantity"`
	Threshold       int        `json:"threshold"`
	Status          string     `json:"status"`
	AcknowledgedBy  *uuid.UUID `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToAlertResponse converts an alert
func ToAlertResponse(a *inventory.LowStockAlert) AlertResponse {
	return AlertResponse{
		ID:              a.ID,
		InventoryItemID: a.InventoryItemID,
		WarehouseID:     a.WarehouseID,
		ProductID:       a.ProductID,
		VariantID:       a.VariantID,
		Quantity:        a.Quantity,
		Threshold:       a.Threshold,
		Status:          string(a.Status),
		AcknowledgedBy:  a.AcknowledgedBy,
		AcknowledgedAt:  a.AcknowledgedAt,
		ResolvedAt:      a.ResolvedAt,
		CreatedAt:       a.CreatedAt,
	}
}

// ForecastRequest sets the forecast windows in days
type ForecastRequest struct {
	LookbackDays int `form:"lookback_days" binding:"omitempty,min=1,max=365"`
	HorizonDays  int `form:"horizon_days" binding:"omitempty,min=1,max=365"`
}
