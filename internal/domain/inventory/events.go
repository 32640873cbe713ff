package inventory

import (
	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// AggregateTypeInventoryItem is the aggregate type for inventory events
const AggregateTypeInventoryItem = "InventoryItem"

// Event type constants
const (
	EventTypeStockMoved       = "StockMoved"
	EventTypeLowStockDetected = "LowStockDetected"
	EventTypeStockReplenished = "StockReplenished"
)

// StockMovedEvent is raised after any quantity change
type StockMovedEvent struct {
	shared.EventHeader
	InventoryItemID uuid.UUID    `json:"inventory_item_id"`
	WarehouseID     uuid.UUID    `json:"warehouse_id"`
	ProductID       uuid.UUID    `json:"product_id"`
	VariantID       *uuid.UUID   `json:"variant_id,omitempty"`
	MovementType    MovementType `json:"movement_type"`
	Quantity        int64        `json:"quantity"`
	QuantityAfter   int64        `json:"quantity_after"`
}

// NewStockMovedEvent creates a StockMovedEvent from a recorded movement
func NewStockMovedEvent(m *StockMovement) *StockMovedEvent {
	return &StockMovedEvent{
		EventHeader: shared.NewEventHeader(EventTypeStockMoved, AggregateTypeInventoryItem, m.InventoryItemID, m.TenantID),
		InventoryItemID: m.InventoryItemID,
		WarehouseID:     m.WarehouseID,
		ProductID:       m.ProductID,
		VariantID:       m.VariantID,
		MovementType:    m.Type,
		Quantity:        m.Quantity,
		QuantityAfter:   m.QuantityAfter,
	}
}

// LowStockDetectedEvent is raised when a new low-stock alert opens
type LowStockDetectedEvent struct {
	shared.EventHeader
	AlertID       uuid.UUID `json:"alert_id"`
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	SKU           string    `json:"sku"`
	Quantity      int64     `json:"quantity"`
	Threshold     int       `json:"threshold"`
}

// NewLowStockDetectedEvent creates a LowStockDetectedEvent
func NewLowStockDetectedEvent(alert *LowStockAlert, productName, sku, warehouseName string) *LowStockDetectedEvent {
	return &LowStockDetectedEvent{
		EventHeader: shared.NewEventHeader(EventTypeLowStockDetected, AggregateTypeInventoryItem, alert.InventoryItemID, alert.TenantID),
		AlertID:         alert.ID,
		WarehouseID:     alert.WarehouseID,
		WarehouseName:   warehouseName,
		ProductID:       alert.ProductID,
		ProductName:     productName,
		SKU:             sku,
		Quantity:        alert.Quantity,
		Threshold:       alert.Threshold,
	}
}

// StockReplenishedEvent is raised when an alert resolves after restocking
type StockReplenishedEvent struct {
	shared.EventHeader
	AlertID   uuid.UUID `json:"alert_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// NewStockReplenishedEvent creates a StockReplenishedEvent
func NewStockReplenishedEvent(alert *LowStockAlert, quantity int64) *StockReplenishedEvent {
	return &StockReplenishedEvent{
		EventHeader: shared.NewEventHeader(EventTypeStockReplenished, AggregateTypeInventoryItem, alert.InventoryItemID, alert.TenantID),
		AlertID:         alert.ID,
		ProductID:       alert.ProductID,
		Quantity:        quantity,
	}
}
