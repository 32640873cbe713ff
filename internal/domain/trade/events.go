package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeOrder         = "Order"
	AggregateTypeReturnRequest = "ReturnRequest"
	AggregateTypeDelivery      = "Delivery"
)

// Event type constants
const (
	EventTypeOrderCreated          = "OrderCreated"
	EventTypeOrderStatusChanged    = "OrderStatusChanged"
	EventTypeOrderPaid             = "OrderPaid"
	EventTypeOrderCancelled        = "OrderCancelled"
	EventTypeReturnCompleted       = "ReturnCompleted"
	EventTypeDeliveryStatusChanged = "DeliveryStatusChanged"
)

// OrderCreatedEvent is raised when an order is placed
type OrderCreatedEvent struct {
	shared.EventHeader
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Channel     Channel         `json:"channel"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int64           `json:"item_count"`
}

// NewOrderCreatedEvent creates an OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderCreated, AggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Channel:         o.Channel,
		Currency:        o.Currency,
		TotalAmount:     o.TotalAmount,
		ItemCount:       o.ItemCount(),
	}
}

// OrderStatusChangedEvent is raised on every fulfilment status change
type OrderStatusChangedEvent struct {
	shared.EventHeader
	OrderNumber string      `json:"order_number"`
	CustomerID  uuid.UUID   `json:"customer_id"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		From:        from,
		To:          o.Status,
	}
}

// OrderPaidEvent is raised when an order becomes fully paid
type OrderPaidEvent struct {
	shared.EventHeader
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderPaidEvent creates an OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderPaid, AggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Currency:        o.Currency,
		TotalAmount:     o.TotalAmount,
	}
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.EventHeader
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Reason      string    `json:"reason"`
}

// NewOrderCancelledEvent creates an OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderCancelled, AggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Reason:          o.CancelReason,
	}
}

// ReturnCompletedEvent is raised when a return has been refunded
type ReturnCompletedEvent struct {
	shared.EventHeader
	OrderID      uuid.UUID       `json:"order_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// NewReturnCompletedEvent creates a ReturnCompletedEvent
func NewReturnCompletedEvent(r *ReturnRequest) *ReturnCompletedEvent {
	return &ReturnCompletedEvent{
		EventHeader: shared.NewEventHeader(EventTypeReturnCompleted, AggregateTypeReturnRequest, r.ID, r.TenantID),
		OrderID:         r.OrderID,
		CustomerID:      r.CustomerID,
		RefundAmount:    r.RefundAmount,
	}
}

// DeliveryStatusChangedEvent is raised on every tracking update
type DeliveryStatusChangedEvent struct {
	shared.EventHeader
	OrderID        uuid.UUID      `json:"order_id"`
	From           DeliveryStatus `json:"from"`
	To             DeliveryStatus `json:"to"`
	Courier        string         `json:"courier"`
	TrackingNumber string         `json:"tracking_number"`
	TrackingURL    string         `json:"tracking_url"`
}

// NewDeliveryStatusChangedEvent creates a DeliveryStatusChangedEvent
func NewDeliveryStatusChangedEvent(d *Delivery, from DeliveryStatus) *DeliveryStatusChangedEvent {
	return &DeliveryStatusChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypeDeliveryStatusChanged, AggregateTypeDelivery, d.ID, d.TenantID),
		OrderID:         d.OrderID,
		From:            from,
		To:              d.Status,
		Courier:         d.Courier,
		TrackingNumber:  d.TrackingNumber,
		TrackingURL:     d.TrackingURL,
	}
}
