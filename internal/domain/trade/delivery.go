package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
)

// DeliveryStatus is the shipment tracking status
type DeliveryStatus string

const (
	DeliveryStatusPending        DeliveryStatus = "PENDING"
	DeliveryStatusPickedUp       DeliveryStatus = "PICKED_UP"
	DeliveryStatusInTransit      DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusOutForDelivery DeliveryStatus = "OUT_FOR_DELIVERY"
	DeliveryStatusDelivered      DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed         DeliveryStatus = "FAILED"
)

// A shipment moves one step at a time and may fail at any step before
// delivery. DELIVERED and FAILED are final; a failed shipment is replaced by
// a new delivery.
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:        {DeliveryStatusPickedUp, DeliveryStatusFailed},
	DeliveryStatusPickedUp:       {DeliveryStatusInTransit, DeliveryStatusFailed},
	DeliveryStatusInTransit:      {DeliveryStatusOutForDelivery, DeliveryStatusFailed},
	DeliveryStatusOutForDelivery: {DeliveryStatusDelivered, DeliveryStatusFailed},
}

// ParseDeliveryStatus parses a status name case-insensitively
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	st := DeliveryStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case DeliveryStatusPending, DeliveryStatusPickedUp, DeliveryStatusInTransit,
		DeliveryStatusOutForDelivery, DeliveryStatusDelivered, DeliveryStatusFailed:
		return st, nil
	}
	return "", shared.InvalidInput("Unknown delivery status: " + s)
}

// TrackingEvent is one entry of a delivery's status history
type TrackingEvent struct {
	Status DeliveryStatus `json:"status"`
	Note   string         `json:"note,omitempty"`
	At     time.Time      `json:"at"`
}

// Delivery is a shipment of an order
type Delivery struct {
	shared.TenantAggregateRoot
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_deliveries_order"`
	Status         DeliveryStatus  `gorm:"size:30;not null"`
	Courier        string          `gorm:"size:100"`
	TrackingNumber string          `gorm:"size:100"`
	TrackingURL    string          `gorm:"size:500"`
	Address        partner.Address `gorm:"serializer:json;type:jsonb"`
	FailureReason  string          `gorm:"size:500"`
	History        []TrackingEvent `gorm:"serializer:json;type:jsonb"`
	ShippedAt      *time.Time      `gorm:""`
	DeliveredAt    *time.Time      `gorm:""`
}

// TableName returns the table name for GORM
func (Delivery) TableName() string {
	return "deliveries"
}

// NewDelivery creates a pending delivery for an order
func NewDelivery(order *Order, courier, trackingNumber, trackingURL string) (*Delivery, error) {
	switch order.Status {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped:
	default:
		return nil, shared.InvalidState("Deliveries can only be created for confirmed or processing orders")
	}
	if order.ShippingAddress.IsZero() {
		return nil, shared.InvalidInput("Order has no shipping address")
	}
	now := time.Now()
	return &Delivery{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(order.TenantID),
		OrderID:             order.ID,
		Status:              DeliveryStatusPending,
		Courier:             strings.TrimSpace(courier),
		TrackingNumber:      strings.TrimSpace(trackingNumber),
		TrackingURL:         strings.TrimSpace(trackingURL),
		Address:             order.ShippingAddress,
		History:             []TrackingEvent{{Status: DeliveryStatusPending, At: now}},
	}, nil
}

// UpdateStatus advances the delivery and appends to its history
func (d *Delivery) UpdateStatus(next DeliveryStatus, note string) error {
	allowed := false
	for _, s := range deliveryTransitions[d.Status] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return shared.InvalidState("Cannot change delivery status from " + string(d.Status) + " to " + string(next))
	}
	now := time.Now()
	prev := d.Status
	d.Status = next
	d.History = append(d.History, TrackingEvent{Status: next, Note: note, At: now})
	switch next {
	case DeliveryStatusPickedUp:
		d.ShippedAt = &now
	case DeliveryStatusDelivered:
		d.DeliveredAt = &now
	case DeliveryStatusFailed:
		d.FailureReason = note
	}
	d.UpdatedAt = now
	d.Record(NewDeliveryStatusChangedEvent(d, prev))
	return nil
}

// UpdateTracking changes courier and tracking details
func (d *Delivery) UpdateTracking(courier, trackingNumber, trackingURL string) {
	if courier != "" {
		d.Courier = courier
	}
	if trackingNumber != "" {
		d.TrackingNumber = trackingNumber
	}
	if trackingURL != "" {
		d.TrackingURL = trackingURL
	}
	d.UpdatedAt = time.Now()
}
