package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened to an aggregate and that other
// parts of the store react to (loyalty earning, stock alerts, caches).
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// EventHeader carries the fields every event shares. Concrete events embed
// it and add their payload.
type EventHeader struct {
	ID      uuid.UUID `json:"event_id"`
	Type    string    `json:"event_type"`
	At      time.Time `json:"occurred_at"`
	Subject uuid.UUID `json:"aggregate_id"`
	Kind    string    `json:"aggregate_type"`
	Tenant  uuid.UUID `json:"tenant_id"`
}

// NewEventHeader stamps a new event about the aggregate subject of the given kind
func NewEventHeader(eventType, kind string, subject, tenantID uuid.UUID) EventHeader {
	return EventHeader{
		ID:      uuid.New(),
		Type:    eventType,
		At:      time.Now(),
		Subject: subject,
		Kind:    kind,
		Tenant:  tenantID,
	}
}

func (h EventHeader) EventID() uuid.UUID     { return h.ID }
func (h EventHeader) EventType() string      { return h.Type }
func (h EventHeader) OccurredAt() time.Time  { return h.At }
func (h EventHeader) AggregateID() uuid.UUID { return h.Subject }
func (h EventHeader) AggregateType() string  { return h.Kind }
func (h EventHeader) TenantID() uuid.UUID    { return h.Tenant }
