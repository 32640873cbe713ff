package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	// FindByProviderRef looks a payment up across tenants; webhooks carry no tenant
	FindByProviderRef(ctx context.Context, provider Provider, ref string) (*Payment, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]Payment, error)
	Save(ctx context.Context, p *Payment) error
}

// ProcessedWebhookRepository is the durable record of handled webhook events
type ProcessedWebhookRepository interface {
	// MarkProcessed returns false when the event was already recorded
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
	// Unmark forgets the event so a redelivery is applied
	Unmark(ctx context.Context, provider, eventID string) error
}
