package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// NotificationRepository persists notifications
type NotificationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Notification, error)
	// FindByProviderRef looks up an outbound message by channel reference across tenants
	FindByProviderRef(ctx context.Context, channel Channel, ref string) (*Notification, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Notification, int64, error)
	Save(ctx context.Context, n *Notification) error
}
