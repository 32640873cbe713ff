package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/shared"
)

// OrderRepository persists orders with their items
type OrderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Order, error)
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, channel Channel, externalID string) (*Order, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	Create(ctx context.Context, order *Order) error
	// SaveWithLock updates the order and its items if Version still matches
	SaveWithLock(ctx context.Context, order *Order) error
	Summary(ctx context.Context, tenantID uuid.UUID, period shared.DateRange) (*OrderSummary, error)
}

// OrderSummary aggregates order figures for a period; cancelled orders are excluded
type OrderSummary struct {
	OrderCount        int64           `json:"order_count"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	PendingCount      int64           `json:"pending_count"`
	UniqueCustomers   int64           `json:"unique_customers"`
}

// ReturnRequestRepository persists return requests
type ReturnRequestRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ReturnRequest, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]ReturnRequest, error)
	// HasOpen reports whether the order has a return that is not finished
	HasOpen(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error)
	Save(ctx context.Context, r *ReturnRequest) error
	SaveWithLock(ctx context.Context, r *ReturnRequest) error
}

// DeliveryRepository persists deliveries
type DeliveryRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Delivery, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]Delivery, error)
	Save(ctx context.Context, d *Delivery) error
}
