package loyalty

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// TransactionRepository persists the loyalty ledger
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]Transaction, int64, error)
	// SumByOrder returns the signed point total recorded for an order and type
	SumByOrder(ctx context.Context, tenantID, orderID uuid.UUID, txType TransactionType) (int64, error)
}
