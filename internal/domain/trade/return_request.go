package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/shared"
)

// ReturnStatus is the state of a return request
type ReturnStatus string

const (
	ReturnStatusRequested ReturnStatus = "REQUESTED"
	ReturnStatusApproved  ReturnStatus = "APPROVED"
	ReturnStatusRefunding ReturnStatus = "REFUNDING"
	ReturnStatusRejected  ReturnStatus = "REJECTED"
	ReturnStatusCompleted ReturnStatus = "COMPLETED"
)

// ReturnLine is a quantity of one order item being returned
type ReturnLine struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Quantity    int64     `json:"quantity"`
}

// ReturnRequest tracks a customer return from request to refund
type ReturnRequest struct {
	shared.TenantAggregateRoot
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_return_requests_order"`
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null"`
	Status       ReturnStatus    `gorm:"size:20;not null"`
	Reason       string          `gorm:"size:500;not null"`
	Lines        []ReturnLine    `gorm:"serializer:json;type:jsonb"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Restock      bool            `gorm:"not null"`
	RejectReason string          `gorm:"size:500"`
	ReviewedBy   *uuid.UUID      `gorm:"type:uuid"`
	ReviewedAt   *time.Time      `gorm:""`
	RefundedAt   *time.Time      `gorm:""`
	CompletedAt  *time.Time      `gorm:""`
}

// TableName returns the table name for GORM
func (ReturnRequest) TableName() string {
	return "return_requests"
}

// NewReturnRequest validates the lines against the order and computes the refund.
// The refund is the returned share of the order's discounted merchandise value.
func NewReturnRequest(order *Order, lines []ReturnLine, reason string, restock bool) (*ReturnRequest, error) {
	if order.Status != OrderStatusDelivered {
		return nil, shared.InvalidState("Only delivered orders can be returned")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.InvalidInput("Return reason is required")
	}
	if len(lines) == 0 {
		return nil, shared.InvalidInput("Return must contain at least one item")
	}

	seen := make(map[uuid.UUID]bool, len(lines))
	gross := decimal.Zero
	for _, l := range lines {
		if seen[l.OrderItemID] {
			return nil, shared.InvalidInput("Duplicate order item in return")
		}
		seen[l.OrderItemID] = true
		if l.Quantity <= 0 {
			return nil, shared.InvalidInput("Return quantity must be positive")
		}
		it := order.Item(l.OrderItemID)
		if it == nil {
			return nil, shared.NotFound("Order item")
		}
		if l.Quantity > it.Quantity-it.ReturnedQuantity {
			return nil, shared.InvalidInput("Return quantity exceeds purchased quantity for " + it.SKU)
		}
		gross = gross.Add(it.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}

	refund := gross
	if order.Subtotal.IsPositive() {
		net := order.Subtotal.Sub(order.DiscountAmount).Sub(order.LoyaltyDiscount)
		refund = gross.Mul(net).Div(order.Subtotal)
		refund = refund.Add(refund.Mul(order.TaxRate))
	}
	refund = refund.Round(2)
	if refund.GreaterThan(order.RefundableAmount()) {
		refund = order.RefundableAmount()
	}

	return &ReturnRequest{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(order.TenantID),
		OrderID:             order.ID,
		CustomerID:          order.CustomerID,
		Status:              ReturnStatusRequested,
		Reason:              reason,
		Lines:               lines,
		RefundAmount:        refund,
		Restock:             restock,
	}, nil
}

// Approve accepts the return
func (r *ReturnRequest) Approve(reviewer uuid.UUID) error {
	if r.Status != ReturnStatusRequested {
		return shared.InvalidState("Only requested returns can be approved")
	}
	now := time.Now()
	r.Status = ReturnStatusApproved
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &now
	r.UpdatedAt = now
	return nil
}

// Reject declines the return
func (r *ReturnRequest) Reject(reviewer uuid.UUID, reason string) error {
	if r.Status != ReturnStatusRequested {
		return shared.InvalidState("Only requested returns can be rejected")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.InvalidInput("Reject reason is required")
	}
	now := time.Now()
	r.Status = ReturnStatusRejected
	r.RejectReason = reason
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &now
	r.UpdatedAt = now
	return nil
}

// StartRefund moves an approved return to REFUNDING before money is sent
func (r *ReturnRequest) StartRefund() error {
	if r.Status != ReturnStatusApproved {
		return shared.InvalidState("Only approved returns can be refunded")
	}
	r.Status = ReturnStatusRefunding
	r.UpdatedAt = time.Now()
	return nil
}

// MarkRefunded records that the provider paid the refund out
func (r *ReturnRequest) MarkRefunded(at time.Time) error {
	if r.Status != ReturnStatusRefunding {
		return shared.InvalidState("Return is not being refunded")
	}
	if r.RefundedAt == nil {
		r.RefundedAt = &at
	}
	r.UpdatedAt = at
	return nil
}

// RefundPending reports whether money still has to be paid out
func (r *ReturnRequest) RefundPending() bool {
	return r.RefundAmount.IsPositive() && r.RefundedAt == nil
}

// Complete marks the return as received and refunded. A return with a
// refund to pay must have it recorded first.
func (r *ReturnRequest) Complete() error {
	if r.Status != ReturnStatusApproved && r.Status != ReturnStatusRefunding {
		return shared.InvalidState("Only approved returns can be completed")
	}
	if r.RefundPending() {
		return shared.InvalidState("Return refund has not been paid")
	}
	now := time.Now()
	r.Status = ReturnStatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.Record(NewReturnCompletedEvent(r))
	return nil
}
