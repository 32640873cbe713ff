package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/shared"
)

// Provider identifies the payment processor
type Provider string

const (
	ProviderStripe Provider = "STRIPE"
	ProviderPayPal Provider = "PAYPAL"
	ProviderManual Provider = "MANUAL"
)

// ParseProvider parses a provider name case-insensitively
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case ProviderStripe, ProviderPayPal, ProviderManual:
		return p, nil
	}
	return "", shared.InvalidInput("Unsupported payment provider: " + s)
}

// Status is the payment status
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusSucceeded         Status = "SUCCEEDED"
	StatusFailed            Status = "FAILED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
	StatusRefunded          Status = "REFUNDED"
)

// Payment records one attempt to collect money for an order
type Payment struct {
	shared.TenantAggregateRoot
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_order"`
	Provider       Provider        `gorm:"size:20;not null"`
	ProviderRef    string          `gorm:"size:255;index:idx_payments_provider_ref"`
	Status         Status          `gorm:"size:30;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RefundedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency       string          `gorm:"size:3;not null"`
	ApprovalURL    string          `gorm:"size:1000"`
	FailureReason  string          `gorm:"size:500"`
	SucceededAt    *time.Time      `gorm:""`
	ClientSecret   string          `gorm:"-"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a pending payment
func NewPayment(tenantID, orderID uuid.UUID, provider Provider, amount decimal.Decimal, currency string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.InvalidInput("Payment amount must be positive")
	}
	if len(currency) != 3 {
		return nil, shared.InvalidInput("Currency must be a 3-letter ISO code")
	}
	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderID:             orderID,
		Provider:            provider,
		Status:              StatusPending,
		Amount:              amount,
		RefundedAmount:      decimal.Zero,
		Currency:            strings.ToUpper(currency),
	}, nil
}

// AttachProvider stores the processor's reference for this payment
func (p *Payment) AttachProvider(ref, approvalURL, clientSecret string) {
	p.ProviderRef = ref
	p.ApprovalURL = approvalURL
	p.ClientSecret = clientSecret
	p.UpdatedAt = time.Now()
}

// MarkSucceeded records a successful capture. It returns false when the
// payment had already succeeded, so repeated notifications are no-ops.
func (p *Payment) MarkSucceeded() (bool, error) {
	switch p.Status {
	case StatusSucceeded, StatusPartiallyRefunded, StatusRefunded:
		return false, nil
	case StatusFailed, StatusPending:
	default:
		return false, shared.InvalidState("Payment cannot succeed in status " + string(p.Status))
	}
	now := time.Now()
	p.Status = StatusSucceeded
	p.FailureReason = ""
	p.SucceededAt = &now
	p.UpdatedAt = now
	return true, nil
}

// MarkFailed records a declined or errored payment
func (p *Payment) MarkFailed(reason string) error {
	if p.Status != StatusPending && p.Status != StatusFailed {
		return shared.InvalidState("Only pending payments can fail")
	}
	p.Status = StatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now()
	return nil
}

// Refundable returns the captured amount not yet refunded
func (p *Payment) Refundable() decimal.Decimal {
	if p.Status != StatusSucceeded && p.Status != StatusPartiallyRefunded {
		return decimal.Zero
	}
	return p.Amount.Sub(p.RefundedAmount)
}

// ValidateRefund checks a refund amount against the refundable balance
func (p *Payment) ValidateRefund(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.InvalidInput("Refund amount must be positive")
	}
	if p.Status != StatusSucceeded && p.Status != StatusPartiallyRefunded {
		return shared.InvalidState("Only captured payments can be refunded")
	}
	if amount.GreaterThan(p.Refundable()) {
		return shared.InvalidInput("Refund exceeds the refundable amount")
	}
	return nil
}

// RecordRefund applies a refunded amount
func (p *Payment) RecordRefund(amount decimal.Decimal) error {
	if err := p.ValidateRefund(amount); err != nil {
		return err
	}
	p.RefundedAmount = p.RefundedAmount.Add(amount)
	if p.RefundedAmount.GreaterThanOrEqual(p.Amount) {
		p.Status = StatusRefunded
	} else {
		p.Status = StatusPartiallyRefunded
	}
	p.UpdatedAt = time.Now()
	return nil
}

// SyncRefundedTotal sets the refunded total reported by the provider.
// It returns the newly refunded delta, which is zero when nothing changed.
func (p *Payment) SyncRefundedTotal(total decimal.Decimal) (decimal.Decimal, error) {
	if total.GreaterThan(p.Amount) {
		total = p.Amount
	}
	delta := total.Sub(p.RefundedAmount)
	if !delta.IsPositive() {
		return decimal.Zero, nil
	}
	if err := p.RecordRefund(delta); err != nil {
		return decimal.Zero, err
	}
	return delta, nil
}
