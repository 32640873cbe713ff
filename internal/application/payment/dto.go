package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
)

// CreatePaymentRequest opens a payment for an order. Amount defaults to the balance due.
type CreatePaymentRequest struct {
	OrderID  uuid.UUID        `json:"order_id" binding:"required"`
	Provider string           `json:"provider" binding:"required,oneof=STRIPE PAYPAL MANUAL stripe paypal manual"`
	Amount   *decimal.Decimal `json:"amount"`
}

// RefundRequest refunds a captured payment. Amount defaults to everything refundable.
type RefundRequest struct {
	Amount         *decimal.Decimal `json:"amount"`
	Reason         string           `json:"reason" binding:"max=500"`
	IdempotencyKey string           `json:"idempotency_key" binding:"max=100"`
}

// PaymentResponse is a payment in API responses
type PaymentResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"order_id"`
	Provider       string          `json:"provider"`
	ProviderRef    string          `json:"provider_ref,omitempty"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	Refundable     decimal.Decimal `json:"refundable"`
	Currency       string          `json:"currency"`
	ApprovalURL    string          `json:"approval_url,omitempty"`
	ClientSecret   string          `json:"client_secret,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	SucceededAt    *time.Time      `json:"succeeded_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a payment
func ToPaymentResponse(p *paydomain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Provider:       string(p.Provider),
		ProviderRef:    p.ProviderRef,
		Status:         string(p.Status),
		Amount:         p.Amount,
		RefundedAmount: p.RefundedAmount,
		Refundable:     p.Refundable(),
		Currency:       p.Currency,
		ApprovalURL:    p.ApprovalURL,
		ClientSecret:   p.ClientSecret,
		FailureReason:  p.FailureReason,
		SucceededAt:    p.SucceededAt,
		CreatedAt:      p.CreatedAt,
	}
}

// WebhookResult reports what happened to a provider notification
type WebhookResult struct {
	Provider  string `json:"provider"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}
