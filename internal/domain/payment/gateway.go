package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider errors
var (
	ErrProviderUnavailable     = errors.New("payment provider is not configured")
	ErrProviderRequestFailed   = errors.New("payment provider request failed")
	ErrProviderInvalidResponse = errors.New("payment provider returned an invalid response")
	ErrInvalidSignature        = errors.New("webhook signature verification failed")
)

// ChargeRequest describes a payment to open at a provider
type ChargeRequest struct {
	PaymentID     uuid.UUID
	TenantID      uuid.UUID
	OrderID       uuid.UUID
	OrderNumber   string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	Description   string
	ReturnURL     string
	CancelURL     string
}

// ChargeResult is the provider's answer to a charge or capture
type ChargeResult struct {
	ProviderRef  string
	Status       Status
	ClientSecret string
	ApprovalURL  string
	// CaptureRef identifies the capture when it differs from ProviderRef
	CaptureRef    string
	FailureReason string
}

// RefundRequest describes money to send back on a captured payment
type RefundRequest struct {
	ProviderRef string
	Amount      decimal.Decimal
	Currency    string
	// IdempotencyKey makes a retried refund return the original result
	IdempotencyKey string
}

// RefundResult is the provider's answer to a refund
type RefundResult struct {
	RefundRef string
	Status    string
	// RefundedTotal is the cumulative refunded amount on the payment after
	// this refund, or zero when the provider does not report it
	RefundedTotal decimal.Decimal
}

// Gateway is a payment processor
type Gateway interface {
	Provider() Provider
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Capture(ctx context.Context, providerRef string) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// WebhookEventKind is the normalized meaning of a provider notification
type WebhookEventKind string

const (
	WebhookPaymentSucceeded WebhookEventKind = "PAYMENT_SUCCEEDED"
	WebhookPaymentFailed    WebhookEventKind = "PAYMENT_FAILED"
	WebhookRefunded         WebhookEventKind = "REFUNDED"
	WebhookIgnored          WebhookEventKind = "IGNORED"
)

// WebhookEvent is a verified provider notification in provider-neutral form
type WebhookEvent struct {
	Provider    Provider
	EventID     string
	RawType     string
	Kind        WebhookEventKind
	ProviderRef string
	// RefundedTotal is the cumulative refunded amount for REFUNDED events
	RefundedTotal decimal.Decimal
	Currency      string
	FailureReason string
}

// WebhookVerifier verifies and parses provider notifications
type WebhookVerifier interface {
	Provider() Provider
	ParseWebhook(ctx context.Context, payload []byte, headers map[string]string) (*WebhookEvent, error)
}
