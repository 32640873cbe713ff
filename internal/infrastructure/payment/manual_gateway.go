package payment

import (
	"context"

	"github.com/google/uuid"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
)

// ManualGateway records cash-on-delivery and bank transfer payments.
// Nothing leaves the process; staff confirm collection with Capture.
type ManualGateway struct{}

// NewManualGateway creates a ManualGateway
func NewManualGateway() *ManualGateway {
	return &ManualGateway{}
}

// Provider returns MANUAL
func (g *ManualGateway) Provider() paydomain.Provider {
	return paydomain.ProviderManual
}

// CreateCharge returns a pending payment with a local reference
func (g *ManualGateway) CreateCharge(_ context.Context, req paydomain.ChargeRequest) (*paydomain.ChargeResult, error) {
	return &paydomain.ChargeResult{
		ProviderRef: "manual_" + req.PaymentID.String(),
		Status:      paydomain.StatusPending,
	}, nil
}

// Capture marks the money as collected
func (g *ManualGateway) Capture(_ context.Context, providerRef string) (*paydomain.ChargeResult, error) {
	return &paydomain.ChargeResult{
		ProviderRef: providerRef,
		Status:      paydomain.StatusSucceeded,
	}, nil
}

// Refund records a refund paid out by hand
func (g *ManualGateway) Refund(_ context.Context, req paydomain.RefundRequest) (*paydomain.RefundResult, error) {
	ref := req.IdempotencyKey
	if ref == "" {
		ref = uuid.NewString()
	}
	return &paydomain.RefundResult{
		RefundRef: "manual_refund_" + ref,
		Status:    "COMPLETED",
	}, nil
}

var _ paydomain.Gateway = (*ManualGateway)(nil)
