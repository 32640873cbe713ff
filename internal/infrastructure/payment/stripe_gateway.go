package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

// Stripe event types handled by ParseWebhook
const (
	stripeEventPaymentSucceeded = "payment_intent.succeeded"
	stripeEventPaymentFailed    = "payment_intent.payment_failed"
	stripeEventChargeRefunded   = "charge.refunded"
)

// StripeGateway implements payment.Gateway and payment.WebhookVerifier with PaymentIntents
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

// StripeOption configures a StripeGateway
type StripeOption func(*stripe.Backends)

// WithStripeBackend routes API calls through the given backend
func WithStripeBackend(b stripe.Backend) StripeOption {
	return func(bs *stripe.Backends) {
		bs.API = b
		bs.Connect = b
		bs.Uploads = b
	}
}

// NewStripeGateway creates a Stripe gateway from configuration
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeGateway, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("stripe: %w", paydomain.ErrProviderUnavailable)
	}
	if !strings.HasPrefix(cfg.SecretKey, "sk_") && !strings.HasPrefix(cfg.SecretKey, "rk_") {
		return nil, fmt.Errorf("stripe: secret key must start with sk_ or rk_")
	}

	var backends *stripe.Backends
	if len(opts) > 0 {
		backends = &stripe.Backends{}
		for _, opt := range opts {
			opt(backends)
		}
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}, nil
}

// Provider returns STRIPE
func (g *StripeGateway) Provider() paydomain.Provider {
	return paydomain.ProviderStripe
}

// CreateCharge opens a PaymentIntent; the client secret is handed to the storefront
func (g *StripeGateway) CreateCharge(ctx context.Context, req paydomain.ChargeRequest) (*paydomain.ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(paydomain.ToMinorUnits(req.Amount, req.Currency)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", req.TenantID.String())
	params.AddMetadata("order_id", req.OrderID.String())
	params.AddMetadata("payment_id", req.PaymentID.String())
	params.AddMetadata("order_number", req.OrderNumber)
	params.SetIdempotencyKey("payment-" + req.PaymentID.String())

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe payment intent",
			zap.String("order_id", req.OrderID.String()),
			zap.Error(err))
		return nil, wrapStripeError("create payment intent", err)
	}

	g.logger.Info("Created Stripe payment intent",
		zap.String("order_id", req.OrderID.String()),
		zap.String("payment_intent", pi.ID),
		zap.String("status", string(pi.Status)))

	return &paydomain.ChargeResult{
		ProviderRef:  pi.ID,
		Status:       mapPaymentIntentStatus(pi.Status),
		ClientSecret: pi.ClientSecret,
	}, nil
}

// Capture captures an authorized PaymentIntent
func (g *StripeGateway) Capture(ctx context.Context, providerRef string) (*paydomain.ChargeResult, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Capture(providerRef, params)
	if err != nil {
		g.logger.Error("Failed to capture Stripe payment intent",
			zap.String("payment_intent", providerRef),
			zap.Error(err))
		return nil, wrapStripeError("capture payment intent", err)
	}

	result := &paydomain.ChargeResult{
		ProviderRef: pi.ID,
		Status:      mapPaymentIntentStatus(pi.Status),
	}
	if pi.LatestCharge != nil {
		result.CaptureRef = pi.LatestCharge.ID
	}
	return result, nil
}

// Refund refunds part or all of a PaymentIntent. The charge is expanded so
// the result carries the cumulative refunded amount.
func (g *StripeGateway) Refund(ctx context.Context, req paydomain.RefundRequest) (*paydomain.RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ProviderRef),
		Amount:        stripe.Int64(paydomain.ToMinorUnits(req.Amount, req.Currency)),
	}
	params.Context = ctx
	params.AddExpand("charge")
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	r, err := g.api.Refunds.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe refund",
			zap.String("payment_intent", req.ProviderRef),
			zap.String("amount", req.Amount.String()),
			zap.Error(err))
		return nil, wrapStripeError("create refund", err)
	}

	g.logger.Info("Created Stripe refund",
		zap.String("payment_intent", req.ProviderRef),
		zap.String("refund_id", r.ID),
		zap.String("status", string(r.Status)))

	result := &paydomain.RefundResult{
		RefundRef: r.ID,
		Status:    strings.ToUpper(string(r.Status)),
	}
	if r.Charge != nil && r.Charge.AmountRefunded > 0 {
		result.RefundedTotal = paydomain.FromMinorUnits(r.Charge.AmountRefunded, req.Currency)
	}
	return result, nil
}

// ParseWebhook verifies the Stripe-Signature header and normalizes the event
func (g *StripeGateway) ParseWebhook(ctx context.Context, payload []byte, headers map[string]string) (*paydomain.WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("stripe: webhook secret not configured: %w", paydomain.ErrProviderUnavailable)
	}
	signature := headerValue(headers, "Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.logger.Warn("Stripe webhook signature rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", paydomain.ErrInvalidSignature, err)
	}

	result := &paydomain.WebhookEvent{
		Provider: paydomain.ProviderStripe,
		EventID:  event.ID,
		RawType:  string(event.Type),
		Kind:     paydomain.WebhookIgnored,
	}

	switch string(event.Type) {
	case stripeEventPaymentSucceeded, stripeEventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: payment intent: %v", paydomain.ErrProviderInvalidResponse, err)
		}
		result.ProviderRef = pi.ID
		result.Currency = strings.ToUpper(string(pi.Currency))
		if string(event.Type) == stripeEventPaymentSucceeded {
			result.Kind = paydomain.WebhookPaymentSucceeded
		} else {
			result.Kind = paydomain.WebhookPaymentFailed
			result.FailureReason = "payment failed"
			if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
				result.FailureReason = pi.LastPaymentError.Msg
			}
		}
	case stripeEventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: charge: %v", paydomain.ErrProviderInvalidResponse, err)
		}
		if ch.PaymentIntent == nil || ch.PaymentIntent.ID == "" {
			g.logger.Debug("Refunded charge has no payment intent", zap.String("charge_id", ch.ID))
			return result, nil
		}
		currency := strings.ToUpper(string(ch.Currency))
		result.Kind = paydomain.WebhookRefunded
		result.ProviderRef = ch.PaymentIntent.ID
		result.Currency = currency
		result.RefundedTotal = paydomain.FromMinorUnits(ch.AmountRefunded, currency)
	}

	return result, nil
}

func mapPaymentIntentStatus(s stripe.PaymentIntentStatus) paydomain.Status {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return paydomain.StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return paydomain.StatusFailed
	default:
		return paydomain.StatusPending
	}
}

// wrapStripeError classifies SDK errors: card and request errors are request
// failures, anything else means Stripe could not be reached
func wrapStripeError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		msg := se.Msg
		if msg == "" {
			msg = string(se.Code)
		}
		if se.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: stripe %s: %s", paydomain.ErrProviderUnavailable, op, msg)
		}
		return fmt.Errorf("%w: stripe %s: %s", paydomain.ErrProviderRequestFailed, op, msg)
	}
	return fmt.Errorf("%w: stripe %s: %v", paydomain.ErrProviderUnavailable, op, err)
}

// headerValue looks a header up case-insensitively
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

var (
	_ paydomain.Gateway         = (*StripeGateway)(nil)
	_ paydomain.WebhookVerifier = (*StripeGateway)(nil)
)
