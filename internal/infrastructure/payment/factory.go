package payment

import (
	"go.uber.org/zap"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

// Providers holds the configured gateways and webhook verifiers
type Providers struct {
	Gateways  map[paydomain.Provider]paydomain.Gateway
	Verifiers map[paydomain.Provider]paydomain.WebhookVerifier
}

// NewProviders builds every gateway that has credentials. Manual payments are always available.
func NewProviders(cfg *config.Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{
		Gateways:  map[paydomain.Provider]paydomain.Gateway{},
		Verifiers: map[paydomain.Provider]paydomain.WebhookVerifier{},
	}
	p.Gateways[paydomain.ProviderManual] = NewManualGateway()

	if cfg.Stripe.Enabled() {
		gw, err := NewStripeGateway(cfg.Stripe, logger.Named("stripe"))
		if err != nil {
			return nil, err
		}
		p.Gateways[paydomain.ProviderStripe] = gw
		p.Verifiers[paydomain.ProviderStripe] = gw
	} else {
		logger.Info("Stripe not configured, card payments disabled")
	}

	if cfg.PayPal.Enabled() {
		gw, err := NewPayPalGateway(cfg.PayPal, logger.Named("paypal"))
		if err != nil {
			return nil, err
		}
		p.Gateways[paydomain.ProviderPayPal] = gw
		p.Verifiers[paydomain.ProviderPayPal] = gw
	} else {
		logger.Info("PayPal not configured, PayPal payments disabled")
	}

	return p, nil
}
