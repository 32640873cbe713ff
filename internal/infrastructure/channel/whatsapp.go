package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
)

// WhatsAppAdapter validates WhatsApp Business credentials. Messaging itself
// goes through the notification senders.
type WhatsAppAdapter struct {
	client *messaging.WhatsAppClient
}

// NewWhatsAppAdapter creates a WhatsAppAdapter
func NewWhatsAppAdapter(client *messaging.WhatsAppClient) *WhatsAppAdapter {
	return &WhatsAppAdapter{client: client}
}

// Platform returns WHATSAPP
func (a *WhatsAppAdapter) Platform() integration.Platform {
	return integration.PlatformWhatsApp
}

// TestConnection looks up the phone number with the access token
func (a *WhatsAppAdapter) TestConnection(ctx context.Context, creds integration.Credentials) error {
	_, err := a.client.PhoneNumber(ctx, creds.Get(integration.CredPhoneNumberID), creds.Get(integration.CredAccessToken))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, messaging.ErrGraphUnauthorized):
		return fmt.Errorf("%w: %v", integration.ErrPlatformUnauthorized, err)
	default:
		return fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}
}

// PushProducts is not supported
func (a *WhatsAppAdapter) PushProducts(context.Context, integration.Credentials, []integration.ChannelProduct) (*integration.SyncResult, error) {
	return nil, integration.ErrOperationNotSupported
}

// PushStock is not supported
func (a *WhatsAppAdapter) PushStock(context.Context, integration.Credentials, []integration.StockLevel) (*integration.SyncResult, error) {
	return nil, integration.ErrOperationNotSupported
}

// PullOrders is not supported
func (a *WhatsAppAdapter) PullOrders(context.Context, integration.Credentials, time.Time) ([]integration.ChannelOrder, error) {
	return nil, integration.ErrOperationNotSupported
}

var _ integration.Adapter = (*WhatsAppAdapter)(nil)
