package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

// TwilioSender delivers SMS through the Twilio Messages API
type TwilioSender struct {
	config config.TwilioConfig
	client *twilio.RestClient
	logger *zap.Logger
}

// NewTwilioSender creates a TwilioSender
func NewTwilioSender(cfg config.TwilioConfig, logger *zap.Logger) (*TwilioSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, fmt.Errorf("twilio: %w", notification.ErrChannelNotConfigured)
	}
	httpClient, err := withBaseURL(newHTTPClient(cfg.Timeout), cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("twilio: %w", err)
	}

	base := &twclient.Client{
		Credentials: twclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(cfg.AccountSID)

	return &TwilioSender{
		config: cfg,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   cfg.AccountSID,
			Password:   cfg.AuthToken,
			AccountSid: cfg.AccountSID,
			Client:     base,
		}),
		logger: logger,
	}, nil
}

// Channel returns SMS
func (s *TwilioSender) Channel() notification.Channel {
	return notification.ChannelSMS
}

// Send sends one SMS and returns the message SID. The SDK call is bounded by
// the client timeout rather than ctx.
func (s *TwilioSender) Send(ctx context.Context, msg notification.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(s.config.FromNumber)
	params.SetBody(msg.Text)

	m, err := s.client.Api.CreateMessage(params)
	if err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) {
			return "", fmt.Errorf("%w: twilio %d: %s", notification.ErrProviderRejected, restErr.Code, restErr.Message)
		}
		return "", fmt.Errorf("twilio: request failed: %w", err)
	}

	sid := deref(m.Sid)
	if status := deref(m.Status); status == "failed" || status == "undelivered" {
		return sid, fmt.Errorf("%w: twilio status %s: %s", notification.ErrProviderRejected, status, deref(m.ErrorMessage))
	}

	s.logger.Debug("SMS accepted by Twilio",
		zap.String("tenant_id", msg.TenantID.String()),
		zap.String("sid", sid))
	return sid, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ notification.Sender = (*TwilioSender)(nil)
