package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

const sendGridMailPath = "/v3/mail/send"

// SendGridSender delivers email through the SendGrid v3 mail send API
type SendGridSender struct {
	config config.SendGridConfig
	client *rest.Client
	logger *zap.Logger
}

// NewSendGridSender creates a SendGridSender
func NewSendGridSender(cfg config.SendGridConfig, logger *zap.Logger) (*SendGridSender, error) {
	if cfg.APIKey == "" || cfg.FromEmail == "" {
		return nil, fmt.Errorf("sendgrid: %w", notification.ErrChannelNotConfigured)
	}
	return &SendGridSender{
		config: cfg,
		client: &rest.Client{HTTPClient: newHTTPClient(cfg.Timeout)},
		logger: logger,
	}, nil
}

// Channel returns EMAIL
func (s *SendGridSender) Channel() notification.Channel {
	return notification.ChannelEmail
}

type sendGridError struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

// Send sends one email. The returned reference is SendGrid's X-Message-Id.
func (s *SendGridSender) Send(ctx context.Context, msg notification.Message) (string, error) {
	if msg.Text == "" && msg.HTML == "" {
		return "", fmt.Errorf("%w: email has no content", notification.ErrProviderRejected)
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.config.FromName, s.config.FromEmail))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	p.SetCustomArg("tenant_id", msg.TenantID.String())
	m.AddPersonalizations(p)

	// text/plain must come before text/html
	if msg.Text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	// an empty host means api.sendgrid.com
	req := sendgrid.GetRequest(s.config.APIKey, sendGridMailPath, s.config.BaseURL)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(m)

	resp, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("sendgrid: request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		var errResp sendGridError
		if json.Unmarshal([]byte(resp.Body), &errResp) == nil && len(errResp.Errors) > 0 {
			return "", fmt.Errorf("%w: sendgrid HTTP %d: %s", notification.ErrProviderRejected, resp.StatusCode, errResp.Errors[0].Message)
		}
		return "", fmt.Errorf("%w: sendgrid HTTP %d", notification.ErrProviderRejected, resp.StatusCode)
	}

	var ref string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		ref = ids[0]
	}
	s.logger.Debug("Email accepted by SendGrid",
		zap.String("tenant_id", msg.TenantID.String()),
		zap.String("message_id", ref))
	return ref, nil
}

var _ notification.Sender = (*SendGridSender)(nil)
