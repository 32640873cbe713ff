package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

// WhatsAppClient calls the WhatsApp Business Cloud API
type WhatsAppClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWhatsAppClient creates a client for the configured Graph API version
func NewWhatsAppClient(cfg config.WhatsAppConfig) *WhatsAppClient {
	graphURL := cfg.GraphURL
	if graphURL == "" {
		graphURL = "https://graph.facebook.com"
	}
	version := cfg.APIVersion
	if version == "" {
		version = "v19.0"
	}
	return &WhatsAppClient{
		baseURL:    strings.TrimRight(graphURL, "/") + "/" + version,
		httpClient: newHTTPClient(cfg.Timeout),
	}
}

// WhatsAppPhoneNumber is the business phone number behind a phone number id
type WhatsAppPhoneNumber struct {
	ID                 string `json:"id"`
	DisplayPhoneNumber string `json:"display_phone_number"`
	VerifiedName       string `json:"verified_name"`
	QualityRating      string `json:"quality_rating"`
}

type whatsAppTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type whatsAppSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type graphError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// ErrGraphUnauthorized is returned when the access token is rejected
var ErrGraphUnauthorized = errors.New("graph API rejected the access token")

// SendText sends a text message and returns the WhatsApp message id (wamid)
func (c *WhatsAppClient) SendText(ctx context.Context, phoneNumberID, accessToken, to, body string) (string, error) {
	msg := whatsAppTextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               strings.TrimPrefix(to, "+"),
		Type:             "text",
	}
	msg.Text.Body = body

	var resp whatsAppSendResponse
	if err := c.call(ctx, http.MethodPost, "/"+url.PathEscape(phoneNumberID)+"/messages", accessToken, msg, &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 || resp.Messages[0].ID == "" {
		return "", fmt.Errorf("whatsapp: response without message id")
	}
	return resp.Messages[0].ID, nil
}

// PhoneNumber looks up the phone number, which validates the id and token together
func (c *WhatsAppClient) PhoneNumber(ctx context.Context, phoneNumberID, accessToken string) (*WhatsAppPhoneNumber, error) {
	var pn WhatsAppPhoneNumber
	path := "/" + url.PathEscape(phoneNumberID) + "?fields=id,display_phone_number,verified_name,quality_rating"
	if err := c.call(ctx, http.MethodGet, path, accessToken, nil, &pn); err != nil {
		return nil, err
	}
	return &pn, nil
}

func (c *WhatsAppClient) call(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("whatsapp: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("whatsapp: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("whatsapp: failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var ge graphError
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if json.Unmarshal(respBody, &ge) == nil && ge.Error.Message != "" {
			msg = ge.Error.Message
		}
		if resp.StatusCode == http.StatusUnauthorized || ge.Error.Code == 190 {
			return fmt.Errorf("%w: %s", ErrGraphUnauthorized, msg)
		}
		return fmt.Errorf("%w: whatsapp: %s", notification.ErrProviderRejected, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("whatsapp: failed to parse response: %w", err)
	}
	return nil
}

// whatsAppAccounts finds a tenant's WhatsApp integration
type whatsAppAccounts interface {
	FindActiveByPlatform(ctx context.Context, tenantID uuid.UUID, platform integration.Platform) (*integration.Integration, error)
}

// WhatsAppSender sends notifications over WhatsApp. A tenant's own active
// WhatsApp integration is used when present, otherwise the platform account.
type WhatsAppSender struct {
	client   *WhatsAppClient
	config   config.WhatsAppConfig
	accounts whatsAppAccounts
	logger   *zap.Logger
}

// NewWhatsAppSender creates a WhatsAppSender. accounts may be nil.
func NewWhatsAppSender(cfg config.WhatsAppConfig, accounts whatsAppAccounts, logger *zap.Logger) *WhatsAppSender {
	return &WhatsAppSender{
		client:   NewWhatsAppClient(cfg),
		config:   cfg,
		accounts: accounts,
		logger:   logger,
	}
}

// Channel returns WHATSAPP
func (s *WhatsAppSender) Channel() notification.Channel {
	return notification.ChannelWhatsApp
}

// Send sends the text body of the message
func (s *WhatsAppSender) Send(ctx context.Context, msg notification.Message) (string, error) {
	phoneNumberID, token, err := s.credentials(ctx, msg.TenantID)
	if err != nil {
		return "", err
	}
	ref, err := s.client.SendText(ctx, phoneNumberID, token, msg.To, msg.Text)
	if err != nil {
		return "", err
	}
	s.logger.Debug("WhatsApp message accepted",
		zap.String("tenant_id", msg.TenantID.String()),
		zap.String("wamid", ref))
	return ref, nil
}

func (s *WhatsAppSender) credentials(ctx context.Context, tenantID uuid.UUID) (string, string, error) {
	if s.accounts != nil {
		in, err := s.accounts.FindActiveByPlatform(ctx, tenantID, integration.PlatformWhatsApp)
		switch {
		case err == nil:
			return in.Credentials.Get(integration.CredPhoneNumberID), in.Credentials.Get(integration.CredAccessToken), nil
		case !errors.Is(err, shared.ErrNotFound):
			return "", "", err
		}
	}
	if s.config.PhoneNumberID == "" || s.config.AccessToken == "" {
		return "", "", fmt.Errorf("whatsapp: %w", notification.ErrChannelNotConfigured)
	}
	return s.config.PhoneNumberID, s.config.AccessToken, nil
}

var _ notification.Sender = (*WhatsAppSender)(nil)
