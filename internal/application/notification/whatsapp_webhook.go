package notification

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/integration"
	notifdomain "github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/config"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
)

const inboundDedupTTL = 72 * time.Hour

// WhatsAppWebhookService handles WhatsApp Cloud API webhooks: inbound
// customer messages and delivery receipts for messages we sent
type WhatsAppWebhookService struct {
	config       config.WhatsAppConfig
	integrations integration.IntegrationRepository
	customers    partner.CustomerRepository
	repo         notifdomain.NotificationRepository
	seen         shared.IdempotencyStore
	logger       *zap.Logger
}

// NewWhatsAppWebhookService creates a new WhatsAppWebhookService. seen may be nil.
func NewWhatsAppWebhookService(
	cfg config.WhatsAppConfig,
	integrations integration.IntegrationRepository,
	customers partner.CustomerRepository,
	repo notifdomain.NotificationRepository,
	seen shared.IdempotencyStore,
	logger *zap.Logger,
) *WhatsAppWebhookService {
	return &WhatsAppWebhookService{
		config:       cfg,
		integrations: integrations,
		customers:    customers,
		repo:         repo,
		seen:         seen,
		logger:       logger,
	}
}

// VerifyChallenge answers the hub subscription handshake and returns the
// challenge to echo back
func (s *WhatsAppWebhookService) VerifyChallenge(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || s.config.VerifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(s.config.VerifyToken)) != 1 {
		return "", shared.NewDomainError(shared.CodeForbidden, "Webhook verification failed")
	}
	return challenge, nil
}

// Process verifies the X-Hub-Signature-256 header and applies the payload.
// Messages for a phone number no tenant owns are skipped. An error wrapping
// messaging.ErrInvalidHubSignature means the request must be rejected.
func (s *WhatsAppWebhookService) Process(ctx context.Context, payload []byte, signature string) (*WhatsAppWebhookResult, error) {
	parsed, err := messaging.ParseWhatsAppWebhook(payload)
	if err != nil {
		// still authenticate before reporting anything about the body
		if verr := messaging.VerifyHubSignature(s.config.AppSecret, payload, signature); verr != nil {
			return nil, verr
		}
		return nil, shared.InvalidInput(err.Error())
	}

	owner, err := s.owner(ctx, parsed)
	if err != nil {
		return nil, err
	}
	secret := s.config.AppSecret
	if owner != nil && owner.Credentials.Get(integration.CredAppSecret) != "" {
		secret = owner.Credentials.Get(integration.CredAppSecret)
	}
	if err := messaging.VerifyHubSignature(secret, payload, signature); err != nil {
		s.logger.Warn("Rejected WhatsApp webhook with invalid signature", zap.Error(err))
		return nil, err
	}

	result := &WhatsAppWebhookResult{}
	for _, msg := range parsed.Messages {
		stored, err := s.storeInbound(ctx, owner, msg)
		if err != nil {
			s.logger.Error("Failed to store inbound WhatsApp message",
				zap.String("wamid", msg.MessageID),
				zap.Error(err))
		}
		if stored {
			result.Received++
		} else {
			result.Skipped++
		}
	}
	for _, st := range parsed.Statuses {
		updated, err := s.applyStatus(ctx, st)
		if err != nil {
			s.logger.Error("Failed to apply WhatsApp status",
				zap.String("wamid", st.MessageID),
				zap.Error(err))
		}
		if updated {
			result.Updated++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("Processed WhatsApp webhook",
		zap.Int("received", result.Received),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// owner resolves the tenant integration that owns the receiving phone
// number. Nil means the platform account.
func (s *WhatsAppWebhookService) owner(ctx context.Context, parsed *messaging.WhatsAppNotification) (*integration.Integration, error) {
	phoneNumberID := ""
	switch {
	case len(parsed.Messages) > 0:
		phoneNumberID = parsed.Messages[0].PhoneNumberID
	case len(parsed.Statuses) > 0:
		phoneNumberID = parsed.Statuses[0].PhoneNumberID
	}
	if phoneNumberID == "" {
		return nil, nil
	}
	in, err := s.integrations.FindByCredential(ctx, integration.PlatformWhatsApp, integration.CredPhoneNumberID, phoneNumberID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return in, nil
}

func (s *WhatsAppWebhookService) storeInbound(ctx context.Context, owner *integration.Integration, msg messaging.InboundMessage) (bool, error) {
	if owner == nil || owner.Credentials.Get(integration.CredPhoneNumberID) != msg.PhoneNumberID {
		s.logger.Warn("Inbound WhatsApp message for unknown number",
			zap.String("phone_number_id", msg.PhoneNumberID))
		return false, nil
	}
	if s.seen != nil && msg.MessageID != "" {
		fresh, err := s.seen.MarkProcessed(ctx, shared.DedupKey("whatsapp", msg.MessageID), inboundDedupTTL)
		if err != nil {
			s.logger.Warn("Idempotency store unavailable", zap.Error(err))
		} else if !fresh {
			return false, nil
		}
	}

	n := notifdomain.NewInbound(owner.TenantID, notifdomain.ChannelWhatsApp, msg.From, msg.Text, msg.MessageID)
	if !msg.Timestamp.IsZero() {
		ts := msg.Timestamp
		n.SentAt = &ts
	}
	n.Subject = msg.ProfileName
	if id := s.customerByPhone(ctx, owner.TenantID, msg.From); id != nil {
		n.CustomerID = id
	}
	if err := s.repo.Save(ctx, n); err != nil {
		if s.seen != nil && msg.MessageID != "" {
			if rerr := s.seen.Release(ctx, shared.DedupKey("whatsapp", msg.MessageID)); rerr != nil {
				s.logger.Warn("Failed to release inbound claim", zap.Error(rerr))
			}
		}
		return false, err
	}
	return true, nil
}

// customerByPhone matches the sender by phone; WhatsApp ids omit the "+"
func (s *WhatsAppWebhookService) customerByPhone(ctx context.Context, tenantID uuid.UUID, from string) *uuid.UUID {
	for _, phone := range []string{"+" + from, from} {
		c, err := s.customers.FindByPhone(ctx, tenantID, phone)
		if err == nil {
			return &c.ID
		}
	}
	return nil
}

func (s *WhatsAppWebhookService) applyStatus(ctx context.Context, st messaging.MessageStatus) (bool, error) {
	n, err := s.repo.FindByProviderRef(ctx, notifdomain.ChannelWhatsApp, st.MessageID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	at := st.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	if !n.ApplyProviderStatus(st.Status, at, st.Error) {
		return false, nil
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}
