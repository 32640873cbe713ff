package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/domain/shared"
)

const webhookDedupTTL = 72 * time.Hour

// WebhookApplier applies verified provider notifications
type WebhookApplier interface {
	ApplyWebhookEvent(ctx context.Context, ev *paydomain.WebhookEvent) error
}

// WebhookService verifies provider notifications and applies each provider
// event once. The fast check is the shared idempotency store; the
// processed_webhooks table is authoritative.
type WebhookService struct {
	verifiers map[paydomain.Provider]paydomain.WebhookVerifier
	applier   WebhookApplier
	seen      shared.IdempotencyStore
	processed paydomain.ProcessedWebhookRepository
	logger    *zap.Logger
}

// NewWebhookService creates a new WebhookService. seen may be nil.
func NewWebhookService(
	verifiers map[paydomain.Provider]paydomain.WebhookVerifier,
	applier WebhookApplier,
	seen shared.IdempotencyStore,
	processed paydomain.ProcessedWebhookRepository,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		verifiers: verifiers,
		applier:   applier,
		seen:      seen,
		processed: processed,
		logger:    logger,
	}
}

// Process verifies and applies a notification. A returned error wrapping
// paydomain.ErrInvalidSignature means the request must be rejected; any
// other failure is reported in the result only, so the provider stops
// retrying.
func (s *WebhookService) Process(ctx context.Context, provider paydomain.Provider, payload []byte, headers map[string]string) (*WebhookResult, error) {
	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, paydomain.ErrProviderUnavailable
	}

	ev, err := verifier.ParseWebhook(ctx, payload, headers)
	if err != nil {
		if errors.Is(err, paydomain.ErrInvalidSignature) {
			s.logger.Warn("Rejected webhook with invalid signature",
				zap.String("provider", string(provider)),
				zap.Error(err))
			return nil, err
		}
		s.logger.Error("Failed to parse webhook",
			zap.String("provider", string(provider)),
			zap.Error(err))
		return &WebhookResult{Provider: string(provider), Message: err.Error()}, nil
	}

	result := &WebhookResult{
		Provider:  string(provider),
		EventID:   ev.EventID,
		EventType: ev.RawType,
	}
	if ev.Kind == paydomain.WebhookIgnored {
		s.logger.Debug("Unhandled webhook event type",
			zap.String("provider", string(provider)),
			zap.String("event_type", ev.RawType))
		result.Message = "Event type not handled"
		return result, nil
	}

	fresh, err := s.markProcessed(ctx, provider, ev.EventID)
	if err != nil {
		s.logger.Error("Failed to record webhook event",
			zap.String("event_id", ev.EventID),
			zap.Error(err))
		result.Message = err.Error()
		return result, nil
	}
	if !fresh {
		s.logger.Info("Skipping duplicate webhook event",
			zap.String("provider", string(provider)),
			zap.String("event_id", ev.EventID))
		result.Duplicate = true
		return result, nil
	}

	if err := s.applier.ApplyWebhookEvent(ctx, ev); err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("provider", string(provider)),
			zap.String("event_id", ev.EventID),
			zap.String("event_type", ev.RawType),
			zap.Error(err))
		s.release(ctx, provider, ev.EventID)
		result.Message = err.Error()
		return result, nil
	}

	s.logger.Info("Processed webhook event",
		zap.String("provider", string(provider)),
		zap.String("event_id", ev.EventID),
		zap.String("event_type", ev.RawType))
	result.Processed = true
	return result, nil
}

// release forgets an event whose apply failed so a redelivery is applied
func (s *WebhookService) release(ctx context.Context, provider paydomain.Provider, eventID string) {
	if s.seen != nil {
		if err := s.seen.Release(ctx, shared.DedupKey(string(provider), eventID)); err != nil {
			s.logger.Warn("Failed to release webhook claim",
				zap.String("event_id", eventID),
				zap.Error(err))
		}
	}
	if err := s.processed.Unmark(ctx, string(provider), eventID); err != nil {
		s.logger.Error("Failed to unmark webhook event",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

func (s *WebhookService) markProcessed(ctx context.Context, provider paydomain.Provider, eventID string) (bool, error) {
	if s.seen != nil {
		fresh, err := s.seen.MarkProcessed(ctx, shared.DedupKey(string(provider), eventID), webhookDedupTTL)
		if err != nil {
			s.logger.Warn("Idempotency store unavailable, relying on database",
				zap.Error(err))
		} else if !fresh {
			return false, nil
		}
	}
	return s.processed.MarkProcessed(ctx, string(provider), eventID)
}
