package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/infrastructure/cache"
)

var errBoom = errors.New("boom")

type stubVerifier struct {
	event *paydomain.WebhookEvent
	err   error
}

func (v *stubVerifier) Provider() paydomain.Provider { return paydomain.ProviderStripe }

func (v *stubVerifier) ParseWebhook(context.Context, []byte, map[string]string) (*paydomain.WebhookEvent, error) {
	return v.event, v.err
}

type countingApplier struct {
	calls int
	err   error
}

func (a *countingApplier) ApplyWebhookEvent(context.Context, *paydomain.WebhookEvent) error {
	a.calls++
	return a.err
}

type brokenStore struct{}

func (brokenStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errBoom
}

func (brokenStore) IsProcessed(context.Context, string) (bool, error) {
	return false, errBoom
}

func (brokenStore) Release(context.Context, string) error { return errBoom }

func (brokenStore) Close() error { return nil }

func newWebhookService(t *testing.T, verifier *stubVerifier, applier *countingApplier, useStore bool) *WebhookService {
	t.Helper()
	f := newPaymentFixture(t)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	svc := NewWebhookService(
		map[paydomain.Provider]paydomain.WebhookVerifier{paydomain.ProviderStripe: verifier},
		applier,
		store,
		f.processed,
		zap.NewNop(),
	)
	if !useStore {
		svc.seen = brokenStore{}
	}
	return svc
}

func succeededEvent(id string) *paydomain.WebhookEvent {
	return &paydomain.WebhookEvent{
		Provider:    paydomain.ProviderStripe,
		EventID:     id,
		RawType:     "payment_intent.succeeded",
		Kind:        paydomain.WebhookPaymentSucceeded,
		ProviderRef: "pi_1",
	}
}

func TestWebhookService_ProcessesEachEventOnce(t *testing.T) {
	verifier := &stubVerifier{event: succeededEvent("evt_1")}
	applier := &countingApplier{}
	svc := newWebhookService(t, verifier, applier, true)
	ctx := t.Context()

	result, err := svc.Process(ctx, paydomain.ProviderStripe, []byte("{}"), nil)
	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, "evt_1", result.EventID)
	assert.Equal(t, "payment_intent.succeeded", result.EventType)

	again, err := svc.Process(ctx, paydomain.ProviderStripe, []byte("{}"), nil)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.False(t, again.Processed)
	assert.Equal(t, 1, applier.calls)
}

func TestWebhookService_FallsBackToDatabase(t *testing.T) {
	verifier := &stubVerifier{event: succeededEvent("evt_db")}
	applier := &countingApplier{}
	svc := newWebhookService(t, verifier, applier, false)
	ctx := t.Context()

	for range 3 {
		_, err := svc.Process(ctx, paydomain.ProviderStripe, nil, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, applier.calls)
}

func TestWebhookService_Rejections(t *testing.T) {
	ctx := t.Context()

	t.Run("bad signature", func(t *testing.T) {
		verifier := &stubVerifier{err: fmt.Errorf("%w: mismatch", paydomain.ErrInvalidSignature)}
		svc := newWebhookService(t, verifier, &countingApplier{}, true)
		_, err := svc.Process(ctx, paydomain.ProviderStripe, nil, nil)
		assert.ErrorIs(t, err, paydomain.ErrInvalidSignature)
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		svc := newWebhookService(t, &stubVerifier{}, &countingApplier{}, true)
		_, err := svc.Process(ctx, paydomain.ProviderPayPal, nil, nil)
		assert.ErrorIs(t, err, paydomain.ErrProviderUnavailable)
	})

	t.Run("malformed payload is acknowledged", func(t *testing.T) {
		verifier := &stubVerifier{err: paydomain.ErrProviderInvalidResponse}
		svc := newWebhookService(t, verifier, &countingApplier{}, true)
		result, err := svc.Process(ctx, paydomain.ProviderStripe, nil, nil)
		require.NoError(t, err)
		assert.False(t, result.Processed)
		assert.NotEmpty(t, result.Message)
	})

	t.Run("ignored type", func(t *testing.T) {
		applier := &countingApplier{}
		verifier := &stubVerifier{event: &paydomain.WebhookEvent{EventID: "evt_x", RawType: "customer.created", Kind: paydomain.WebhookIgnored}}
		svc := newWebhookService(t, verifier, applier, true)
		result, err := svc.Process(ctx, paydomain.ProviderStripe, nil, nil)
		require.NoError(t, err)
		assert.False(t, result.Processed)
		assert.Zero(t, applier.calls)
	})

	t.Run("apply failure is acknowledged", func(t *testing.T) {
		applier := &countingApplier{err: errBoom}
		svc := newWebhookService(t, &stubVerifier{event: succeededEvent("evt_fail")}, applier, true)
		result, err := svc.Process(ctx, paydomain.ProviderStripe, nil, nil)
		require.NoError(t, err)
		assert.False(t, result.Processed)
		assert.Equal(t, "boom", result.Message)
	})
}

func TestWebhookService_FailedApplyIsRetriedOnRedelivery(t *testing.T) {
	for _, useStore := range []bool{true, false} {
		t.Run(fmt.Sprintf("store=%v", useStore), func(t *testing.T) {
			ctx := t.Context()
			applier := &countingApplier{err: errBoom}
			svc := newWebhookService(t, &stubVerifier{event: succeededEvent("evt_retry")}, applier, useStore)

			first, err := svc.Process(ctx, paydomain.ProviderStripe, nil, nil)
			require.NoError(t, err)
			assert.False(t, first.Processed)

			applier.err = nil
			second, err := svc.Process(ctx, paydomain.ProviderStripe, nil, nil)
			require.NoError(t, err)
			assert.False(t, second.Duplicate)
			assert.True(t, second.Processed)

			third, err := svc.Process(ctx, paydomain.ProviderStripe, nil, nil)
			require.NoError(t, err)
			assert.True(t, third.Duplicate)
			assert.Equal(t, 2, applier.calls)
		})
	}
}
