package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

const testWebhookSecret = "whsec_test_secret"

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
	calls   []string
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	m.calls = append(m.calls, method+" "+path)
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func newTestStripeGateway(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) (*StripeGateway, *mockBackend) {
	t.Helper()
	backend := &mockBackend{handler: handler}
	gw, err := NewStripeGateway(config.StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: testWebhookSecret,
	}, zap.NewNop(), WithStripeBackend(backend))
	require.NoError(t, err)
	return gw, backend
}

// signStripePayload builds a Stripe-Signature header for payload
func signStripePayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func stripeEventPayload(t *testing.T, eventType string, object any) []byte {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_" + uuid.NewString()[:8],
		"object":      "event",
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"data":        map[string]json.RawMessage{"object": raw},
	})
	require.NoError(t, err)
	return payload
}

func TestNewStripeGateway(t *testing.T) {
	_, err := NewStripeGateway(config.StripeConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, paydomain.ErrProviderUnavailable)

	_, err = NewStripeGateway(config.StripeConfig{SecretKey: "pk_test_abc"}, zap.NewNop())
	assert.Error(t, err)
}

func TestStripeGateway_CreateCharge(t *testing.T) {
	gw, backend := newTestStripeGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/payment_intents" {
			p := params.(*stripe.PaymentIntentParams)
			if *p.Amount != 1999 || *p.Currency != "usd" {
				return nil, fmt.Errorf("unexpected amount %d %s", *p.Amount, *p.Currency)
			}
			return json.Marshal(&stripe.PaymentIntent{
				ID:           "pi_123",
				ClientSecret: "pi_123_secret_abc",
				Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})

	result, err := gw.CreateCharge(context.Background(), paydomain.ChargeRequest{
		PaymentID:   uuid.New(),
		TenantID:    uuid.New(),
		OrderID:     uuid.New(),
		OrderNumber: "ORD-20240101-ABC123",
		Amount:      decimal.RequireFromString("19.99"),
		Currency:    "USD",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_123", result.ProviderRef)
	assert.Equal(t, "pi_123_secret_abc", result.ClientSecret)
	assert.Equal(t, paydomain.StatusPending, result.Status)
	assert.Equal(t, []string{"POST /v1/payment_intents"}, backend.calls)
}

func TestStripeGateway_CreateCharge_Declined(t *testing.T) {
	gw, _ := newTestStripeGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{
			Code:           stripe.ErrorCodeCardDeclined,
			Msg:            "Your card was declined",
			HTTPStatusCode: 402,
		}
	})

	result, err := gw.CreateCharge(context.Background(), paydomain.ChargeRequest{
		PaymentID: uuid.New(),
		Amount:    decimal.NewFromInt(10),
		Currency:  "USD",
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, paydomain.ErrProviderRequestFailed)
	assert.Contains(t, err.Error(), "Your card was declined")
}

func TestStripeGateway_CreateCharge_Unreachable(t *testing.T) {
	gw, _ := newTestStripeGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	_, err := gw.CreateCharge(context.Background(), paydomain.ChargeRequest{
		PaymentID: uuid.New(),
		Amount:    decimal.NewFromInt(10),
		Currency:  "USD",
	})
	assert.ErrorIs(t, err, paydomain.ErrProviderUnavailable)
}

func TestStripeGateway_Refund(t *testing.T) {
	var key string
	gw, _ := newTestStripeGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/refunds" {
			p := params.(*stripe.RefundParams)
			if *p.PaymentIntent != "pi_123" || *p.Amount != 500 {
				return nil, fmt.Errorf("unexpected refund params")
			}
			if p.IdempotencyKey != nil {
				key = *p.IdempotencyKey
			}
			return json.Marshal(&stripe.Refund{
				ID:     "re_1",
				Status: stripe.RefundStatusSucceeded,
				Charge: &stripe.Charge{ID: "ch_1", AmountRefunded: 1500},
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})

	result, err := gw.Refund(context.Background(), paydomain.RefundRequest{
		ProviderRef:    "pi_123",
		Amount:         decimal.NewFromInt(5),
		Currency:       "usd",
		IdempotencyKey: "return-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "re_1", result.RefundRef)
	assert.Equal(t, "SUCCEEDED", result.Status)
	assert.Equal(t, "return-42", key)
	assert.True(t, decimal.NewFromInt(15).Equal(result.RefundedTotal), result.RefundedTotal.String())
}

func TestStripeGateway_Capture(t *testing.T) {
	gw, _ := newTestStripeGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/payment_intents/pi_123/capture" {
			return json.Marshal(&stripe.PaymentIntent{
				ID:           "pi_123",
				Status:       stripe.PaymentIntentStatusSucceeded,
				LatestCharge: &stripe.Charge{ID: "ch_1"},
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})

	result, err := gw.Capture(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, paydomain.StatusSucceeded, result.Status)
	assert.Equal(t, "ch_1", result.CaptureRef)
}

func TestStripeGateway_ParseWebhook(t *testing.T) {
	gw, _ := newTestStripeGateway(t, nil)
	ctx := context.Background()

	t.Run("payment succeeded", func(t *testing.T) {
		payload := stripeEventPayload(t, "payment_intent.succeeded", map[string]any{
			"id": "pi_ok", "object": "payment_intent", "currency": "usd", "status": "succeeded",
		})
		headers := map[string]string{"stripe-signature": signStripePayload(payload, testWebhookSecret, time.Now())}

		event, err := gw.ParseWebhook(ctx, payload, headers)
		require.NoError(t, err)
		assert.Equal(t, paydomain.WebhookPaymentSucceeded, event.Kind)
		assert.Equal(t, "pi_ok", event.ProviderRef)
		assert.Equal(t, "USD", event.Currency)
		assert.NotEmpty(t, event.EventID)
	})

	t.Run("payment failed carries the decline message", func(t *testing.T) {
		payload := stripeEventPayload(t, "payment_intent.payment_failed", map[string]any{
			"id": "pi_bad", "object": "payment_intent", "currency": "usd",
			"last_payment_error": map[string]any{"message": "insufficient funds"},
		})
		headers := map[string]string{"Stripe-Signature": signStripePayload(payload, testWebhookSecret, time.Now())}

		event, err := gw.ParseWebhook(ctx, payload, headers)
		require.NoError(t, err)
		assert.Equal(t, paydomain.WebhookPaymentFailed, event.Kind)
		assert.Equal(t, "insufficient funds", event.FailureReason)
	})

	t.Run("charge refunded reports the cumulative total", func(t *testing.T) {
		payload := stripeEventPayload(t, "charge.refunded", map[string]any{
			"id": "ch_1", "object": "charge", "currency": "usd",
			"amount": 2000, "amount_refunded": 750, "payment_intent": "pi_ok",
		})
		headers := map[string]string{"Stripe-Signature": signStripePayload(payload, testWebhookSecret, time.Now())}

		event, err := gw.ParseWebhook(ctx, payload, headers)
		require.NoError(t, err)
		assert.Equal(t, paydomain.WebhookRefunded, event.Kind)
		assert.Equal(t, "pi_ok", event.ProviderRef)
		assert.True(t, decimal.RequireFromString("7.5").Equal(event.RefundedTotal))
	})

	t.Run("unhandled type is ignored", func(t *testing.T) {
		payload := stripeEventPayload(t, "customer.created", map[string]any{"id": "cus_1", "object": "customer"})
		headers := map[string]string{"Stripe-Signature": signStripePayload(payload, testWebhookSecret, time.Now())}

		event, err := gw.ParseWebhook(ctx, payload, headers)
		require.NoError(t, err)
		assert.Equal(t, paydomain.WebhookIgnored, event.Kind)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		payload := stripeEventPayload(t, "payment_intent.succeeded", map[string]any{"id": "pi_ok", "object": "payment_intent"})
		headers := map[string]string{"Stripe-Signature": signStripePayload(payload, "whsec_other", time.Now())}

		_, err := gw.ParseWebhook(ctx, payload, headers)
		assert.ErrorIs(t, err, paydomain.ErrInvalidSignature)
	})

	t.Run("stale timestamp is rejected", func(t *testing.T) {
		payload := stripeEventPayload(t, "payment_intent.succeeded", map[string]any{"id": "pi_ok", "object": "payment_intent"})
		headers := map[string]string{"Stripe-Signature": signStripePayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))}

		_, err := gw.ParseWebhook(ctx, payload, headers)
		assert.ErrorIs(t, err, paydomain.ErrInvalidSignature)
	})
}
