package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

// fakePayPal is a minimal PayPal REST API
type fakePayPal struct {
	tokenCalls   atomic.Int32
	verifyStatus string
	lastRefund   paypalRefundRequest
	refundReqID  string
}

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.tokenCalls.Add(1)
		writeJSON(w, http.StatusOK, paypalTokenResponse{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 3600})
	})
	mux.HandleFunc("POST /v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("PayPal-Request-Id"))
		var req paypalCreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.PurchaseUnits[0].Amount.Value != "25.50" {
			writeJSON(w, http.StatusUnprocessableEntity, paypalErrorResponse{
				Name:    "UNPROCESSABLE_ENTITY",
				Details: []struct {
					Issue       string `json:"issue"`
					Description string `json:"description"`
				}{{Issue: "AMOUNT_MISMATCH"}},
			})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":     "5O190127TN364715T",
			"status": "PAYER_ACTION_REQUIRED",
			"links": []paypalLink{
				{Href: "https://api.paypal.com/v2/checkout/orders/5O190127TN364715T", Rel: "self"},
				{Href: "https://www.paypal.com/checkoutnow?token=5O190127TN364715T", Rel: "payer-action"},
			},
		})
	})
	captured := map[string]any{
		"id":     "5O190127TN364715T",
		"status": "COMPLETED",
		"purchase_units": []map[string]any{{
			"reference_id": "default",
			"payments": map[string]any{"captures": []map[string]any{{"id": "3C679366HH908993F", "status": "COMPLETED"}}},
		}},
	}
	mux.HandleFunc("POST /v2/checkout/orders/{id}/capture", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, captured)
	})
	mux.HandleFunc("GET /v2/checkout/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, captured)
	})
	mux.HandleFunc("POST /v2/payments/captures/{id}/refund", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3C679366HH908993F", r.PathValue("id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastRefund))
		f.refundReqID = r.Header.Get("PayPal-Request-Id")
		refund := paypalRefund{ID: "1JU08902781691411", Status: "COMPLETED"}
		refund.SellerPayableBreakdown.TotalRefundedAmount = &paypalAmount{CurrencyCode: "USD", Value: "10.00"}
		writeJSON(w, http.StatusCreated, refund)
	})
	mux.HandleFunc("POST /v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var req paypalVerifySignatureRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "WH-1", req.WebhookID)
		writeJSON(w, http.StatusOK, paypalVerifySignatureResponse{VerificationStatus: f.verifyStatus})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestPayPalGateway(t *testing.T) (*PayPalGateway, *fakePayPal) {
	t.Helper()
	fake := &fakePayPal{verifyStatus: "SUCCESS"}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	gw, err := NewPayPalGateway(config.PayPalConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		WebhookID:    "WH-1",
		BaseURL:      server.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return gw, fake
}

func paypalHeaders() map[string]string {
	return map[string]string{
		"paypal-auth-algo":         "SHA256withRSA",
		"paypal-cert-url":          "https://api.paypal.com/v1/notifications/certs/CERT-1",
		"paypal-transmission-id":   "69cd13f0-d67a-11e5-baa3-778b53f4ae55",
		"paypal-transmission-sig":  "sig",
		"paypal-transmission-time": "2024-01-01T00:00:00Z",
	}
}

func TestPayPalGateway_CreateCharge(t *testing.T) {
	gw, fake := newTestPayPalGateway(t)
	ctx := context.Background()

	result, err := gw.CreateCharge(ctx, paydomain.ChargeRequest{
		PaymentID: uuid.New(),
		OrderID:   uuid.New(),
		Amount:    decimal.RequireFromString("25.5"),
		Currency:  "usd",
		ReturnURL: "https://shop.example.com/return",
	})
	require.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", result.ProviderRef)
	assert.Equal(t, paydomain.StatusPending, result.Status)
	assert.Equal(t, "https://www.paypal.com/checkoutnow?token=5O190127TN364715T", result.ApprovalURL)

	// the token is cached between calls
	_, err = gw.CreateCharge(ctx, paydomain.ChargeRequest{
		PaymentID: uuid.New(), Amount: decimal.RequireFromString("25.50"), Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
}

func TestPayPalGateway_CreateCharge_Rejected(t *testing.T) {
	gw, _ := newTestPayPalGateway(t)

	_, err := gw.CreateCharge(context.Background(), paydomain.ChargeRequest{
		PaymentID: uuid.New(), Amount: decimal.NewFromInt(1), Currency: "USD",
	})
	assert.ErrorIs(t, err, paydomain.ErrProviderRequestFailed)
	assert.Contains(t, err.Error(), "AMOUNT_MISMATCH")
}

func TestPayPalGateway_CaptureAndRefund(t *testing.T) {
	gw, fake := newTestPayPalGateway(t)
	ctx := context.Background()

	captured, err := gw.Capture(ctx, "5O190127TN364715T")
	require.NoError(t, err)
	assert.Equal(t, paydomain.StatusSucceeded, captured.Status)
	assert.Equal(t, "3C679366HH908993F", captured.CaptureRef)

	refund, err := gw.Refund(ctx, paydomain.RefundRequest{
		ProviderRef:    "5O190127TN364715T",
		Amount:         decimal.RequireFromString("10"),
		Currency:       "USD",
		IdempotencyKey: "return-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "1JU08902781691411", refund.RefundRef)
	assert.Equal(t, "return-7", fake.refundReqID)
	assert.True(t, decimal.NewFromInt(10).Equal(refund.RefundedTotal))
	assert.Equal(t, "10.00", fake.lastRefund.Amount.Value)
	assert.Equal(t, "USD", fake.lastRefund.Amount.CurrencyCode)
}

func TestPayPalGateway_ParseWebhook(t *testing.T) {
	ctx := context.Background()
	completed := []byte(`{
		"id": "WH-58D329510W468432D-8HN650336L201105X",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource_type": "capture",
		"resource": {
			"id": "3C679366HH908993F",
			"status": "COMPLETED",
			"amount": {"currency_code": "USD", "value": "25.50"},
			"supplementary_data": {"related_ids": {"order_id": "5O190127TN364715T"}}
		}
	}`)

	t.Run("verified capture", func(t *testing.T) {
		gw, _ := newTestPayPalGateway(t)
		event, err := gw.ParseWebhook(ctx, completed, paypalHeaders())
		require.NoError(t, err)
		assert.Equal(t, paydomain.WebhookPaymentSucceeded, event.Kind)
		assert.Equal(t, "5O190127TN364715T", event.ProviderRef)
		assert.Equal(t, "WH-58D329510W468432D-8HN650336L201105X", event.EventID)
	})

	t.Run("refund uses the total refunded", func(t *testing.T) {
		gw, _ := newTestPayPalGateway(t)
		refunded := []byte(`{
			"id": "WH-2",
			"event_type": "PAYMENT.CAPTURE.REFUNDED",
			"resource": {
				"id": "1JU08902781691411",
				"amount": {"currency_code": "USD", "value": "5.00"},
				"seller_payable_breakdown": {"total_refunded_amount": {"currency_code": "USD", "value": "15.00"}},
				"supplementary_data": {"related_ids": {"order_id": "5O190127TN364715T"}}
			}
		}`)
		event, err := gw.ParseWebhook(ctx, refunded, paypalHeaders())
		require.NoError(t, err)
		assert.Equal(t, paydomain.WebhookRefunded, event.Kind)
		assert.True(t, decimal.NewFromInt(15).Equal(event.RefundedTotal))
	})

	t.Run("failed verification", func(t *testing.T) {
		gw, fake := newTestPayPalGateway(t)
		fake.verifyStatus = "FAILURE"
		_, err := gw.ParseWebhook(ctx, completed, paypalHeaders())
		assert.ErrorIs(t, err, paydomain.ErrInvalidSignature)
	})

	t.Run("missing headers", func(t *testing.T) {
		gw, _ := newTestPayPalGateway(t)
		_, err := gw.ParseWebhook(ctx, completed, map[string]string{})
		assert.ErrorIs(t, err, paydomain.ErrInvalidSignature)
	})
}

func TestManualGateway(t *testing.T) {
	gw := NewManualGateway()
	ctx := context.Background()
	id := uuid.New()

	charge, err := gw.CreateCharge(ctx, paydomain.ChargeRequest{PaymentID: id})
	require.NoError(t, err)
	assert.Equal(t, "manual_"+id.String(), charge.ProviderRef)
	assert.Equal(t, paydomain.StatusPending, charge.Status)

	captured, err := gw.Capture(ctx, charge.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, paydomain.StatusSucceeded, captured.Status)
}
