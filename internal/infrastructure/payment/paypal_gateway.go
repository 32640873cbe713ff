package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

const (
	paypalTokenPath           = "/v1/oauth2/token"
	paypalOrdersPath          = "/v2/checkout/orders"
	paypalOrderPath           = "/v2/checkout/orders/%s"
	paypalCapturePath         = "/v2/checkout/orders/%s/capture"
	paypalRefundPath          = "/v2/payments/captures/%s/refund"
	paypalVerifySignaturePath = "/v1/notifications/verify-webhook-signature"

	// refresh the access token this long before PayPal expires it
	paypalTokenLeeway = time.Minute
)

// PayPal webhook event types handled by ParseWebhook
const (
	paypalEventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	paypalEventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	paypalEventCaptureRefunded  = "PAYMENT.CAPTURE.REFUNDED"
)

// PayPalGateway implements payment.Gateway and payment.WebhookVerifier over the Orders v2 REST API
type PayPalGateway struct {
	config     config.PayPalConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	now         func() time.Time
}

// NewPayPalGateway creates a PayPal gateway from configuration
func NewPayPalGateway(cfg config.PayPalConfig, logger *zap.Logger) (*PayPalGateway, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("paypal: %w", paydomain.ErrProviderUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-m.sandbox.paypal.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PayPalGateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Provider returns PAYPAL
func (g *PayPalGateway) Provider() paydomain.Provider {
	return paydomain.ProviderPayPal
}

// CreateCharge creates a CAPTURE-intent order; the buyer approves it at ApprovalURL
func (g *PayPalGateway) CreateCharge(ctx context.Context, req paydomain.ChargeRequest) (*paydomain.ChargeResult, error) {
	body := paypalCreateOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnitRequest{{
			ReferenceID: req.OrderID.String(),
			CustomID:    req.PaymentID.String(),
			InvoiceID:   req.OrderNumber,
			Description: req.Description,
			Amount: paypalAmount{
				CurrencyCode: strings.ToUpper(req.Currency),
				Value:        paydomain.FormatAmount(req.Amount, req.Currency),
			},
		}},
	}
	if req.ReturnURL != "" || req.CancelURL != "" {
		body.ApplicationContext = &paypalApplicationContext{
			ReturnURL:          req.ReturnURL,
			CancelURL:          req.CancelURL,
			UserAction:         "PAY_NOW",
			ShippingPreference: "NO_SHIPPING",
		}
	}

	var order paypalOrder
	if err := g.call(ctx, http.MethodPost, paypalOrdersPath, body, "payment-"+req.PaymentID.String(), &order); err != nil {
		g.logger.Error("Failed to create PayPal order",
			zap.String("order_id", req.OrderID.String()),
			zap.Error(err))
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: paypal order without id", paydomain.ErrProviderInvalidResponse)
	}

	g.logger.Info("Created PayPal order",
		zap.String("order_id", req.OrderID.String()),
		zap.String("paypal_order", order.ID),
		zap.String("status", order.Status))

	return &paydomain.ChargeResult{
		ProviderRef: order.ID,
		Status:      mapPayPalOrderStatus(order.Status),
		ApprovalURL: order.link("approve", "payer-action"),
	}, nil
}

// Capture captures an approved order
func (g *PayPalGateway) Capture(ctx context.Context, providerRef string) (*paydomain.ChargeResult, error) {
	var order paypalOrder
	path := fmt.Sprintf(paypalCapturePath, url.PathEscape(providerRef))
	if err := g.call(ctx, http.MethodPost, path, struct{}{}, "capture-"+providerRef, &order); err != nil {
		g.logger.Error("Failed to capture PayPal order",
			zap.String("paypal_order", providerRef),
			zap.Error(err))
		return nil, err
	}

	result := &paydomain.ChargeResult{
		ProviderRef: providerRef,
		Status:      mapPayPalOrderStatus(order.Status),
	}
	if c := order.firstCapture(); c != nil {
		result.CaptureRef = c.ID
		if c.Status == "DECLINED" || c.Status == "FAILED" {
			result.Status = paydomain.StatusFailed
			result.FailureReason = "capture " + strings.ToLower(c.Status)
		}
	}
	return result, nil
}

// Refund refunds the order's capture. The capture id is looked up from the order.
func (g *PayPalGateway) Refund(ctx context.Context, req paydomain.RefundRequest) (*paydomain.RefundResult, error) {
	providerRef, amount, currency := req.ProviderRef, req.Amount, req.Currency
	var order paypalOrder
	if err := g.call(ctx, http.MethodGet, fmt.Sprintf(paypalOrderPath, url.PathEscape(providerRef)), nil, "", &order); err != nil {
		return nil, err
	}
	capture := order.firstCapture()
	if capture == nil {
		return nil, fmt.Errorf("%w: paypal order %s has no capture", paydomain.ErrProviderRequestFailed, providerRef)
	}

	body := paypalRefundRequest{Amount: paypalAmount{
		CurrencyCode: strings.ToUpper(currency),
		Value:        paydomain.FormatAmount(amount, currency),
	}}
	var refund paypalRefund
	path := fmt.Sprintf(paypalRefundPath, url.PathEscape(capture.ID))
	if err := g.call(ctx, http.MethodPost, path, body, req.IdempotencyKey, &refund); err != nil {
		g.logger.Error("Failed to refund PayPal capture",
			zap.String("capture_id", capture.ID),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return nil, err
	}

	g.logger.Info("Created PayPal refund",
		zap.String("capture_id", capture.ID),
		zap.String("refund_id", refund.ID),
		zap.String("status", refund.Status))

	result := &paydomain.RefundResult{RefundRef: refund.ID, Status: refund.Status}
	if total := refund.SellerPayableBreakdown.TotalRefundedAmount; total != nil {
		if value, err := decimal.NewFromString(total.Value); err == nil {
			result.RefundedTotal = value
		}
	}
	return result, nil
}

// ParseWebhook verifies the notification through PayPal's verify-webhook-signature API
func (g *PayPalGateway) ParseWebhook(ctx context.Context, payload []byte, headers map[string]string) (*paydomain.WebhookEvent, error) {
	if g.config.WebhookID == "" {
		return nil, fmt.Errorf("paypal: webhook id not configured: %w", paydomain.ErrProviderUnavailable)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload is not JSON", paydomain.ErrInvalidSignature)
	}

	verifyReq := paypalVerifySignatureRequest{
		AuthAlgo:         headerValue(headers, "Paypal-Auth-Algo"),
		CertURL:          headerValue(headers, "Paypal-Cert-Url"),
		TransmissionID:   headerValue(headers, "Paypal-Transmission-Id"),
		TransmissionSig:  headerValue(headers, "Paypal-Transmission-Sig"),
		TransmissionTime: headerValue(headers, "Paypal-Transmission-Time"),
		WebhookID:        g.config.WebhookID,
		WebhookEvent:     json.RawMessage(payload),
	}
	if verifyReq.TransmissionID == "" || verifyReq.TransmissionSig == "" {
		return nil, fmt.Errorf("%w: missing transmission headers", paydomain.ErrInvalidSignature)
	}

	var verifyResp paypalVerifySignatureResponse
	if err := g.call(ctx, http.MethodPost, paypalVerifySignaturePath, verifyReq, "", &verifyResp); err != nil {
		return nil, err
	}
	if verifyResp.VerificationStatus != "SUCCESS" {
		g.logger.Warn("PayPal webhook signature rejected",
			zap.String("transmission_id", verifyReq.TransmissionID),
			zap.String("verification_status", verifyResp.VerificationStatus))
		return nil, paydomain.ErrInvalidSignature
	}

	var event paypalWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", paydomain.ErrProviderInvalidResponse, err)
	}
	return parsePayPalEvent(event)
}

func parsePayPalEvent(event paypalWebhookEvent) (*paydomain.WebhookEvent, error) {
	result := &paydomain.WebhookEvent{
		Provider: paydomain.ProviderPayPal,
		EventID:  event.ID,
		RawType:  event.EventType,
		Kind:     paydomain.WebhookIgnored,
	}

	switch event.EventType {
	case paypalEventCaptureCompleted, paypalEventCaptureDenied, paypalEventCaptureRefunded:
	default:
		return result, nil
	}

	var res paypalWebhookResource
	if err := json.Unmarshal(event.Resource, &res); err != nil {
		return nil, fmt.Errorf("%w: resource: %v", paydomain.ErrProviderInvalidResponse, err)
	}
	result.ProviderRef = res.SupplementaryData.RelatedIDs.OrderID
	result.Currency = res.Amount.CurrencyCode
	if result.ProviderRef == "" {
		return result, nil
	}

	switch event.EventType {
	case paypalEventCaptureCompleted:
		result.Kind = paydomain.WebhookPaymentSucceeded
	case paypalEventCaptureDenied:
		result.Kind = paydomain.WebhookPaymentFailed
		result.FailureReason = "capture denied"
		if res.StatusDetails.Reason != "" {
			result.FailureReason = res.StatusDetails.Reason
		}
	case paypalEventCaptureRefunded:
		refunded := res.Amount
		if total := res.SellerPayableBreakdown.TotalRefundedAmount; total != nil {
			refunded = *total
		}
		value, err := decimal.NewFromString(refunded.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: refund amount %q", paydomain.ErrProviderInvalidResponse, refunded.Value)
		}
		result.Kind = paydomain.WebhookRefunded
		result.RefundedTotal = value
		result.Currency = refunded.CurrencyCode
	}
	return result, nil
}

// token returns a cached OAuth access token, fetching a new one when it is about to expire
func (g *PayPalGateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && g.now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+paypalTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: failed to create token request: %w", err)
	}
	req.SetBasicAuth(g.config.ClientID, g.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var tok paypalTokenResponse
	if _, err := g.do(req, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: paypal token response without access_token", paydomain.ErrProviderInvalidResponse)
	}

	g.accessToken = tok.AccessToken
	g.tokenExpiry = g.now().Add(time.Duration(tok.ExpiresIn)*time.Second - paypalTokenLeeway)
	return g.accessToken, nil
}

// call performs an authenticated JSON request
func (g *PayPalGateway) call(ctx context.Context, method, path string, body any, requestID string, out any) error {
	token, err := g.token(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("paypal: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("paypal: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	status, err := g.do(req, out)
	if status == http.StatusUnauthorized {
		g.mu.Lock()
		g.accessToken = ""
		g.mu.Unlock()
	}
	return err
}

// do sends the request and decodes a successful JSON body into out
func (g *PayPalGateway) do(req *http.Request, out any) (int, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: paypal: %v", paydomain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("paypal: failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return resp.StatusCode, fmt.Errorf("%w: paypal HTTP %d", paydomain.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errResp paypalErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && (errResp.Name != "" || errResp.Error != "") {
			name := errResp.Name
			if name == "" {
				name = errResp.Error
			}
			detail := errResp.Message
			if len(errResp.Details) > 0 {
				detail = errResp.Details[0].Issue
			}
			return resp.StatusCode, fmt.Errorf("%w: paypal %s - %s", paydomain.ErrProviderRequestFailed, name, detail)
		}
		return resp.StatusCode, fmt.Errorf("%w: paypal HTTP %d", paydomain.ErrProviderRequestFailed, resp.StatusCode)
	}

	if out == nil || len(respBody) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: paypal: %v", paydomain.ErrProviderInvalidResponse, err)
	}
	return resp.StatusCode, nil
}

func mapPayPalOrderStatus(status string) paydomain.Status {
	switch status {
	case "COMPLETED":
		return paydomain.StatusSucceeded
	case "VOIDED":
		return paydomain.StatusFailed
	default:
		return paydomain.StatusPending
	}
}

var (
	_ paydomain.Gateway         = (*PayPalGateway)(nil)
	_ paydomain.WebhookVerifier = (*PayPalGateway)(nil)
)
