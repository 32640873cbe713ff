package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	notifapp "github.com/smartstore/backend/internal/application/notification"
	paymentapp "github.com/smartstore/backend/internal/application/payment"
	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/infrastructure/logger"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
	"github.com/smartstore/backend/internal/interfaces/http/dto"
)

// HubSignatureHeader carries the WhatsApp payload HMAC
const HubSignatureHeader = "X-Hub-Signature-256"

// WebhookHandler receives provider notifications. These endpoints are
// called by external services and authenticate by signature only.
type WebhookHandler struct {
	BaseHandler
	paymentWebhooks  *paymentapp.WebhookService
	whatsAppWebhooks *notifapp.WhatsAppWebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(paymentWebhooks *paymentapp.WebhookService, whatsAppWebhooks *notifapp.WhatsAppWebhookService) *WebhookHandler {
	return &WebhookHandler{
		paymentWebhooks:  paymentWebhooks,
		whatsAppWebhooks: whatsAppWebhooks,
	}
}

// Stripe godoc
//
//	@ID				handleStripeWebhook
//	@Summary		Handle Stripe webhook
//	@Description	Verifies the Stripe-Signature header and applies payment_intent and charge events
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string	true	"Stripe signature"
//	@Success		200					{object}	APIResponse[paymentapp.WebhookResult]
//	@Failure		401					{object}	ErrorResponse
//	@Router			/webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	h.handlePayment(c, paydomain.ProviderStripe)
}

// PayPal godoc
//
//	@ID				handlePayPalWebhook
//	@Summary		Handle PayPal webhook
//	@Description	Verifies the notification through PayPal and applies PAYMENT.CAPTURE events
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Paypal-Transmission-Id		header		string	true	"Transmission ID"
//	@Param			Paypal-Transmission-Sig		header		string	true	"Transmission signature"
//	@Param			Paypal-Transmission-Time	header		string	true	"Transmission time"
//	@Param			Paypal-Cert-Url				header		string	true	"Certificate URL"
//	@Param			Paypal-Auth-Algo			header		string	true	"Signature algorithm"
//	@Success		200							{object}	APIResponse[paymentapp.WebhookResult]
//	@Failure		401							{object}	ErrorResponse
//	@Router			/webhooks/paypal [post]
func (h *WebhookHandler) PayPal(c *gin.Context) {
	h.handlePayment(c, paydomain.ProviderPayPal)
}

func (h *WebhookHandler) handlePayment(c *gin.Context, provider paydomain.Provider) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	result, err := h.paymentWebhooks.Process(c.Request.Context(), provider, payload, flattenHeaders(c.Request.Header))
	if err != nil {
		if errors.Is(err, paydomain.ErrInvalidSignature) {
			h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Invalid webhook signature")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// VerifyWhatsApp godoc
//
//	@ID				verifyWhatsAppWebhook
//	@Summary		Verify WhatsApp webhook
//	@Description	Answers the hub subscription handshake by echoing hub.challenge
//	@Tags			webhooks
//	@Produce		plain
//	@Param			hub.mode			query		string	true	"Must be subscribe"
//	@Param			hub.verify_token	query		string	true	"Configured verify token"
//	@Param			hub.challenge		query		string	true	"Challenge to echo"
//	@Success		200					{string}	string	"challenge"
//	@Failure		403					{object}	ErrorResponse
//	@Router			/webhooks/whatsapp [get]
func (h *WebhookHandler) VerifyWhatsApp(c *gin.Context) {
	challenge, err := h.whatsAppWebhooks.VerifyChallenge(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.String(http.StatusOK, challenge)
}

// WhatsApp godoc
//
//	@ID				handleWhatsAppWebhook
//	@Summary		Handle WhatsApp webhook
//	@Description	Stores inbound messages and applies delivery statuses to sent messages
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Hub-Signature-256	header		string	true	"sha256=<hmac>"
//	@Success		200					{object}	APIResponse[notifapp.WhatsAppWebhookResult]
//	@Failure		401					{object}	ErrorResponse
//	@Router			/webhooks/whatsapp [post]
func (h *WebhookHandler) WhatsApp(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	result, err := h.whatsAppWebhooks.Process(c.Request.Context(), payload, c.GetHeader(HubSignatureHeader))
	if err != nil {
		if errors.Is(err, messaging.ErrInvalidHubSignature) {
			h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Invalid webhook signature")
			return
		}
		// acknowledged so Meta stops redelivering
		logger.GetGinLogger(c).Error("WhatsApp webhook not applied", zap.Error(err))
		h.Success(c, &notifapp.WhatsAppWebhookResult{})
		return
	}

	h.Success(c, result)
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for k, v := range header {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
