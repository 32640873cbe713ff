package notification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/integration"
	notifdomain "github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/cache"
	"github.com/smartstore/backend/internal/infrastructure/config"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
	"github.com/smartstore/backend/internal/infrastructure/persistence"
	"github.com/smartstore/backend/internal/infrastructure/persistence/persistencetest"
)

const tenantPhoneID = "106540352242922"

const whatsAppPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA_ID",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550783881", "phone_number_id": "106540352242922"},
        "contacts": [{"profile": {"name": "Sheena Nelson"}, "wa_id": "16505551234"}],
        "messages": [{"from": "16505551234", "id": "wamid.IN1", "timestamp": "1749416383", "type": "text", "text": {"body": "Is my order on the way?"}}],
        "statuses": [{"id": "wamid.OUT1", "status": "delivered", "timestamp": "1749416390", "recipient_id": "16505551234"}]
      }
    }]
  }]
}`

type whatsAppFixture struct {
	svc      *WhatsAppWebhookService
	repo     *persistence.GormNotificationRepository
	tenantID uuid.UUID
	customer *partner.Customer
	outbound *notifdomain.Notification
}

func newWhatsAppFixture(t *testing.T, tenantSecret string) *whatsAppFixture {
	t.Helper()
	db := persistencetest.NewDB(t)
	ctx := t.Context()
	tenantID := uuid.New()

	creds := integration.Credentials{
		integration.CredPhoneNumberID: tenantPhoneID,
		integration.CredAccessToken:   "token",
	}
	if tenantSecret != "" {
		creds[integration.CredAppSecret] = tenantSecret
	}
	in, err := integration.NewIntegration(tenantID, integration.PlatformWhatsApp, "Support line", creds, nil)
	require.NoError(t, err)
	integrations := persistence.NewGormIntegrationRepository(db)
	require.NoError(t, integrations.Save(ctx, in))

	customers := persistence.NewGormCustomerRepository(db)
	customer, err := partner.NewCustomer(tenantID, "", "+16505551234", "Sheena", "Nelson")
	require.NoError(t, err)
	require.NoError(t, customers.Save(ctx, customer))

	repo := persistence.NewGormNotificationRepository(db)
	outbound, err := notifdomain.NewOutbound(tenantID, notifdomain.ChannelWhatsApp, "16505551234", "", "Your order shipped")
	require.NoError(t, err)
	outbound.MarkSent("wamid.OUT1")
	require.NoError(t, repo.Save(ctx, outbound))

	seen := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { seen.Close() })

	cfg := config.WhatsAppConfig{AppSecret: "platform-secret", VerifyToken: "verify-me"}
	return &whatsAppFixture{
		svc:      NewWhatsAppWebhookService(cfg, integrations, customers, repo, seen, zap.NewNop()),
		repo:     repo,
		tenantID: tenantID,
		customer: customer,
		outbound: outbound,
	}
}

func TestWhatsAppWebhook_VerifyChallenge(t *testing.T) {
	f := newWhatsAppFixture(t, "")

	challenge, err := f.svc.VerifyChallenge("subscribe", "verify-me", "1158201444")
	require.NoError(t, err)
	assert.Equal(t, "1158201444", challenge)

	_, err = f.svc.VerifyChallenge("subscribe", "wrong", "1")
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = f.svc.VerifyChallenge("unsubscribe", "verify-me", "1")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestWhatsAppWebhook_StoresInboundAndAppliesReceipts(t *testing.T) {
	f := newWhatsAppFixture(t, "")
	ctx := t.Context()
	payload := []byte(whatsAppPayload)
	sig := messaging.SignHubPayload("platform-secret", payload)

	result, err := f.svc.Process(ctx, payload, sig)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Received)
	assert.Equal(t, 1, result.Updated)

	inbound, total, err := f.repo.FindAll(ctx, f.tenantID, shared.DefaultFilter().With("direction", "INBOUND"))
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	msg := inbound[0]
	assert.Equal(t, "Is my order on the way?", msg.Body)
	assert.Equal(t, "16505551234", msg.Recipient)
	assert.Equal(t, "wamid.IN1", msg.ProviderRef)
	assert.Equal(t, notifdomain.StatusReceived, msg.Status)
	require.NotNil(t, msg.CustomerID)
	assert.Equal(t, f.customer.ID, *msg.CustomerID)

	outbound, err := f.repo.FindByID(ctx, f.tenantID, f.outbound.ID)
	require.NoError(t, err)
	assert.Equal(t, notifdomain.StatusDelivered, outbound.Status)

	// redelivery changes nothing
	result, err = f.svc.Process(ctx, payload, sig)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Received)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.Skipped)
	_, total, err = f.repo.FindAll(ctx, f.tenantID, shared.DefaultFilter().With("direction", "INBOUND"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestWhatsAppWebhook_Signatures(t *testing.T) {
	payload := []byte(whatsAppPayload)

	t.Run("tenant secret wins over platform secret", func(t *testing.T) {
		f := newWhatsAppFixture(t, "tenant-secret")
		_, err := f.svc.Process(t.Context(), payload, messaging.SignHubPayload("platform-secret", payload))
		assert.ErrorIs(t, err, messaging.ErrInvalidHubSignature)

		result, err := f.svc.Process(t.Context(), payload, messaging.SignHubPayload("tenant-secret", payload))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Received)
	})

	t.Run("missing signature", func(t *testing.T) {
		f := newWhatsAppFixture(t, "")
		_, err := f.svc.Process(t.Context(), payload, "")
		assert.ErrorIs(t, err, messaging.ErrInvalidHubSignature)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newWhatsAppFixture(t, "")
		body := []byte("not json")
		_, err := f.svc.Process(t.Context(), body, "")
		assert.ErrorIs(t, err, messaging.ErrInvalidHubSignature)

		_, err = f.svc.Process(t.Context(), body, messaging.SignHubPayload("platform-secret", body))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
