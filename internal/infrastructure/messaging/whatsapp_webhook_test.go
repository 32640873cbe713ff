package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inboundPayload = `{
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
        "statuses": [{"id": "wamid.OUT1", "status": "failed", "timestamp": "1749416390", "recipient_id": "16505550000",
          "errors": [{"code": 131026, "title": "Message undeliverable"}]}]
      }
    }]
  }]
}`

func TestVerifyHubSignature(t *testing.T) {
	payload := []byte(inboundPayload)
	header := SignHubPayload("app-secret", payload)

	assert.NoError(t, VerifyHubSignature("app-secret", payload, header))
	assert.ErrorIs(t, VerifyHubSignature("other-secret", payload, header), ErrInvalidHubSignature)
	assert.ErrorIs(t, VerifyHubSignature("app-secret", payload, "sha1=abc"), ErrInvalidHubSignature)
	assert.ErrorIs(t, VerifyHubSignature("app-secret", payload, "sha256=zz"), ErrInvalidHubSignature)
	assert.ErrorIs(t, VerifyHubSignature("", payload, header), ErrInvalidHubSignature)
}

func TestParseWhatsAppWebhook(t *testing.T) {
	n, err := ParseWhatsAppWebhook([]byte(inboundPayload))
	require.NoError(t, err)

	require.Len(t, n.Messages, 1)
	msg := n.Messages[0]
	assert.Equal(t, "106540352242922", msg.PhoneNumberID)
	assert.Equal(t, "16505551234", msg.From)
	assert.Equal(t, "Sheena Nelson", msg.ProfileName)
	assert.Equal(t, "Is my order on the way?", msg.Text)
	assert.Equal(t, int64(1749416383), msg.Timestamp.Unix())

	require.Len(t, n.Statuses, 1)
	assert.Equal(t, "wamid.OUT1", n.Statuses[0].MessageID)
	assert.Equal(t, "failed", n.Statuses[0].Status)
	assert.Equal(t, "Message undeliverable", n.Statuses[0].Error)

	_, err = ParseWhatsAppWebhook([]byte("not json"))
	assert.Error(t, err)
}
