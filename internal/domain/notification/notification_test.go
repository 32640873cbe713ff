package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/shared"
)

func TestNewOutbound_Validation(t *testing.T) {
	_, err := NewOutbound(uuid.New(), ChannelSMS, " ", "", "hi")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewOutbound(uuid.New(), ChannelSMS, "+15550001", "", " ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewOutbound(uuid.New(), ChannelEmail, "a@b.c", "", "hi")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	n, err := NewOutbound(uuid.New(), ChannelEmail, "a@b.c", "Hello", "hi")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, DirectionOutbound, n.Direction)
}

func TestNotification_SendOutcome(t *testing.T) {
	n, err := NewOutbound(uuid.New(), ChannelSMS, "+15550001", "", "hi")
	require.NoError(t, err)

	n.MarkFailed(errors.New("carrier rejected"))
	assert.Equal(t, StatusFailed, n.Status)
	assert.Equal(t, "carrier rejected", n.Error)

	n.MarkSent("SM123")
	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, "SM123", n.ProviderRef)
	assert.Empty(t, n.Error)
	assert.NotNil(t, n.SentAt)
}

func TestNotification_ApplyProviderStatus(t *testing.T) {
	n, err := NewOutbound(uuid.New(), ChannelWhatsApp, "15550001", "", "hi")
	require.NoError(t, err)
	n.MarkSent("wamid.1")
	at := time.Now()

	assert.True(t, n.ApplyProviderStatus("delivered", at, ""))
	assert.Equal(t, StatusDelivered, n.Status)

	assert.False(t, n.ApplyProviderStatus("sent", at, ""))
	assert.Equal(t, StatusDelivered, n.Status)

	assert.True(t, n.ApplyProviderStatus("read", at, ""))
	assert.Equal(t, StatusRead, n.Status)
	assert.NotNil(t, n.ReadAt)

	assert.False(t, n.ApplyProviderStatus("bogus", at, ""))
}

func TestNotification_ProviderFailure(t *testing.T) {
	n, err := NewOutbound(uuid.New(), ChannelWhatsApp, "15550001", "", "hi")
	require.NoError(t, err)
	n.MarkSent("wamid.2")

	assert.True(t, n.ApplyProviderStatus("failed", time.Now(), "number not on WhatsApp"))
	assert.Equal(t, StatusFailed, n.Status)
	assert.Equal(t, "number not on WhatsApp", n.Error)
	assert.False(t, n.ApplyProviderStatus("failed", time.Now(), "again"))
}

func TestNewInApp_And_MarkRead(t *testing.T) {
	userID := uuid.New()
	n, err := NewInApp(uuid.New(), userID, "Low stock", "MUG-01 is low")
	require.NoError(t, err)
	assert.Equal(t, ChannelInApp, n.Channel)
	assert.Equal(t, userID, *n.UserID)
	assert.Equal(t, StatusSent, n.Status)

	first := time.Now()
	n.MarkRead(first)
	n.MarkRead(first.Add(time.Hour))
	assert.Equal(t, first, *n.ReadAt)
	assert.Equal(t, StatusRead, n.Status)
}

func TestNewInbound(t *testing.T) {
	n := NewInbound(uuid.New(), ChannelWhatsApp, "15550001", "Where is my order?", "wamid.in")
	assert.Equal(t, DirectionInbound, n.Direction)
	assert.Equal(t, StatusReceived, n.Status)
}

func TestParseChannel(t *testing.T) {
	c, err := ParseChannel("in_app")
	require.NoError(t, err)
	assert.Equal(t, ChannelInApp, c)

	_, err = ParseChannel("pigeon")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
