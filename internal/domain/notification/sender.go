package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Sender errors
var (
	ErrChannelNotConfigured = errors.New("notification channel is not configured")
	ErrProviderRejected     = errors.New("notification provider rejected the message")
)

// Message is a rendered outbound message
type Message struct {
	TenantID uuid.UUID
	To       string
	Subject  string
	Text     string
	HTML     string
}

// Sender delivers messages over one channel and returns the provider reference
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, msg Message) (string, error)
}
