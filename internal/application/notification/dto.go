package notification

import (
	"time"

	"github.com/google/uuid"

	notifdomain "github.com/smartstore/backend/internal/domain/notification"
)

// SendRequest sends one message. Subject and Body are templates rendered
// with Data; for EMAIL the body is also rendered as HTML.
type SendRequest struct {
	Channel    string         `json:"channel" binding:"required"`
	Recipient  string         `json:"recipient" binding:"max=255"`
	Subject    string         `json:"subject" binding:"max=300"`
	Body       string         `json:"body" binding:"required,max=10000"`
	Data       map[string]any `json:"data"`
	UserID     *uuid.UUID     `json:"user_id"`
	CustomerID *uuid.UUID     `json:"customer_id"`
}

// NotificationListFilter filters the notification list
type NotificationListFilter struct {
	Channel   string `form:"channel" binding:"omitempty,oneof=EMAIL SMS WHATSAPP IN_APP"`
	Direction string `form:"direction" binding:"omitempty,oneof=OUTBOUND INBOUND"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING SENT DELIVERED FAILED READ RECEIVED"`
	Search    string `form:"search" binding:"max=100"`
	Unread    bool   `form:"unread"`
	Mine      bool   `form:"mine"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// NotificationResponse is a notification in API responses
type NotificationResponse struct {
	ID          uuid.UUID  `json:"id"`
	Channel     string     `json:"channel"`
	Direction   string     `json:"direction"`
	Recipient   string     `json:"recipient"`
	Subject     string     `json:"subject,omitempty"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	ProviderRef string     `json:"provider_ref,omitempty"`
	Error       string     `json:"error,omitempty"`
	CampaignID  *uuid.UUID `json:"campaign_id,omitempty"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToNotificationResponse converts a notification
func ToNotificationResponse(n *notifdomain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		Channel:     string(n.Channel),
		Direction:   string(n.Direction),
		Recipient:   n.Recipient,
		Subject:     n.Subject,
		Body:        n.Body,
		Status:      string(n.Status),
		ProviderRef: n.ProviderRef,
		Error:       n.Error,
		CampaignID:  n.CampaignID,
		CustomerID:  n.CustomerID,
		UserID:      n.UserID,
		SentAt:      n.SentAt,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

// WhatsAppWebhookResult summarizes a processed WhatsApp delivery
type WhatsAppWebhookResult struct {
	Received int `json:"received"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}
