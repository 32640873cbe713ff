package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// Channel is a delivery channel
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelInApp    Channel = "IN_APP"
)

// ParseChannel parses a channel name case-insensitively
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelInApp:
		return c, nil
	}
	return "", shared.InvalidInput("Invalid notification channel: " + s)
}

// Direction distinguishes messages we sent from messages we received
type Direction string

const (
	DirectionOutbound Direction = "OUTBOUND"
	DirectionInbound  Direction = "INBOUND"
)

// Status is the delivery status of a notification
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
	StatusRead      Status = "READ"
	StatusReceived  Status = "RECEIVED"
)

// Notification is one message on any channel
type Notification struct {
	shared.TenantEntity
	Channel     Channel    `gorm:"size:20;not null"`
	Direction   Direction  `gorm:"size:10;not null"`
	Recipient   string     `gorm:"size:255;not null"`
	Subject     string     `gorm:"size:300"`
	Body        string     `gorm:"type:text;not null"`
	Status      Status     `gorm:"size:20;not null;index:idx_notifications_status"`
	ProviderRef string     `gorm:"size:255;index:idx_notifications_provider_ref"`
	Error       string     `gorm:"size:1000"`
	CampaignID  *uuid.UUID `gorm:"type:uuid;index:idx_notifications_campaign"`
	CustomerID  *uuid.UUID `gorm:"type:uuid"`
	UserID      *uuid.UUID `gorm:"type:uuid;index:idx_notifications_user"`
	SentAt      *time.Time `gorm:""`
	ReadAt      *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// NewOutbound creates a pending outbound notification
func NewOutbound(tenantID uuid.UUID, channel Channel, recipient, subject, body string) (*Notification, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, shared.InvalidInput("Recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, shared.InvalidInput("Message body is required")
	}
	if channel == ChannelEmail && strings.TrimSpace(subject) == "" {
		return nil, shared.InvalidInput("Email subject is required")
	}
	return &Notification{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Channel:      channel,
		Direction:    DirectionOutbound,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		Status:       StatusPending,
	}, nil
}

// NewInApp creates an in-app notification for a user. It is stored only.
func NewInApp(tenantID, userID uuid.UUID, subject, body string) (*Notification, error) {
	n, err := NewOutbound(tenantID, ChannelInApp, userID.String(), subject, body)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	n.UserID = &userID
	n.Status = StatusSent
	n.SentAt = &now
	return n, nil
}

// NewInbound records a message received from a customer
func NewInbound(tenantID uuid.UUID, channel Channel, from, body, providerRef string) *Notification {
	now := time.Now()
	return &Notification{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Channel:      channel,
		Direction:    DirectionInbound,
		Recipient:    from,
		Body:         body,
		Status:       StatusReceived,
		ProviderRef:  providerRef,
		SentAt:       &now,
	}
}

// MarkSent records the provider acceptance
func (n *Notification) MarkSent(providerRef string) {
	now := time.Now()
	n.Status = StatusSent
	n.ProviderRef = providerRef
	n.Error = ""
	n.SentAt = &now
	n.Touch()
}

// MarkFailed records a send failure
func (n *Notification) MarkFailed(err error) {
	n.Status = StatusFailed
	if err != nil {
		msg := err.Error()
		if len(msg) > 1000 {
			msg = msg[:1000]
		}
		n.Error = msg
	}
	n.Touch()
}

// MarkRead marks the notification as read
func (n *Notification) MarkRead(at time.Time) {
	if n.ReadAt != nil {
		return
	}
	n.ReadAt = &at
	if n.Direction == DirectionOutbound && n.Status != StatusFailed {
		n.Status = StatusRead
	}
	n.Touch()
}

// ApplyProviderStatus applies a delivery receipt (sent, delivered, read, failed).
// Receipts never move a notification backwards.
func (n *Notification) ApplyProviderStatus(status string, at time.Time, reason string) bool {
	rank := map[Status]int{StatusPending: 0, StatusSent: 1, StatusDelivered: 2, StatusRead: 3}
	var next Status
	switch strings.ToLower(status) {
	case "sent":
		next = StatusSent
	case "delivered":
		next = StatusDelivered
	case "read":
		next = StatusRead
	case "failed", "undelivered":
		if n.Status == StatusFailed {
			return false
		}
		n.Status = StatusFailed
		n.Error = reason
		n.Touch()
		return true
	default:
		return false
	}
	current, ok := rank[n.Status]
	if !ok || rank[next] <= current {
		return false
	}
	n.Status = next
	if next == StatusRead {
		n.ReadAt = &at
	}
	n.Touch()
	return true
}
