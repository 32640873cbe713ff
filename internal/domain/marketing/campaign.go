package marketing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/shared"
)

// CampaignChannel is the channel a campaign is delivered through
type CampaignChannel string

const (
	CampaignChannelEmail    CampaignChannel = "EMAIL"
	CampaignChannelSMS      CampaignChannel = "SMS"
	CampaignChannelWhatsApp CampaignChannel = "WHATSAPP"
)

// IsValid checks if the channel is known
func (c CampaignChannel) IsValid() bool {
	switch c {
	case CampaignChannelEmail, CampaignChannelSMS, CampaignChannelWhatsApp:
		return true
	}
	return false
}

// CampaignStatus is the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusScheduled CampaignStatus = "SCHEDULED"
	CampaignStatusSending   CampaignStatus = "SENDING"
	CampaignStatusSent      CampaignStatus = "SENT"
	CampaignStatusCancelled CampaignStatus = "CANCELLED"
)

// Segment selects the customers a campaign targets.
// An empty tier list targets every tier.
type Segment struct {
	Tiers       []loyalty.Tier `json:"tiers,omitempty"`
	OptedInOnly bool           `json:"opted_in_only"`
}

// Validate checks the segment tiers
func (s Segment) Validate() error {
	for _, t := range s.Tiers {
		if !t.IsValid() {
			return shared.InvalidInput("Invalid loyalty tier: " + string(t))
		}
	}
	return nil
}

// Campaign is a bulk message to a customer segment
type Campaign struct {
	shared.TenantAggregateRoot
	Name        string          `gorm:"size:200;not null"`
	Channel     CampaignChannel `gorm:"size:20;not null"`
	Status      CampaignStatus  `gorm:"size:20;not null;index:idx_campaigns_status"`
	Subject     string          `gorm:"size:300"`
	Template    string          `gorm:"type:text;not null"`
	Segment     Segment         `gorm:"serializer:json;type:jsonb"`
	ScheduledAt *time.Time      `gorm:"index:idx_campaigns_scheduled"`
	StartedAt   *time.Time      `gorm:""`
	CompletedAt *time.Time      `gorm:""`
	SentCount   int             `gorm:"not null;default:0"`
	FailedCount int             `gorm:"not null;default:0"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (Campaign) TableName() string {
	return "campaigns"
}

// NewCampaign creates a draft campaign
func NewCampaign(tenantID uuid.UUID, name string, channel CampaignChannel, subject, template string, segment Segment) (*Campaign, error) {
	c := &Campaign{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              CampaignStatusDraft,
	}
	if err := c.setContent(name, channel, subject, template, segment); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Campaign) setContent(name string, channel CampaignChannel, subject, template string, segment Segment) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.InvalidInput("Campaign name must be 1-200 characters")
	}
	if !channel.IsValid() {
		return shared.InvalidInput("Invalid campaign channel: " + string(channel))
	}
	if strings.TrimSpace(template) == "" {
		return shared.InvalidInput("Campaign template is required")
	}
	if channel == CampaignChannelEmail && strings.TrimSpace(subject) == "" {
		return shared.InvalidInput("Email campaigns require a subject")
	}
	if err := segment.Validate(); err != nil {
		return err
	}
	c.Name = name
	c.Channel = channel
	c.Subject = strings.TrimSpace(subject)
	c.Template = template
	c.Segment = segment
	return nil
}

// Update replaces the content of a draft campaign
func (c *Campaign) Update(name string, channel CampaignChannel, subject, template string, segment Segment) error {
	if c.Status != CampaignStatusDraft {
		return shared.InvalidState("Only draft campaigns can be edited")
	}
	if err := c.setContent(name, channel, subject, template, segment); err != nil {
		return err
	}
	c.Touch()
	return nil
}

// Schedule sets the send time of a draft or scheduled campaign
func (c *Campaign) Schedule(at, now time.Time) error {
	if c.Status != CampaignStatusDraft && c.Status != CampaignStatusScheduled {
		return shared.InvalidState("Only draft campaigns can be scheduled")
	}
	if !at.After(now) {
		return shared.InvalidInput("Scheduled time must be in the future")
	}
	c.Status = CampaignStatusScheduled
	c.ScheduledAt = &at
	c.Touch()
	return nil
}

// Cancel stops a campaign that has not started sending
func (c *Campaign) Cancel() error {
	if c.Status != CampaignStatusDraft && c.Status != CampaignStatusScheduled {
		return shared.InvalidState("Only draft or scheduled campaigns can be cancelled")
	}
	c.Status = CampaignStatusCancelled
	c.Touch()
	return nil
}

// CanStartSending reports whether the campaign may move to SENDING
func (c *Campaign) CanStartSending() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusScheduled
}

// StartSending moves the campaign to SENDING
func (c *Campaign) StartSending(now time.Time) error {
	if !c.CanStartSending() {
		return shared.InvalidState("Campaign cannot be sent in status " + string(c.Status))
	}
	c.Status = CampaignStatusSending
	c.StartedAt = &now
	c.Touch()
	return nil
}

// Complete records the send outcome
func (c *Campaign) Complete(sent, failed int, now time.Time) error {
	if c.Status != CampaignStatusSending {
		return shared.InvalidState("Campaign is not sending")
	}
	c.Status = CampaignStatusSent
	c.SentCount = sent
	c.FailedCount = failed
	c.CompletedAt = &now
	c.Touch()
	return nil
}

// IsDue reports whether a scheduled campaign should be sent
func (c *Campaign) IsDue(now time.Time) bool {
	return c.Status == CampaignStatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now)
}
