package payment

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedWebhook marks a provider event as handled
type ProcessedWebhook struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Provider    string    `gorm:"size:20;not null;uniqueIndex:idx_processed_webhooks_event"`
	EventID     string    `gorm:"size:255;not null;uniqueIndex:idx_processed_webhooks_event"`
	ProcessedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProcessedWebhook) TableName() string {
	return "processed_webhooks"
}

// NewProcessedWebhook creates a processed marker
func NewProcessedWebhook(provider, eventID string) *ProcessedWebhook {
	return &ProcessedWebhook{
		ID:          uuid.New(),
		Provider:    provider,
		EventID:     eventID,
		ProcessedAt: time.Now(),
	}
}
