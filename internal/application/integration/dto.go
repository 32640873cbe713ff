package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/integration"
)

// CreateIntegrationRequest connects a platform
type CreateIntegrationRequest struct {
	Platform    string            `json:"platform" binding:"required,oneof=WOOCOMMERCE WHATSAPP FACEBOOK INSTAGRAM"`
	Name        string            `json:"name" binding:"required,min=1,max=100"`
	Credentials map[string]string `json:"credentials" binding:"required"`
	Settings    map[string]string `json:"settings"`
}

// UpdateIntegrationRequest changes an integration. Credentials are merged
// into the stored ones; settings replace them.
type UpdateIntegrationRequest struct {
	Name        string            `json:"name" binding:"max=100"`
	Credentials map[string]string `json:"credentials"`
	Settings    map[string]string `json:"settings"`
	Active      *bool             `json:"active"`
}

// IntegrationListFilter filters the integration list
type IntegrationListFilter struct {
	Search   string `form:"search" binding:"max=100"`
	Platform string `form:"platform" binding:"omitempty,oneof=WOOCOMMERCE WHATSAPP FACEBOOK INSTAGRAM"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ERROR"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SyncRequest starts a sync run
type SyncRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// IntegrationResponse is an integration in API responses. Secrets are masked.
type IntegrationResponse struct {
	ID           uuid.UUID               `json:"id"`
	Platform     string                  `json:"platform"`
	Name         string                  `json:"name"`
	Status       string                  `json:"status"`
	Credentials  map[string]string       `json:"credentials"`
	Settings     map[string]string       `json:"settings"`
	LastSyncedAt *time.Time              `json:"last_synced_at,omitempty"`
	LastSync     *integration.SyncResult `json:"last_sync,omitempty"`
	LastError    string                  `json:"last_error,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// ConnectionTestResponse is the outcome of a connection test
type ConnectionTestResponse struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// identifiers are shown in full; everything else is a secret
var publicCredentials = map[string]bool{
	integration.CredStoreURL:      true,
	integration.CredPhoneNumberID: true,
	integration.CredCatalogID:     true,
}

// ToIntegrationResponse converts an integration
func ToIntegrationResponse(i *integration.Integration) IntegrationResponse {
	creds := make(map[string]string, len(i.Credentials))
	for k, v := range i.Credentials {
		if publicCredentials[k] {
			creds[k] = v
		} else {
			creds[k] = maskSecret(v)
		}
	}
	settings := make(map[string]string, len(i.Settings))
	for k, v := range i.Settings {
		settings[k] = v
	}
	return IntegrationResponse{
		ID:           i.ID,
		Platform:     string(i.Platform),
		Name:         i.Name,
		Status:       string(i.Status),
		Credentials:  creds,
		Settings:     settings,
		LastSyncedAt: i.LastSyncedAt,
		LastSync:     i.LastSync,
		LastError:    i.LastError,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
