package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// APIKeyPrefix marks SmartStore secret keys
const APIKeyPrefix = "sk_live_"

// APIKey grants programmatic access to one organization with a permission subset.
// Only the SHA-256 hash of the key is persisted.
type APIKey struct {
	shared.TenantEntity
	Name        string     `gorm:"size:100;not null"`
	Prefix      string     `gorm:"size:20;not null"`
	KeyHash     string     `gorm:"size:64;not null;uniqueIndex:idx_api_keys_hash"`
	Permissions []string   `gorm:"serializer:json;type:jsonb"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid"`
	ExpiresAt   *time.Time `gorm:""`
	LastUsedAt  *time.Time `gorm:""`
	RevokedAt   *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (APIKey) TableName() string {
	return "api_keys"
}

// HashAPIKey returns the hex SHA-256 digest used for key lookup
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey creates a key for the tenant and returns it with the plaintext secret.
// The plaintext is never stored and cannot be recovered later.
func GenerateAPIKey(tenantID, createdBy uuid.UUID, name string, permissions []string, expiresAt *time.Time) (*APIKey, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", shared.InvalidInput("API key name cannot be empty")
	}
	if len(permissions) == 0 {
		return nil, "", shared.InvalidInput("API key must grant at least one permission")
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return nil, "", shared.InvalidInput("API key expiry must be in the future")
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", err
	}
	raw := APIKeyPrefix + hex.EncodeToString(buf)

	key := &APIKey{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		Prefix:       raw[:len(APIKeyPrefix)+6],
		KeyHash:      HashAPIKey(raw),
		Permissions:  permissions,
		CreatedBy:    createdBy,
		ExpiresAt:    expiresAt,
	}
	return key, raw, nil
}

// IsActive reports whether the key is neither revoked nor expired at the given time
func (k *APIKey) IsActive(now time.Time) bool {
	if k.RevokedAt != nil {
		return false
	}
	if k.ExpiresAt != nil && !now.Before(*k.ExpiresAt) {
		return false
	}
	return true
}

// Revoke permanently disables the key
func (k *APIKey) Revoke() error {
	if k.RevokedAt != nil {
		return shared.InvalidState("API key is already revoked")
	}
	now := time.Now()
	k.RevokedAt = &now
	k.UpdatedAt = now
	return nil
}
