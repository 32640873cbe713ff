package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// OrganizationRepository persists organizations
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, org *Organization) error
}

// UserRepository persists users
type UserRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	// FindByEmail looks up a user across tenants; emails are globally unique
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, int64, error)
	FindByRoles(ctx context.Context, tenantID uuid.UUID, roles ...Role) ([]User, error)
	CountByRole(ctx context.Context, tenantID uuid.UUID, role Role) (int64, error)
	Save(ctx context.Context, user *User) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// APIKeyRepository persists API keys
type APIKeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*APIKey, error)
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]APIKey, error)
	Save(ctx context.Context, key *APIKey) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}
