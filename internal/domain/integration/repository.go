package integration

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/shared"
)

// IntegrationRepository persists integrations
type IntegrationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Integration, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Integration, int64, error)
	// FindActiveByPlatform returns the tenant's first active integration for a platform
	FindActiveByPlatform(ctx context.Context, tenantID uuid.UUID, platform Platform) (*Integration, error)
	// FindByCredential finds an integration across tenants by a credential value
	FindByCredential(ctx context.Context, platform Platform, key, value string) (*Integration, error)
	ExistsByName(ctx context.Context, tenantID uuid.UUID, platform Platform, name string) (bool, error)
	Save(ctx context.Context, i *Integration) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
