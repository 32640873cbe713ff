package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/shared"
)

// GormOrganizationRepository implements identity.OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error) {
	var org identity.Organization
	if err := conn(ctx, r.db).First(&org, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Organization")
	}
	return &org, nil
}

func (r *GormOrganizationRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&identity.Organization{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *GormOrganizationRepository) Save(ctx context.Context, org *identity.Organization) error {
	return translate(conn(ctx, r.db).Save(org).Error, "Organization slug already taken")
}

// GormUserRepository implements identity.UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "User")
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var user identity.User
	if err := conn(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err, "User")
	}
	return &user, nil
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&identity.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *GormUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, int64, error) {
	query := conn(ctx, r.db).Model(&identity.User{}).
		Scopes(tenantScope(tenantID), search(filter.Search, "email", "display_name"))
	for key, value := range filter.Filters {
		switch key {
		case "role", "status":
			query = query.Where(key+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []identity.User
	if err := query.Scopes(paginate(filter, userSortFields, "created_at")).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *GormUserRepository) FindByRoles(ctx context.Context, tenantID uuid.UUID, roles ...identity.Role) ([]identity.User, error) {
	var users []identity.User
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).
		Where("role IN ? AND status = ?", roles, identity.UserStatusActive).
		Order("created_at").
		Find(&users).Error
	return users, err
}

func (r *GormUserRepository) CountByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&identity.User{}).
		Scopes(tenantScope(tenantID)).
		Where("role = ? AND status = ?", role, identity.UserStatusActive).
		Count(&count).Error
	return count, err
}

func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return translate(conn(ctx, r.db).Save(user).Error, "Email already registered")
}

func (r *GormUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Delete(&identity.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("User")
	}
	return nil
}

// GormAPIKeyRepository implements identity.APIKeyRepository
type GormAPIKeyRepository struct {
	db *gorm.DB
}

// NewGormAPIKeyRepository creates a new GormAPIKeyRepository
func NewGormAPIKeyRepository(db *gorm.DB) *GormAPIKeyRepository {
	return &GormAPIKeyRepository{db: db}
}

func (r *GormAPIKeyRepository) FindByHash(ctx context.Context, hash string) (*identity.APIKey, error) {
	var key identity.APIKey
	if err := conn(ctx, r.db).First(&key, "key_hash = ?", hash).Error; err != nil {
		return nil, notFound(err, "API key")
	}
	return &key, nil
}

func (r *GormAPIKeyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.APIKey, error) {
	var key identity.APIKey
	if err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).First(&key, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "API key")
	}
	return &key, nil
}

func (r *GormAPIKeyRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]identity.APIKey, error) {
	var keys []identity.APIKey
	err := conn(ctx, r.db).Scopes(tenantScope(tenantID)).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

func (r *GormAPIKeyRepository) Save(ctx context.Context, key *identity.APIKey) error {
	return conn(ctx, r.db).Save(key).Error
}

func (r *GormAPIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return conn(ctx, r.db).Model(&identity.APIKey{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at).Error
}

var (
	_ identity.OrganizationRepository = (*GormOrganizationRepository)(nil)
	_ identity.UserRepository         = (*GormUserRepository)(nil)
	_ identity.APIKeyRepository       = (*GormAPIKeyRepository)(nil)
)
