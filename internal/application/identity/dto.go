package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/identity"
)

// RegisterRequest opens a new organization with its owner account
type RegisterRequest struct {
	OrganizationName string `json:"organization_name" binding:"required,min=1,max=200"`
	Email            string `json:"email" binding:"required,email,max=200"`
	Password         string `json:"password" binding:"required,min=8,max=72"`
	DisplayName      string `json:"display_name" binding:"max=200"`
	Currency         string `json:"currency" binding:"omitempty,len=3"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest changes the caller's own password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// AuthResult is returned by register, login and refresh.
// The refresh token travels in a cookie and is never serialized.
type AuthResult struct {
	AccessToken           string       `json:"access_token"`
	AccessTokenExpiresAt  time.Time    `json:"access_token_expires_at"`
	TokenType             string       `json:"token_type"`
	RefreshToken          string       `json:"-"`
	RefreshTokenExpiresAt time.Time    `json:"-"`
	User                  UserResponse `json:"user"`
}

// UserResponse is a user in API responses
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Permissions []string   `json:"permissions,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToUserResponse converts a user
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Role:        string(u.Role),
		Status:      string(u.Status),
		Permissions: u.Permissions(),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// CreateUserRequest adds a user to the caller's organization
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email,max=200"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"display_name" binding:"max=200"`
	Phone       string `json:"phone" binding:"max=50"`
	Role        string `json:"role" binding:"required,oneof=OWNER ADMIN MANAGER STAFF VIEWER"`
}

// UpdateUserRequest changes profile fields and status
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=200"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
	Status      *string `json:"status" binding:"omitempty,oneof=ACTIVE DISABLED"`
}

// ChangeRoleRequest assigns a role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=OWNER ADMIN MANAGER STAFF VIEWER"`
}

// UserListFilter filters the user list
type UserListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"max=100"`
	Role     string `form:"role" binding:"omitempty,oneof=OWNER ADMIN MANAGER STAFF VIEWER"`
}

// OrganizationResponse is an organization in API responses
type OrganizationResponse struct {
	ID        uuid.UUID                     `json:"id"`
	Name      string                        `json:"name"`
	Slug      string                        `json:"slug"`
	Email     string                        `json:"email"`
	Plan      string                        `json:"plan"`
	Status    string                        `json:"status"`
	Settings  identity.OrganizationSettings `json:"settings"`
	CreatedAt time.Time                     `json:"created_at"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// ToOrganizationResponse converts an organization
func ToOrganizationResponse(o *identity.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		Slug:      o.Slug,
		Email:     o.Email,
		Plan:      string(o.Plan),
		Status:    string(o.Status),
		Settings:  o.Settings,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// UpdateOrganizationRequest changes name and settings. Nil fields are kept.
type UpdateOrganizationRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Email             *string          `json:"email" binding:"omitempty,email"`
	Currency          *string          `json:"currency" binding:"omitempty,len=3"`
	Locale            *string          `json:"locale" binding:"omitempty,max=20"`
	Timezone          *string          `json:"timezone" binding:"omitempty,max=50"`
	TaxRate           *decimal.Decimal `json:"tax_rate"`
	ShippingFee       *decimal.Decimal `json:"shipping_fee"`
	LoyaltyEarnRate   *decimal.Decimal `json:"loyalty_earn_rate"`
	LoyaltyRedeemRate *decimal.Decimal `json:"loyalty_redeem_rate"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	NotificationEmail *string          `json:"notification_email" binding:"omitempty,email"`
}

// CreateAPIKeyRequest creates an API key
type CreateAPIKeyRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=100"`
	Permissions []string   `json:"permissions" binding:"required,min=1,dive,required"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// APIKeyResponse is an API key in API responses
type APIKeyResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Prefix      string     `json:"prefix"`
	Permissions []string   `json:"permissions"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreatedAPIKeyResponse carries the plaintext key, shown exactly once
type CreatedAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

// ToAPIKeyResponse converts an API key
func ToAPIKeyResponse(k *identity.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:          k.ID,
		Name:        k.Name,
		Prefix:      k.Prefix,
		Permissions: k.Permissions,
		ExpiresAt:   k.ExpiresAt,
		LastUsedAt:  k.LastUsedAt,
		RevokedAt:   k.RevokedAt,
		CreatedAt:   k.CreatedAt,
	}
}

// APIKeyPrincipal is the identity an authenticated API key acts as
type APIKeyPrincipal struct {
	KeyID       uuid.UUID
	TenantID    uuid.UUID
	CreatedBy   uuid.UUID
	Permissions []string
}
