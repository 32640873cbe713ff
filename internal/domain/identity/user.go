package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/shared"
)

// UserStatus represents whether a user may sign in
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusDisabled UserStatus = "DISABLED"
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 8

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// User is a dashboard account belonging to one organization
type User struct {
	shared.TenantAggregateRoot
	Email        string         `gorm:"size:200;not null;uniqueIndex:idx_users_email"`
	PasswordHash string         `gorm:"size:200;not null"`
	DisplayName  string         `gorm:"size:200;not null"`
	Phone        string         `gorm:"size:50"`
	Role         Role           `gorm:"size:20;not null"`
	Status       UserStatus     `gorm:"size:20;not null;default:'ACTIVE'"`
	LastLoginAt  *time.Time     `gorm:""`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NormalizeEmail lower-cases and validates an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", shared.InvalidInput("Invalid email address")
	}
	return email, nil
}

// NewUser creates an active user with an already hashed password
func NewUser(tenantID uuid.UUID, email, displayName, passwordHash string, role Role) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.InvalidInput("Invalid role")
	}
	if passwordHash == "" {
		return nil, shared.InvalidInput("Password is required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.Split(normalized, "@")[0]
	}
	return &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               normalized,
		PasswordHash:        passwordHash,
		DisplayName:         displayName,
		Role:                role,
		Status:              UserStatusActive,
	}, nil
}

// ValidatePassword enforces the password policy on a plaintext password
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return shared.InvalidInput("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.InvalidInput("Password cannot exceed 72 characters")
	}
	return nil
}

// CanLogin reports whether the user may authenticate
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
}

// ChangeRole assigns a new role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.InvalidInput("Invalid role")
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return nil
}

// ChangePassword replaces the password hash
func (u *User) ChangePassword(hash string) {
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
}

// UpdateProfile changes display name and phone
func (u *User) UpdateProfile(displayName, phone string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return shared.InvalidInput("Display name cannot be empty")
	}
	u.DisplayName = displayName
	u.Phone = strings.TrimSpace(phone)
	u.UpdatedAt = time.Now()
	return nil
}

// Disable prevents the user from signing in
func (u *User) Disable() {
	u.Status = UserStatusDisabled
	u.UpdatedAt = time.Now()
}

// Enable re-activates a disabled user
func (u *User) Enable() {
	u.Status = UserStatusActive
	u.UpdatedAt = time.Now()
}

// Permissions returns the permissions derived from the user's role
func (u *User) Permissions() []string {
	return u.Role.Permissions()
}
