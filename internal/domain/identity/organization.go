package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/shared"
)

// OrganizationStatus represents the lifecycle state of a tenant
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "ACTIVE"
	OrganizationStatusSuspended OrganizationStatus = "SUSPENDED"
)

// Plan is the subscription plan of an organization
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanStarter    Plan = "STARTER"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

// IsValid reports whether the plan is known
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// OrganizationSettings holds tenant-wide business settings
type OrganizationSettings struct {
	Currency          string          `json:"currency"`
	Locale            string          `json:"locale"`
	Timezone          string          `json:"timezone"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	ShippingFee       decimal.Decimal `json:"shipping_fee"`
	LoyaltyEarnRate   decimal.Decimal `json:"loyalty_earn_rate"`   // points per currency unit
	LoyaltyRedeemRate decimal.Decimal `json:"loyalty_redeem_rate"` // currency value of one point
	LowStockThreshold int             `json:"low_stock_threshold"`
	NotificationEmail string          `json:"notification_email"`
}

// DefaultOrganizationSettings returns the settings a new organization starts with
func DefaultOrganizationSettings() OrganizationSettings {
	return OrganizationSettings{
		Currency:          "USD",
		Locale:            "en-US",
		Timezone:          "UTC",
		TaxRate:           decimal.Zero,
		ShippingFee:       decimal.Zero,
		LoyaltyEarnRate:   decimal.NewFromInt(1),
		LoyaltyRedeemRate: decimal.NewFromFloat(0.01),
		LowStockThreshold: 10,
	}
}

// Validate checks the settings are internally consistent
func (s OrganizationSettings) Validate() error {
	if len(s.Currency) != 3 {
		return shared.InvalidInput("Currency must be a 3-letter ISO code")
	}
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return shared.InvalidInput("Tax rate must be between 0 and 1")
	}
	if s.ShippingFee.IsNegative() {
		return shared.InvalidInput("Shipping fee cannot be negative")
	}
	if s.LoyaltyEarnRate.IsNegative() || s.LoyaltyRedeemRate.IsNegative() {
		return shared.InvalidInput("Loyalty rates cannot be negative")
	}
	if s.LowStockThreshold < 0 {
		return shared.InvalidInput("Low stock threshold cannot be negative")
	}
	return nil
}

// Organization is the tenant boundary. Every business record references its ID.
type Organization struct {
	shared.BaseAggregateRoot
	Name      string               `gorm:"size:200;not null"`
	Slug      string               `gorm:"size:100;not null;uniqueIndex:idx_organizations_slug"`
	Email     string               `gorm:"size:200"`
	Plan      Plan                 `gorm:"size:20;not null;default:'FREE'"`
	Status    OrganizationStatus   `gorm:"size:20;not null;default:'ACTIVE'"`
	Settings  OrganizationSettings `gorm:"serializer:json;type:jsonb"`
	DeletedAt gorm.DeletedAt       `gorm:"index"`
}

// TableName returns the table name for GORM
func (Organization) TableName() string {
	return "organizations"
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a URL-safe slug
func Slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// NewOrganization creates a new active organization on the free plan
func NewOrganization(name, email string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidInput("Organization name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.InvalidInput("Organization name cannot exceed 200 characters")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, shared.InvalidInput("Organization name must contain letters or digits")
	}
	return &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Plan:              PlanFree,
		Status:            OrganizationStatusActive,
		Settings:          DefaultOrganizationSettings(),
	}, nil
}

// Rename changes the display name; the slug is stable
func (o *Organization) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.InvalidInput("Organization name cannot be empty")
	}
	o.Name = name
	o.UpdatedAt = time.Now()
	return nil
}

// UpdateSettings replaces the organization settings after validation
func (o *Organization) UpdateSettings(settings OrganizationSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	settings.Currency = strings.ToUpper(settings.Currency)
	o.Settings = settings
	o.UpdatedAt = time.Now()
	return nil
}

// ChangePlan switches the subscription plan
func (o *Organization) ChangePlan(plan Plan) error {
	if !plan.IsValid() {
		return shared.InvalidInput("Unknown plan")
	}
	o.Plan = plan
	o.UpdatedAt = time.Now()
	return nil
}

// IsActive reports whether the tenant may use the platform
func (o *Organization) IsActive() bool {
	return o.Status == OrganizationStatusActive
}

// TenantID returns the organization ID, which doubles as the tenant ID
func (o *Organization) TenantID() uuid.UUID {
	return o.ID
}
