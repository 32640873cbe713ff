package marketing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/shared"
)

// CouponType is how a coupon discounts an order
type CouponType string

const (
	CouponTypePercentage   CouponType = "PERCENTAGE"
	CouponTypeFixedAmount  CouponType = "FIXED_AMOUNT"
	CouponTypeFreeShipping CouponType = "FREE_SHIPPING"
)

// IsValid checks if the coupon type is known
func (t CouponType) IsValid() bool {
	switch t {
	case CouponTypePercentage, CouponTypeFixedAmount, CouponTypeFreeShipping:
		return true
	}
	return false
}

// Coupon is a discount code
type Coupon struct {
	shared.TenantEntity
	Code           string           `gorm:"size:50;not null"`
	Description    string           `gorm:"size:500"`
	Type           CouponType       `gorm:"size:20;not null"`
	Value          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	MinOrderAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	MaxDiscount    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	UsageLimit     *int64           `gorm:""`
	UsedCount      int64            `gorm:"not null;default:0"`
	StartsAt       *time.Time       `gorm:""`
	EndsAt         *time.Time       `gorm:""`
	Active         bool             `gorm:"not null"`
	DeletedAt      gorm.DeletedAt   `gorm:"index"`
}

// TableName returns the table name for GORM
func (Coupon) TableName() string {
	return "coupons"
}

// NormalizeCode trims and upper-cases a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCoupon creates an active coupon
func NewCoupon(tenantID uuid.UUID, code string, couponType CouponType, value decimal.Decimal) (*Coupon, error) {
	c := &Coupon{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		Code:           NormalizeCode(code),
		Type:           couponType,
		Value:          value,
		MinOrderAmount: decimal.Zero,
		Active:         true,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coupon) validate() error {
	if c.Code == "" || len(c.Code) > 50 {
		return shared.InvalidInput("Coupon code must be 1-50 characters")
	}
	if !c.Type.IsValid() {
		return shared.InvalidInput("Invalid coupon type: " + string(c.Type))
	}
	if c.Value.IsNegative() {
		return shared.InvalidInput("Coupon value cannot be negative")
	}
	switch c.Type {
	case CouponTypePercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(decimal.NewFromInt(100)) {
			return shared.InvalidInput("Percentage must be between 0 and 100")
		}
	case CouponTypeFixedAmount:
		if !c.Value.IsPositive() {
			return shared.InvalidInput("Fixed discount must be positive")
		}
	}
	if c.MinOrderAmount.IsNegative() {
		return shared.InvalidInput("Minimum order amount cannot be negative")
	}
	if c.MaxDiscount != nil && c.MaxDiscount.IsNegative() {
		return shared.InvalidInput("Maximum discount cannot be negative")
	}
	if c.UsageLimit != nil && *c.UsageLimit < 1 {
		return shared.InvalidInput("Usage limit must be at least 1")
	}
	if c.StartsAt != nil && c.EndsAt != nil && !c.EndsAt.After(*c.StartsAt) {
		return shared.InvalidInput("Coupon end must be after its start")
	}
	return nil
}

// CouponTerms are the optional terms of a coupon
type CouponTerms struct {
	Description    string
	MinOrderAmount decimal.Decimal
	MaxDiscount    *decimal.Decimal
	UsageLimit     *int64
	StartsAt       *time.Time
	EndsAt         *time.Time
}

// SetTerms replaces the coupon's terms
func (c *Coupon) SetTerms(terms CouponTerms) error {
	prev := *c
	c.Description = terms.Description
	c.MinOrderAmount = terms.MinOrderAmount
	c.MaxDiscount = terms.MaxDiscount
	c.UsageLimit = terms.UsageLimit
	c.StartsAt = terms.StartsAt
	c.EndsAt = terms.EndsAt
	if err := c.validate(); err != nil {
		*c = prev
		return err
	}
	c.Touch()
	return nil
}

// SetValue changes the discount value
func (c *Coupon) SetValue(value decimal.Decimal) error {
	prev := c.Value
	c.Value = value
	if err := c.validate(); err != nil {
		c.Value = prev
		return err
	}
	c.Touch()
	return nil
}

// SetActive enables or disables the coupon
func (c *Coupon) SetActive(active bool) {
	c.Active = active
	c.Touch()
}

// CheckUsable returns an error when the coupon cannot be used at the given time
func (c *Coupon) CheckUsable(now time.Time) error {
	if !c.Active {
		return shared.InvalidState("Coupon is not active")
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return shared.InvalidState("Coupon is not yet valid")
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return shared.InvalidState("Coupon has expired")
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return shared.InvalidState("Coupon usage limit reached")
	}
	return nil
}

// Discount computes the discount for a cart. Free shipping discounts the
// shipping fee; the result never exceeds what it discounts.
func (c *Coupon) Discount(subtotal, shipping decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if err := c.CheckUsable(now); err != nil {
		return decimal.Zero, err
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return decimal.Zero, shared.InvalidState("Order does not meet the coupon minimum of " + c.MinOrderAmount.StringFixed(2))
	}

	var discount decimal.Decimal
	switch c.Type {
	case CouponTypePercentage:
		discount = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	case CouponTypeFixedAmount:
		discount = c.Value
	case CouponTypeFreeShipping:
		return shipping, nil
	}
	if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
		discount = *c.MaxDiscount
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount, nil
}

// IsFreeShipping reports whether the coupon waives shipping
func (c *Coupon) IsFreeShipping() bool {
	return c.Type == CouponTypeFreeShipping
}
