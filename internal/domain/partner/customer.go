package partner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/shared"
)

// Address is a postal address
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// IsZero reports whether the address is empty
func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == "" && a.PostalCode == "" && a.Country == ""
}

// Customer is a buyer of one organization, including their loyalty balance
type Customer struct {
	shared.TenantAggregateRoot
	Email          string          `gorm:"size:200;index:idx_customers_email"`
	Phone          string          `gorm:"size:50"`
	FirstName      string          `gorm:"size:100;not null"`
	LastName       string          `gorm:"size:100"`
	Addresses      []Address       `gorm:"serializer:json;type:jsonb"`
	LoyaltyPoints  int64           `gorm:"not null;default:0"`
	LifetimePoints int64           `gorm:"not null;default:0"`
	Tier           loyalty.Tier    `gorm:"size:20;not null;default:'BRONZE'"`
	MarketingOptIn bool            `gorm:"not null;default:false"`
	Tags           []string        `gorm:"serializer:json;type:jsonb"`
	Notes          string          `gorm:"type:text"`
	TotalSpent     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OrderCount     int             `gorm:"not null;default:0"`
	LastOrderAt    *time.Time      `gorm:""`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a customer. Email is optional but must be valid when present.
func NewCustomer(tenantID uuid.UUID, email, phone, firstName, lastName string) (*Customer, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, shared.InvalidInput("First name cannot be empty")
	}
	if email != "" {
		normalized, err := identity.NormalizeEmail(email)
		if err != nil {
			return nil, err
		}
		email = normalized
	}
	if email == "" && strings.TrimSpace(phone) == "" {
		return nil, shared.InvalidInput("Customer needs an email or a phone number")
	}
	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               email,
		Phone:               strings.TrimSpace(phone),
		FirstName:           firstName,
		LastName:            strings.TrimSpace(lastName),
		Addresses:           []Address{},
		Tier:                loyalty.TierBronze,
		Tags:                []string{},
		TotalSpent:          decimal.Zero,
	}, nil
}

// FullName returns first and last name joined
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// UpdateContact changes contact details
func (c *Customer) UpdateContact(email, phone, firstName, lastName string) error {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return shared.InvalidInput("First name cannot be empty")
	}
	if email != "" {
		normalized, err := identity.NormalizeEmail(email)
		if err != nil {
			return err
		}
		email = normalized
	}
	c.Email = email
	c.Phone = strings.TrimSpace(phone)
	c.FirstName = firstName
	c.LastName = strings.TrimSpace(lastName)
	c.touch()
	return nil
}

// SetAddresses replaces the address book
func (c *Customer) SetAddresses(addresses []Address) {
	if addresses == nil {
		addresses = []Address{}
	}
	c.Addresses = addresses
	c.touch()
}

// DefaultAddress returns the first address, if any
func (c *Customer) DefaultAddress() Address {
	if len(c.Addresses) == 0 {
		return Address{}
	}
	return c.Addresses[0]
}

// SetMarketingOptIn records marketing consent
func (c *Customer) SetMarketingOptIn(optIn bool) {
	c.MarketingOptIn = optIn
	c.touch()
}

// SetTags replaces the customer tags
func (c *Customer) SetTags(tags []string, notes string) {
	if tags == nil {
		tags = []string{}
	}
	c.Tags = tags
	c.Notes = notes
	c.touch()
}

// EarnPoints credits points and recalculates the tier
func (c *Customer) EarnPoints(points int64) error {
	if points <= 0 {
		return shared.InvalidInput("Earned points must be positive")
	}
	c.LoyaltyPoints += points
	c.LifetimePoints += points
	c.Tier = loyalty.TierFor(c.LifetimePoints)
	c.touch()
	return nil
}

// RedeemPoints debits points from the balance
func (c *Customer) RedeemPoints(points int64) error {
	if points <= 0 {
		return shared.InvalidInput("Redeemed points must be positive")
	}
	if points > c.LoyaltyPoints {
		return shared.NewDomainError(shared.CodeInsufficientBalance, "Insufficient loyalty points")
	}
	c.LoyaltyPoints -= points
	c.touch()
	return nil
}

// AdjustPoints applies a signed manual correction. Positive adjustments count
// toward lifetime points; the balance never goes negative.
func (c *Customer) AdjustPoints(delta int64) error {
	if delta == 0 {
		return shared.InvalidInput("Adjustment cannot be zero")
	}
	if c.LoyaltyPoints+delta < 0 {
		return shared.NewDomainError(shared.CodeInsufficientBalance, "Adjustment would make the balance negative")
	}
	c.LoyaltyPoints += delta
	if delta > 0 {
		c.LifetimePoints += delta
	}
	c.Tier = loyalty.TierFor(c.LifetimePoints)
	c.touch()
	return nil
}

// ReversePoints undoes earned points, e.g. after a refund. Lifetime points are
// reduced too, and the balance is floored at zero if points were already spent.
func (c *Customer) ReversePoints(points int64) int64 {
	if points <= 0 {
		return 0
	}
	reversed := points
	if reversed > c.LoyaltyPoints {
		reversed = c.LoyaltyPoints
	}
	c.LoyaltyPoints -= reversed
	c.LifetimePoints -= points
	if c.LifetimePoints < 0 {
		c.LifetimePoints = 0
	}
	c.Tier = loyalty.TierFor(c.LifetimePoints)
	c.touch()
	return reversed
}

// RestorePoints returns previously redeemed points, e.g. on order cancellation
func (c *Customer) RestorePoints(points int64) {
	if points <= 0 {
		return
	}
	c.LoyaltyPoints += points
	c.touch()
}

// RecordOrder updates purchase statistics
func (c *Customer) RecordOrder(total decimal.Decimal, at time.Time) {
	c.TotalSpent = c.TotalSpent.Add(total)
	c.OrderCount++
	c.LastOrderAt = &at
	c.touch()
}

func (c *Customer) touch() {
	c.UpdatedAt = time.Now()
}
