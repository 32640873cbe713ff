package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/partner"
)

// AddressDTO is a postal address in requests and responses
type AddressDTO struct {
	Line1      string `json:"line1" binding:"max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"omitempty,len=2"`
}

func (a AddressDTO) toDomain() partner.Address {
	return partner.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toAddressDTO(a partner.Address) AddressDTO {
	return AddressDTO{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Email          string       `json:"email" binding:"omitempty,email,max=200"`
	Phone          string       `json:"phone" binding:"max=50"`
	FirstName      string       `json:"first_name" binding:"required,min=1,max=100"`
	LastName       string       `json:"last_name" binding:"max=100"`
	Addresses      []AddressDTO `json:"addresses" binding:"omitempty,max=10,dive"`
	MarketingOptIn bool         `json:"marketing_opt_in"`
	Tags           []string     `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	Notes          string       `json:"notes" binding:"max=2000"`
}

// UpdateCustomerRequest represents a request to update a customer. Nil fields are kept.
type UpdateCustomerRequest struct {
	Email          *string      `json:"email" binding:"omitempty,max=200"`
	Phone          *string      `json:"phone" binding:"omitempty,max=50"`
	FirstName      *string      `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName       *string      `json:"last_name" binding:"omitempty,max=100"`
	Addresses      []AddressDTO `json:"addresses" binding:"omitempty,max=10,dive"`
	MarketingOptIn *bool        `json:"marketing_opt_in"`
	Tags           []string     `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	Notes          *string      `json:"notes" binding:"omitempty,max=2000"`
}

// CustomerListFilter represents filter options for the customer list
type CustomerListFilter struct {
	Search         string `form:"search" binding:"max=100"`
	Tier           string `form:"tier" binding:"omitempty,oneof=BRONZE SILVER GOLD PLATINUM"`
	MarketingOptIn *bool  `form:"marketing_opt_in"`
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PageSize       int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string `form:"order_by" binding:"omitempty,oneof=email first_name last_name loyalty_points total_spent order_count created_at"`
	OrderDir       string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID             uuid.UUID       `json:"id"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	FullName       string          `json:"full_name"`
	Addresses      []AddressDTO    `json:"addresses"`
	LoyaltyPoints  int64           `json:"loyalty_points"`
	LifetimePoints int64           `json:"lifetime_points"`
	Tier           string          `json:"tier"`
	MarketingOptIn bool            `json:"marketing_opt_in"`
	Tags           []string        `json:"tags"`
	Notes          string          `json:"notes,omitempty"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	OrderCount     int             `json:"order_count"`
	LastOrderAt    *time.Time      `json:"last_order_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	addresses := make([]AddressDTO, len(c.Addresses))
	for i, a := range c.Addresses {
		addresses[i] = toAddressDTO(a)
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return CustomerResponse{
		ID:             c.ID,
		Email:          c.Email,
		Phone:          c.Phone,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		FullName:       c.FullName(),
		Addresses:      addresses,
		LoyaltyPoints:  c.LoyaltyPoints,
		LifetimePoints: c.LifetimePoints,
		Tier:           string(c.Tier),
		MarketingOptIn: c.MarketingOptIn,
		Tags:           tags,
		Notes:          c.Notes,
		TotalSpent:     c.TotalSpent,
		OrderCount:     c.OrderCount,
		LastOrderAt:    c.LastOrderAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// WarehouseRequest creates or updates a warehouse
type WarehouseRequest struct {
	Code      string     `json:"code" binding:"omitempty,max=50"`
	Name      string     `json:"name" binding:"required,min=1,max=200"`
	Address   AddressDTO `json:"address"`
	IsDefault bool       `json:"is_default"`
	Active    *bool      `json:"active"`
}

// WarehouseResponse represents a warehouse in API responses
type WarehouseResponse struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Address   AddressDTO `json:"address"`
	IsDefault bool       `json:"is_default"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToWarehouseResponse converts a warehouse
func ToWarehouseResponse(w *partner.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   toAddressDTO(w.Address),
		IsDefault: w.IsDefault,
		Status:    string(w.Status),
		CreatedAt: w.CreatedAt,
	}
}
