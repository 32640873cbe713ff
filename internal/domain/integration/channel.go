package integration

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/partner"
)

// Channel adapter errors
var (
	ErrPlatformNotSupported    = errors.New("platform not supported")
	ErrPlatformRequestFailed   = errors.New("platform request failed")
	ErrPlatformInvalidResponse = errors.New("platform returned an invalid response")
	ErrPlatformUnauthorized    = errors.New("platform rejected the credentials")
	ErrOperationNotSupported   = errors.New("operation not supported by platform")
)

// ChannelProduct is a product as pushed to an external channel
type ChannelProduct struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    string
	Quantity    int64
	ImageURL    string
	// URL is the storefront page of the product
	URL    string
	Active bool
}

// StockLevel is an on-hand quantity for a SKU
type StockLevel struct {
	SKU      string
	Quantity int64
}

// ChannelOrderLine is a line of an imported order
type ChannelOrderLine struct {
	SKU       string
	Name      string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// ChannelOrder is an order pulled from an external channel
type ChannelOrder struct {
	ExternalID      string
	Number          string
	CustomerEmail   string
	CustomerPhone   string
	FirstName       string
	LastName        string
	ShippingAddress partner.Address
	Currency        string
	Lines           []ChannelOrderLine
	ShippingTotal   decimal.Decimal
	Total           decimal.Decimal
	Paid            bool
	CreatedAt       time.Time
}

// Adapter talks to one external platform with a tenant's credentials
type Adapter interface {
	Platform() Platform
	TestConnection(ctx context.Context, creds Credentials) error
	PushProducts(ctx context.Context, creds Credentials, products []ChannelProduct) (*SyncResult, error)
	PushStock(ctx context.Context, creds Credentials, levels []StockLevel) (*SyncResult, error)
	PullOrders(ctx context.Context, creds Credentials, since time.Time) ([]ChannelOrder, error)
}
