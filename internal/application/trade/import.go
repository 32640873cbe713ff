package trade

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// ExternalOrder is an order pulled from a sales channel
type ExternalOrder struct {
	Channel    trade.Channel
	ExternalID string
	Email      string
	Phone      string
	FirstName  string
	LastName   string
	Address    ShippingAddress
	Lines      []ExternalLine
	Paid       bool
	Notes      string
}

// ExternalLine is a channel order line identified by SKU
type ExternalLine struct {
	SKU      string
	Quantity int64
}

// Import creates a local order for a channel order unless it was imported
// before. It reports whether a new order was created. Local catalog prices
// apply; a paid channel order is recorded as paid in full.
func (s *OrderService) Import(ctx context.Context, tenantID uuid.UUID, ext ExternalOrder) (*OrderResponse, bool, error) {
	if ext.ExternalID == "" {
		return nil, false, shared.InvalidInput("External order ID is required")
	}
	existing, err := s.orderRepo.FindByExternalID(ctx, tenantID, ext.Channel, ext.ExternalID)
	if err == nil {
		resp := ToOrderResponse(existing)
		return &resp, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	customer, err := s.importCustomer(ctx, tenantID, ext)
	if err != nil {
		return nil, false, err
	}

	items := make([]OrderItemRequest, 0, len(ext.Lines))
	for _, line := range ext.Lines {
		product, err := s.productRepo.FindBySKU(ctx, tenantID, catalog.NormalizeSKU(line.SKU))
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, false, shared.InvalidInput("Unknown SKU " + line.SKU)
			}
			return nil, false, err
		}
		items = append(items, OrderItemRequest{ProductID: product.ID, Quantity: line.Quantity})
	}

	address := ext.Address
	created, err := s.Create(ctx, tenantID, uuid.Nil, CreateOrderRequest{
		CustomerID:      customer.ID,
		Items:           items,
		ShippingAddress: &address,
		Notes:           ext.Notes,
		Channel:         string(ext.Channel),
		ExternalID:      ext.ExternalID,
	})
	if err != nil {
		return nil, false, err
	}
	if !ext.Paid {
		return created, true, nil
	}

	var order *trade.Order
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		order, err = s.orderRepo.FindByID(ctx, tenantID, created.ID)
		if err != nil {
			return err
		}
		if err := order.RecordPayment(order.BalanceDue()); err != nil {
			return err
		}
		return s.orderRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("Imported channel order",
		zap.String("channel", string(ext.Channel)),
		zap.String("external_id", ext.ExternalID),
		zap.String("order_number", order.OrderNumber))
	s.publish(ctx, order, nil)
	resp := ToOrderResponse(order)
	return &resp, true, nil
}

func (s *OrderService) importCustomer(ctx context.Context, tenantID uuid.UUID, ext ExternalOrder) (*partner.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(ext.Email))
	if email != "" {
		c, err := s.customerRepo.FindByEmail(ctx, tenantID, email)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	if ext.Phone != "" {
		c, err := s.customerRepo.FindByPhone(ctx, tenantID, ext.Phone)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	firstName := ext.FirstName
	if strings.TrimSpace(firstName) == "" {
		firstName = "Customer"
	}
	customer, err := partner.NewCustomer(tenantID, email, ext.Phone, firstName, ext.LastName)
	if err != nil {
		return nil, err
	}
	if !ext.Address.toDomain().IsZero() {
		customer.SetAddresses([]partner.Address{ext.Address.toDomain()})
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
