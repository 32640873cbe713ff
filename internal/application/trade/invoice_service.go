package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/trade"
	"github.com/smartstore/backend/internal/infrastructure/printing"
	"github.com/smartstore/backend/internal/infrastructure/storage"
)

// Invoice is a rendered invoice document
type Invoice struct {
	Filename    string
	ContentType string
	Content     []byte
}

// InvoiceService renders order invoices
type InvoiceService struct {
	orderRepo    trade.OrderRepository
	customerRepo partner.CustomerRepository
	orgRepo      identity.OrganizationRepository
	generator    *printing.InvoiceGenerator
	logger       *zap.Logger
	now          func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	orderRepo trade.OrderRepository,
	customerRepo partner.CustomerRepository,
	orgRepo identity.OrganizationRepository,
	generator *printing.InvoiceGenerator,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		orgRepo:      orgRepo,
		generator:    generator,
		logger:       logger,
		now:          time.Now,
	}
}

// PDF renders the invoice of an order and archives a copy
func (s *InvoiceService) PDF(ctx context.Context, tenantID, orderID uuid.UUID) (*Invoice, error) {
	data, err := s.load(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	key := storage.InvoiceKey(tenantID.String(), data.Order.OrderNumber)
	pdf, err := s.generator.PDF(ctx, *data, key)
	if err != nil {
		s.logger.Error("Failed to render invoice",
			zap.String("order_number", data.Order.OrderNumber),
			zap.Error(err))
		return nil, err
	}
	return &Invoice{
		Filename:    data.Order.OrderNumber + ".pdf",
		ContentType: "application/pdf",
		Content:     pdf,
	}, nil
}

// HTML renders the invoice as a web page
func (s *InvoiceService) HTML(ctx context.Context, tenantID, orderID uuid.UUID) (string, error) {
	data, err := s.load(ctx, tenantID, orderID)
	if err != nil {
		return "", err
	}
	return s.generator.HTML(*data)
}

func (s *InvoiceService) load(ctx context.Context, tenantID, orderID uuid.UUID) (*printing.InvoiceData, error) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.FindByID(ctx, tenantID, order.CustomerID)
	if err != nil {
		return nil, err
	}
	return &printing.InvoiceData{
		Organization: org,
		Customer:     customer,
		Order:        order,
		IssuedAt:     s.now(),
	}, nil
}
