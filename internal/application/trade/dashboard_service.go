package trade

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

const defaultSummaryDays = 30

// AlertCounter counts unacknowledged low stock alerts
type AlertCounter interface {
	OpenAlertCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// DashboardService aggregates headline figures for a tenant
type DashboardService struct {
	orderRepo    trade.OrderRepository
	customerRepo partner.CustomerRepository
	orgRepo      identity.OrganizationRepository
	alerts       AlertCounter
	now          func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	orderRepo trade.OrderRepository,
	customerRepo partner.CustomerRepository,
	orgRepo identity.OrganizationRepository,
	alerts AlertCounter,
) *DashboardService {
	return &DashboardService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		orgRepo:      orgRepo,
		alerts:       alerts,
		now:          time.Now,
	}
}

// Summary returns order, customer and stock figures for a period
func (s *DashboardService) Summary(ctx context.Context, tenantID uuid.UUID, req SummaryRequest) (*DashboardSummary, error) {
	to := s.now()
	if req.To != nil {
		to = endOfDay(*req.To)
	}
	from := to.AddDate(0, 0, -defaultSummaryDays)
	if req.From != nil {
		from = *req.From
	}
	if from.After(to) {
		return nil, shared.InvalidInput("from must not be after to")
	}

	settings, err := orgSettings(ctx, s.orgRepo, tenantID)
	if err != nil {
		return nil, err
	}
	sum, err := s.orderRepo.Summary(ctx, tenantID, shared.DateRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.Count(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	alerts, err := s.alerts.OpenAlertCount(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		From:               from,
		To:                 to,
		Currency:           settings.Currency,
		OrderCount:         sum.OrderCount,
		Revenue:            sum.Revenue,
		AverageOrderValue:  sum.AverageOrderValue,
		PendingOrders:      sum.PendingCount,
		OrderingCustomers:  sum.UniqueCustomers,
		TotalCustomers:     customers,
		OpenLowStockAlerts: alerts,
	}, nil
}
