package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// LoyaltyService keeps customer point balances and their ledger in step.
// Methods taking a *partner.Customer mutate it and write the ledger entry;
// saving the customer is left to the caller's transaction.
type LoyaltyService struct {
	customerRepo partner.CustomerRepository
	txRepo       loyalty.TransactionRepository
	orgRepo      identity.OrganizationRepository
	txManager    shared.TxManager
	logger       *zap.Logger
}

// NewLoyaltyService creates a new LoyaltyService
func NewLoyaltyService(
	customerRepo partner.CustomerRepository,
	txRepo loyalty.TransactionRepository,
	orgRepo identity.OrganizationRepository,
	txManager shared.TxManager,
	logger *zap.Logger,
) *LoyaltyService {
	return &LoyaltyService{
		customerRepo: customerRepo,
		txRepo:       txRepo,
		orgRepo:      orgRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// Balance returns the customer's points and tier
func (s *LoyaltyService) Balance(ctx context.Context, tenantID, customerID uuid.UUID) (*BalanceResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	resp := ToBalanceResponse(customer)
	return &resp, nil
}

// Ledger lists the customer's loyalty transactions, newest first
func (s *LoyaltyService) Ledger(ctx context.Context, tenantID, customerID uuid.UUID, filter LedgerFilter) (*shared.Paginated[TransactionResponse], error) {
	if _, err := s.customerRepo.FindByID(ctx, tenantID, customerID); err != nil {
		return nil, err
	}
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}

	txs, total, err := s.txRepo.FindByCustomer(ctx, tenantID, customerID, f)
	if err != nil {
		return nil, err
	}
	items := make([]TransactionResponse, len(txs))
	for i := range txs {
		items[i] = ToTransactionResponse(&txs[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// Adjust applies a manual correction
func (s *LoyaltyService) Adjust(ctx context.Context, tenantID, actorID, customerID uuid.UUID, req AdjustRequest) (*BalanceResponse, error) {
	var customer *partner.Customer
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		customer, err = s.customerRepo.FindByID(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		if err := customer.AdjustPoints(req.Points); err != nil {
			return err
		}
		if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
			return err
		}
		return s.record(ctx, customer, nil, loyalty.TransactionAdjust, req.Points, req.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loyalty points adjusted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("actor_id", actorID.String()),
		zap.Int64("points", req.Points))
	resp := ToBalanceResponse(customer)
	return &resp, nil
}

// RedemptionValue converts points to a discount at the organization's redeem rate
func (s *LoyaltyService) RedemptionValue(settings identity.OrganizationSettings, points int64) decimal.Decimal {
	return loyalty.ValueOfPoints(points, settings.LoyaltyRedeemRate)
}

// Redeem debits points spent on an order
func (s *LoyaltyService) Redeem(ctx context.Context, customer *partner.Customer, orderID uuid.UUID, orderNumber string, points int64) error {
	if err := customer.RedeemPoints(points); err != nil {
		return err
	}
	return s.record(ctx, customer, &orderID, loyalty.TransactionRedeem, -points, "Redeemed on order "+orderNumber)
}

// Restore credits back points that were redeemed on a cancelled order
func (s *LoyaltyService) Restore(ctx context.Context, customer *partner.Customer, orderID uuid.UUID, orderNumber string, points int64) error {
	if points <= 0 {
		return nil
	}
	customer.RestorePoints(points)
	// a positive REDEEM entry cancels the original redemption
	return s.record(ctx, customer, &orderID, loyalty.TransactionRedeem, points, "Redeemed points restored for order "+orderNumber)
}

// ReverseEarned takes back the given share of the points earned on an order.
// share is between 0 and 1; it returns the points removed from the balance.
func (s *LoyaltyService) ReverseEarned(ctx context.Context, customer *partner.Customer, orderID uuid.UUID, orderNumber string, share decimal.Decimal) (int64, error) {
	earned, err := s.txRepo.SumByOrder(ctx, customer.TenantID, orderID, loyalty.TransactionEarn)
	if err != nil {
		return 0, err
	}
	reversed, err := s.txRepo.SumByOrder(ctx, customer.TenantID, orderID, loyalty.TransactionReverse)
	if err != nil {
		return 0, err
	}
	if earned <= 0 {
		return 0, nil
	}

	if share.GreaterThan(decimal.NewFromInt(1)) {
		share = decimal.NewFromInt(1)
	}
	// shares come from divisions; round off the division residue before flooring
	points := decimal.NewFromInt(earned).Mul(share).Round(8).Floor().IntPart()
	// reversal entries are negative
	points = min(points, earned+reversed)
	if points <= 0 {
		return 0, nil
	}

	removed := customer.ReversePoints(points)
	if err := s.record(ctx, customer, &orderID, loyalty.TransactionReverse, -removed, "Earned points reversed for order "+orderNumber); err != nil {
		return 0, err
	}
	return removed, nil
}

// earnAttempts bounds retries when another write to the customer wins the
// version race
const earnAttempts = 3

// Earn credits points for a paid order. Repeated calls for the same order are
// no-ops. A version conflict on the customer reloads it and tries again.
func (s *LoyaltyService) Earn(ctx context.Context, tenantID, customerID, orderID uuid.UUID, orderNumber string, total decimal.Decimal) (int64, error) {
	var err error
	for attempt := 1; attempt <= earnAttempts; attempt++ {
		var points int64
		points, err = s.earnOnce(ctx, tenantID, customerID, orderID, orderNumber, total)
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return points, err
		}
		s.logger.Warn("Loyalty earn conflicted, retrying",
			zap.String("customer_id", customerID.String()),
			zap.String("order_number", orderNumber),
			zap.Int("attempt", attempt))
	}
	return 0, err
}

func (s *LoyaltyService) earnOnce(ctx context.Context, tenantID, customerID, orderID uuid.UUID, orderNumber string, total decimal.Decimal) (int64, error) {
	var points int64
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		already, err := s.txRepo.SumByOrder(ctx, tenantID, orderID, loyalty.TransactionEarn)
		if err != nil {
			return err
		}
		if already > 0 {
			return nil
		}

		settings := identity.DefaultOrganizationSettings()
		org, err := s.orgRepo.FindByID(ctx, tenantID)
		if err == nil {
			settings = org.Settings
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		points = loyalty.PointsForAmount(total, settings.LoyaltyEarnRate)
		if points <= 0 {
			return nil
		}
		customer, err := s.customerRepo.FindByID(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		if err := customer.EarnPoints(points); err != nil {
			return err
		}
		if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
			return err
		}
		return s.record(ctx, customer, &orderID, loyalty.TransactionEarn, points, "Earned on order "+orderNumber)
	})
	if err != nil {
		return 0, err
	}
	return points, nil
}

// OrderPaidHandler earns points when an order becomes paid
func (s *LoyaltyService) OrderPaidHandler() *shared.EventHandlerFunc {
	return &shared.EventHandlerFunc{
		Types: []string{trade.EventTypeOrderPaid},
		Fn: func(ctx context.Context, event shared.DomainEvent) error {
			paid, ok := event.(*trade.OrderPaidEvent)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}
			points, err := s.Earn(ctx, paid.TenantID(), paid.CustomerID, paid.AggregateID(), paid.OrderNumber, paid.TotalAmount)
			if err != nil {
				s.logger.Error("Failed to earn loyalty points",
					zap.String("order_number", paid.OrderNumber),
					zap.Error(err))
				return err
			}
			if points > 0 {
				s.logger.Info("Loyalty points earned",
					zap.String("order_number", paid.OrderNumber),
					zap.Int64("points", points))
			}
			return nil
		},
	}
}

func (s *LoyaltyService) record(ctx context.Context, customer *partner.Customer, orderID *uuid.UUID, txType loyalty.TransactionType, points int64, description string) error {
	entry := loyalty.NewTransaction(customer.TenantID, customer.ID, orderID, txType, points, customer.LoyaltyPoints, description)
	return s.txRepo.Create(ctx, entry)
}
