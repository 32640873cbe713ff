package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	inventoryapp "github.com/smartstore/backend/internal/application/inventory"
	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// Refunder pays money back for an order through its captured payments.
// Calls repeated with the same key pay out once.
type Refunder interface {
	RefundOrder(ctx context.Context, tenantID, orderID uuid.UUID, amount decimal.Decimal, reason, key string) error
}

// ReturnService handles return requests from request to refund
type ReturnService struct {
	returnRepo   trade.ReturnRequestRepository
	orderRepo    trade.OrderRepository
	customerRepo partner.CustomerRepository
	stock        StockMover
	points       PointsLedger
	refunder     Refunder
	txManager    shared.TxManager
	publisher    shared.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	returnRepo trade.ReturnRequestRepository,
	orderRepo trade.OrderRepository,
	customerRepo partner.CustomerRepository,
	stock StockMover,
	points PointsLedger,
	refunder Refunder,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ReturnService {
	return &ReturnService{
		returnRepo:   returnRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		stock:        stock,
		points:       points,
		refunder:     refunder,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// Request opens a return for a delivered order. Only one return per order
// can be open at a time.
func (s *ReturnService) Request(ctx context.Context, tenantID, orderID uuid.UUID, req CreateReturnRequest) (*ReturnResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	open, err := s.returnRepo.HasOpen(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, shared.InvalidState("Order already has an open return request")
	}

	lines := make([]trade.ReturnLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = trade.ReturnLine{OrderItemID: l.OrderItemID, Quantity: l.Quantity}
	}
	restock := true
	if req.Restock != nil {
		restock = *req.Restock
	}

	ret, err := trade.NewReturnRequest(order, lines, req.Reason, restock)
	if err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, err
	}

	s.logger.Info("Return requested",
		zap.String("order_number", order.OrderNumber),
		zap.String("return_id", ret.ID.String()),
		zap.String("refund", ret.RefundAmount.StringFixed(2)))
	resp := ToReturnResponse(ret)
	return &resp, nil
}

// GetByID returns a return request
func (s *ReturnService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToReturnResponse(ret)
	return &resp, nil
}

// ListByOrder lists the returns of an order
func (s *ReturnService) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]ReturnResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	rets, err := s.returnRepo.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]ReturnResponse, len(rets))
	for i := range rets {
		out[i] = ToReturnResponse(&rets[i])
	}
	return out, nil
}

// Approve accepts a requested return
func (s *ReturnService) Approve(ctx context.Context, tenantID, actorID, id uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ret.Approve(actorID); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, err
	}
	resp := ToReturnResponse(ret)
	return &resp, nil
}

// Reject declines a requested return
func (s *ReturnService) Reject(ctx context.Context, tenantID, actorID, id uuid.UUID, req RejectReturnRequest) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ret.Reject(actorID, req.Reason); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, err
	}
	resp := ToReturnResponse(ret)
	return &resp, nil
}

// Complete refunds an approved return through the payment gateway, then
// records the returned quantities, restocks and reverses the returned share
// of earned points. The return is claimed as REFUNDING before any money
// moves and the refund is keyed by the return, so a retry after a failure
// never pays out twice.
func (s *ReturnService) Complete(ctx context.Context, tenantID, actorID, id uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if ret.Status != trade.ReturnStatusApproved && ret.Status != trade.ReturnStatusRefunding {
		return nil, shared.InvalidState("Only approved returns can be completed")
	}

	if ret.RefundPending() {
		if s.refunder == nil {
			return nil, shared.InvalidState("Refunds are not available")
		}
		if ret.Status == trade.ReturnStatusApproved {
			if err := ret.StartRefund(); err != nil {
				return nil, err
			}
			if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
				return nil, err
			}
		}
		if err := s.payRefund(ctx, ret); err != nil {
			return nil, err
		}
	}

	var (
		order  *trade.Order
		events []shared.DomainEvent
	)
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByID(ctx, tenantID, ret.OrderID)
		if err != nil {
			return err
		}
		if err := order.ApplyReturn(ret.Lines); err != nil {
			return err
		}

		if ret.Restock {
			for _, line := range ret.Lines {
				it := order.Item(line.OrderItemID)
				_, moved, err := s.stock.Apply(ctx, tenantID, inventoryapp.MovementInput{
					WarehouseID:   order.WarehouseID,
					ProductID:     it.ProductID,
					VariantID:     it.VariantID,
					Type:          inventory.MovementReturn,
					Quantity:      line.Quantity,
					Reason:        ret.Reason,
					ReferenceType: inventory.ReferenceReturn,
					ReferenceID:   ret.ID.String(),
					CreatedBy:     actorRef(actorID),
				})
				if err != nil {
					return err
				}
				events = append(events, moved...)
			}
		}

		if order.TotalAmount.IsPositive() && ret.RefundAmount.IsPositive() {
			customer, err := s.customerRepo.FindByID(ctx, tenantID, order.CustomerID)
			if err != nil {
				return err
			}
			share := ret.RefundAmount.Div(order.TotalAmount)
			if _, err := s.points.ReverseEarned(ctx, customer, order.ID, order.OrderNumber, share); err != nil {
				return err
			}
			if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
				return err
			}
		}

		if err := ret.Complete(); err != nil {
			return err
		}
		if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
			return err
		}
		return s.orderRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		s.logger.Error("Return not completed",
			zap.String("return_id", ret.ID.String()),
			zap.String("refund", ret.RefundAmount.StringFixed(2)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Return completed",
		zap.String("order_number", order.OrderNumber),
		zap.String("return_id", ret.ID.String()),
		zap.String("order_status", string(order.Status)))

	events = append(append(ret.PullEvents(), order.PullEvents()...), events...)
	publishEvents(ctx, s.publisher, s.logger, events)
	resp := ToReturnResponse(ret)
	return &resp, nil
}

// payRefund sends the refund and records it on the return in one
// transaction. If recording fails the retry replays the same provider refund.
func (s *ReturnService) payRefund(ctx context.Context, ret *trade.ReturnRequest) error {
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.refunder.RefundOrder(ctx, ret.TenantID, ret.OrderID, ret.RefundAmount,
			"Return "+ret.ID.String(), "return-"+ret.ID.String()); err != nil {
			return err
		}
		if err := ret.MarkRefunded(s.now()); err != nil {
			return err
		}
		return s.returnRepo.SaveWithLock(ctx, ret)
	})
	if err != nil {
		s.logger.Error("Return refund failed",
			zap.String("return_id", ret.ID.String()),
			zap.String("refund", ret.RefundAmount.StringFixed(2)),
			zap.Error(err))
		return err
	}
	s.logger.Info("Return refunded",
		zap.String("return_id", ret.ID.String()),
		zap.String("refund", ret.RefundAmount.StringFixed(2)))
	return nil
}
