package trade

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// DeliveryService tracks shipments. Delivery progress drives the order status.
type DeliveryService struct {
	deliveryRepo trade.DeliveryRepository
	orderRepo    trade.OrderRepository
	txManager    shared.TxManager
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(
	deliveryRepo trade.DeliveryRepository,
	orderRepo trade.OrderRepository,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		deliveryRepo: deliveryRepo,
		orderRepo:    orderRepo,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
	}
}

// Create opens a delivery for a confirmed or processing order
func (s *DeliveryService) Create(ctx context.Context, tenantID, orderID uuid.UUID, req CreateDeliveryRequest) (*DeliveryResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	delivery, err := trade.NewDelivery(order, req.Courier, req.TrackingNumber, req.TrackingURL)
	if err != nil {
		return nil, err
	}
	if err := s.deliveryRepo.Save(ctx, delivery); err != nil {
		return nil, err
	}

	s.logger.Info("Delivery created",
		zap.String("order_number", order.OrderNumber),
		zap.String("delivery_id", delivery.ID.String()),
		zap.String("courier", delivery.Courier))
	resp := ToDeliveryResponse(delivery)
	return &resp, nil
}

// GetByID returns a delivery
func (s *DeliveryService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*DeliveryResponse, error) {
	delivery, err := s.deliveryRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToDeliveryResponse(delivery)
	return &resp, nil
}

// ListByOrder lists an order's deliveries
func (s *DeliveryService) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]DeliveryResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	deliveries, err := s.deliveryRepo.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]DeliveryResponse, len(deliveries))
	for i := range deliveries {
		out[i] = ToDeliveryResponse(&deliveries[i])
	}
	return out, nil
}

// UpdateTracking changes courier details
func (s *DeliveryService) UpdateTracking(ctx context.Context, tenantID, id uuid.UUID, req UpdateDeliveryRequest) (*DeliveryResponse, error) {
	delivery, err := s.deliveryRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	delivery.UpdateTracking(req.Courier, req.TrackingNumber, req.TrackingURL)
	if err := s.deliveryRepo.Save(ctx, delivery); err != nil {
		return nil, err
	}
	resp := ToDeliveryResponse(delivery)
	return &resp, nil
}

// UpdateStatus advances a delivery. A picked up delivery ships the order and
// a delivered one completes it, in the same transaction.
func (s *DeliveryService) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, req DeliveryStatusRequest) (*DeliveryResponse, error) {
	next, err := trade.ParseDeliveryStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var (
		delivery *trade.Delivery
		order    *trade.Order
	)
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		delivery, err = s.deliveryRepo.FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := delivery.UpdateStatus(next, req.Note); err != nil {
			return err
		}
		order, err = s.orderRepo.FindByID(ctx, tenantID, delivery.OrderID)
		if err != nil {
			return err
		}

		changed, err := syncOrderWithDelivery(order, next)
		if err != nil {
			return err
		}
		if err := s.deliveryRepo.Save(ctx, delivery); err != nil {
			return err
		}
		if changed {
			return s.orderRepo.SaveWithLock(ctx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Delivery status changed",
		zap.String("delivery_id", delivery.ID.String()),
		zap.String("status", string(delivery.Status)),
		zap.String("order_status", string(order.Status)))

	events := append(delivery.PullEvents(), order.PullEvents()...)
	publishEvents(ctx, s.publisher, s.logger, events)
	resp := ToDeliveryResponse(delivery)
	return &resp, nil
}

// orderFulfilmentPath is the order lifecycle after confirmation
var orderFulfilmentPath = []trade.OrderStatus{
	trade.OrderStatusProcessing,
	trade.OrderStatusShipped,
	trade.OrderStatusDelivered,
}

// syncOrderWithDelivery moves the order along with its shipment, one
// lifecycle step at a time
func syncOrderWithDelivery(order *trade.Order, status trade.DeliveryStatus) (bool, error) {
	var target trade.OrderStatus
	switch status {
	case trade.DeliveryStatusPickedUp, trade.DeliveryStatusInTransit, trade.DeliveryStatusOutForDelivery:
		target = trade.OrderStatusShipped
	case trade.DeliveryStatusDelivered:
		target = trade.OrderStatusDelivered
	default:
		return false, nil
	}

	changed := false
	for _, step := range orderFulfilmentPath {
		if order.Status == target {
			break
		}
		if !order.Status.CanTransitionTo(step) {
			continue
		}
		if err := order.TransitionTo(step); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}
