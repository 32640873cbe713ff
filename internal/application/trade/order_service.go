package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	inventoryapp "github.com/smartstore/backend/internal/application/inventory"
	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/marketing"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// StockMover applies stock movements inside the caller's transaction
type StockMover interface {
	Apply(ctx context.Context, tenantID uuid.UUID, in inventoryapp.MovementInput) (*inventoryapp.MovementResult, []shared.DomainEvent, error)
	DefaultWarehouse(ctx context.Context, tenantID uuid.UUID) (uuid.UUID, error)
}

// PointsLedger books loyalty points against orders
type PointsLedger interface {
	RedemptionValue(settings identity.OrganizationSettings, points int64) decimal.Decimal
	Redeem(ctx context.Context, customer *partner.Customer, orderID uuid.UUID, orderNumber string, points int64) error
	Restore(ctx context.Context, customer *partner.Customer, orderID uuid.UUID, orderNumber string, points int64) error
	ReverseEarned(ctx context.Context, customer *partner.Customer, orderID uuid.UUID, orderNumber string, share decimal.Decimal) (int64, error)
}

// OrderService places orders and drives their lifecycle
type OrderService struct {
	orderRepo    trade.OrderRepository
	customerRepo partner.CustomerRepository
	productRepo  catalog.ProductRepository
	couponRepo   marketing.CouponRepository
	orgRepo      identity.OrganizationRepository
	stock        StockMover
	points       PointsLedger
	txManager    shared.TxManager
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo trade.OrderRepository,
	customerRepo partner.CustomerRepository,
	productRepo catalog.ProductRepository,
	couponRepo marketing.CouponRepository,
	orgRepo identity.OrganizationRepository,
	stock StockMover,
	points PointsLedger,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		couponRepo:   couponRepo,
		orgRepo:      orgRepo,
		stock:        stock,
		points:       points,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
	}
}

// Create places an order. Prices come from the catalog, stock is deducted
// from the warehouse and the coupon and points are consumed atomically.
func (s *OrderService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	var (
		order  *trade.Order
		events []shared.DomainEvent
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		settings, err := orgSettings(ctx, s.orgRepo, tenantID)
		if err != nil {
			return err
		}
		customer, err := s.customerRepo.FindByID(ctx, tenantID, req.CustomerID)
		if err != nil {
			return err
		}
		warehouseID, err := s.warehouse(ctx, tenantID, req.WarehouseID)
		if err != nil {
			return err
		}

		order, err = trade.NewOrder(tenantID, customer.ID, warehouseID, settings.Currency, trade.Channel(req.Channel))
		if err != nil {
			return err
		}
		order.SetCreatedBy(actorID)
		order.Notes = req.Notes
		order.ExternalID = req.ExternalID
		if req.ShippingAddress != nil {
			order.ShippingAddress = req.ShippingAddress.toDomain()
		} else {
			order.ShippingAddress = customer.DefaultAddress()
		}

		if err := s.addItems(ctx, order, req.Items); err != nil {
			return err
		}

		shipping := settings.ShippingFee
		if req.CouponCode != "" {
			if shipping, err = s.applyCoupon(ctx, order, req.CouponCode, shipping); err != nil {
				return err
			}
		}
		if err := order.SetCharges(settings.TaxRate, shipping); err != nil {
			return err
		}

		if req.RedeemPoints > 0 {
			value := s.points.RedemptionValue(settings, req.RedeemPoints)
			if value.GreaterThan(order.DiscountableAmount()) {
				return shared.InvalidInput("Redeemed points exceed the order value")
			}
			if err := s.points.Redeem(ctx, customer, order.ID, order.OrderNumber, req.RedeemPoints); err != nil {
				return err
			}
			if err := order.ApplyLoyaltyRedemption(req.RedeemPoints, value); err != nil {
				return err
			}
		}

		if err := order.Place(); err != nil {
			return err
		}
		customer.RecordOrder(order.TotalAmount, time.Now())
		if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
			return err
		}
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}

		stockEvents, err := s.moveStock(ctx, order, inventory.MovementSale, actorID, "")
		if err != nil {
			return err
		}
		events = stockEvents
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("channel", string(order.Channel)),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	s.publish(ctx, order, events)
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) addItems(ctx context.Context, order *trade.Order, lines []OrderItemRequest) error {
	if len(lines) == 0 {
		return shared.InvalidInput("Order must contain at least one item")
	}
	for _, line := range lines {
		product, err := s.productRepo.FindByID(ctx, order.TenantID, line.ProductID)
		if err != nil {
			return err
		}
		if !product.IsSellable() {
			return shared.InvalidState("Product " + product.SKU + " is not available for sale")
		}
		price, err := product.Resolve(line.VariantID)
		if err != nil {
			return err
		}
		if err := order.AddItem(product.ID, line.VariantID, price.SKU, price.Name, line.Quantity, price.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

// applyCoupon applies the coupon discount, consumes one use and returns the
// shipping fee to charge
func (s *OrderService) applyCoupon(ctx context.Context, order *trade.Order, code string, shipping decimal.Decimal) (decimal.Decimal, error) {
	coupon, err := s.couponRepo.FindByCode(ctx, order.TenantID, marketing.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shipping, shared.InvalidInput("Unknown coupon code " + code)
		}
		return shipping, err
	}

	discount, err := coupon.Discount(order.Subtotal, shipping, time.Now())
	if err != nil {
		return shipping, err
	}
	if coupon.IsFreeShipping() {
		shipping = decimal.Zero
		discount = decimal.Zero
	}
	if err := order.ApplyCoupon(coupon.ID, coupon.Code, discount); err != nil {
		return shipping, err
	}
	if err := s.couponRepo.IncrementUsage(ctx, order.TenantID, coupon.ID); err != nil {
		return shipping, err
	}
	return shipping, nil
}

// moveStock records one movement per order line
func (s *OrderService) moveStock(ctx context.Context, order *trade.Order, movementType inventory.MovementType, actorID uuid.UUID, reason string) ([]shared.DomainEvent, error) {
	var events []shared.DomainEvent
	for _, it := range order.Items {
		qty := it.Quantity - it.ReturnedQuantity
		if qty <= 0 {
			continue
		}
		_, moved, err := s.stock.Apply(ctx, order.TenantID, inventoryapp.MovementInput{
			WarehouseID:   order.WarehouseID,
			ProductID:     it.ProductID,
			VariantID:     it.VariantID,
			Type:          movementType,
			Quantity:      qty,
			Reason:        reason,
			ReferenceType: inventory.ReferenceOrder,
			ReferenceID:   order.ID.String(),
			CreatedBy:     actorRef(actorID),
		})
		if err != nil {
			if errors.Is(err, shared.ErrInsufficientStock) {
				return nil, shared.NewDomainError(shared.CodeInsufficientStock, "Insufficient stock for "+it.SKU)
			}
			return nil, err
		}
		events = append(events, moved...)
	}
	return events, nil
}

func (s *OrderService) warehouse(ctx context.Context, tenantID uuid.UUID, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil {
		return *requested, nil
	}
	return s.stock.DefaultWarehouse(ctx, tenantID)
}

// GetByID returns an order with its items
func (s *OrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// List lists orders
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		f = f.With("status", filter.Status)
	}
	if filter.PaymentStatus != "" {
		f = f.With("payment_status", filter.PaymentStatus)
	}
	if filter.Channel != "" {
		f = f.With("channel", filter.Channel)
	}
	if filter.CustomerID != nil {
		f = f.With("customer_id", *filter.CustomerID)
	}
	if filter.From != nil {
		f = f.With("from", *filter.From)
	}
	if filter.To != nil {
		f = f.With("to", endOfDay(*filter.To))
	}

	orders, total, err := s.orderRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// ListByCustomer lists a customer's orders
func (s *OrderService) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	if _, err := s.customerRepo.FindByID(ctx, tenantID, customerID); err != nil {
		return nil, err
	}
	filter.CustomerID = &customerID
	return s.List(ctx, tenantID, filter)
}

// UpdateStatus moves an order to the requested status. Cancellation goes
// through Cancel; RETURNED is only reached through return requests.
func (s *OrderService) UpdateStatus(ctx context.Context, tenantID, actorID, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	next, err := trade.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}
	switch next {
	case trade.OrderStatusCancelled:
		return s.Cancel(ctx, tenantID, actorID, orderID, CancelOrderRequest{Reason: req.Reason})
	case trade.OrderStatusReturned:
		return nil, shared.InvalidState("Orders become RETURNED through completed return requests")
	}

	var order *trade.Order
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		order, err = s.orderRepo.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.TransitionTo(next); err != nil {
			return err
		}
		return s.orderRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)))
	s.publish(ctx, order, nil)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Cancel cancels an order, restocks its items, gives back redeemed points,
// takes back earned points and releases the coupon use
func (s *OrderService) Cancel(ctx context.Context, tenantID, actorID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	var (
		order  *trade.Order
		events []shared.DomainEvent
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(req.Reason); err != nil {
			return err
		}

		events, err = s.moveStock(ctx, order, inventory.MovementReturn, actorID, "Order cancelled")
		if err != nil {
			return err
		}

		customer, err := s.customerRepo.FindByID(ctx, tenantID, order.CustomerID)
		if err != nil {
			return err
		}
		if err := s.points.Restore(ctx, customer, order.ID, order.OrderNumber, order.PointsRedeemed); err != nil {
			return err
		}
		if _, err := s.points.ReverseEarned(ctx, customer, order.ID, order.OrderNumber, decimal.NewFromInt(1)); err != nil {
			return err
		}
		if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
			return err
		}

		if order.CouponID != nil {
			if err := s.couponRepo.DecrementUsage(ctx, tenantID, *order.CouponID); err != nil {
				return err
			}
		}
		return s.orderRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", order.CancelReason))
	s.publish(ctx, order, events)
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) publish(ctx context.Context, order *trade.Order, extra []shared.DomainEvent) {
	publishEvents(ctx, s.publisher, s.logger, append(order.PullEvents(), extra...))
}

func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if len(events) == 0 || publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish events", zap.Error(err))
	}
}

func orgSettings(ctx context.Context, orgRepo identity.OrganizationRepository, tenantID uuid.UUID) (identity.OrganizationSettings, error) {
	org, err := orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return identity.OrganizationSettings{}, err
	}
	return org.Settings, nil
}

func actorRef(actorID uuid.UUID) *uuid.UUID {
	if actorID == uuid.Nil {
		return nil
	}
	return &actorID
}

func endOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
