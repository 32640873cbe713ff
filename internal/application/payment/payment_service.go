package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/partner"
	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// PointsReverser takes back loyalty points earned on refunded orders
type PointsReverser interface {
	ReverseEarned(ctx context.Context, customer *partner.Customer, orderID uuid.UUID, orderNumber string, share decimal.Decimal) (int64, error)
}

// PaymentService collects and refunds money for orders through the
// configured gateways and keeps the order's payment state in step
type PaymentService struct {
	paymentRepo  paydomain.PaymentRepository
	orderRepo    trade.OrderRepository
	customerRepo partner.CustomerRepository
	gateways     map[paydomain.Provider]paydomain.Gateway
	points       PointsReverser
	txManager    shared.TxManager
	publisher    shared.EventPublisher
	baseURL      string
	logger       *zap.Logger
}

// PaymentServiceConfig contains the dependencies of PaymentService
type PaymentServiceConfig struct {
	PaymentRepo  paydomain.PaymentRepository
	OrderRepo    trade.OrderRepository
	CustomerRepo partner.CustomerRepository
	Gateways     map[paydomain.Provider]paydomain.Gateway
	Points       PointsReverser
	TxManager    shared.TxManager
	Publisher    shared.EventPublisher
	// BaseURL is where PayPal sends the buyer back after approval
	BaseURL string
	Logger  *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	return &PaymentService{
		paymentRepo:  cfg.PaymentRepo,
		orderRepo:    cfg.OrderRepo,
		customerRepo: cfg.CustomerRepo,
		gateways:     cfg.Gateways,
		points:       cfg.Points,
		txManager:    cfg.TxManager,
		publisher:    cfg.Publisher,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		logger:       cfg.Logger,
	}
}

// Create opens a payment at the provider. Manual payments stay pending
// until captured; card payments complete through the provider webhook.
func (s *PaymentService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error) {
	provider, err := paydomain.ParseProvider(req.Provider)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, tenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == trade.OrderStatusCancelled {
		return nil, shared.InvalidState("Cannot pay for a cancelled order")
	}
	due := order.BalanceDue()
	if !due.IsPositive() {
		return nil, shared.InvalidState("Order is already paid")
	}
	amount := due
	if req.Amount != nil {
		if req.Amount.GreaterThan(due) {
			return nil, shared.InvalidInput("Payment exceeds the balance due of " + paydomain.FormatAmount(due, order.Currency))
		}
		amount = *req.Amount
	}

	p, err := paydomain.NewPayment(tenantID, order.ID, provider, amount, order.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	email := ""
	if customer, err := s.customerRepo.FindByID(ctx, tenantID, order.CustomerID); err == nil {
		email = customer.Email
	}
	result, err := gw.CreateCharge(ctx, paydomain.ChargeRequest{
		PaymentID:     p.ID,
		TenantID:      tenantID,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Amount:        amount,
		Currency:      order.Currency,
		CustomerEmail: email,
		Description:   "Order " + order.OrderNumber,
		ReturnURL:     s.baseURL + "/orders/" + order.ID.String() + "?payment=" + p.ID.String(),
		CancelURL:     s.baseURL + "/orders/" + order.ID.String() + "?payment_cancelled=" + p.ID.String(),
	})
	if err != nil {
		s.logger.Error("Failed to create charge",
			zap.String("provider", string(provider)),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
		if markErr := p.MarkFailed(err.Error()); markErr == nil {
			if saveErr := s.paymentRepo.Save(ctx, p); saveErr != nil {
				s.logger.Error("Failed to save failed payment", zap.Error(saveErr))
			}
		}
		return nil, err
	}

	p.AttachProvider(result.ProviderRef, result.ApprovalURL, result.ClientSecret)
	if err := s.apply(ctx, p, result.Status, result.FailureReason); err != nil {
		return nil, err
	}

	s.logger.Info("Payment created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", p.ID.String()),
		zap.String("provider", string(provider)),
		zap.String("status", string(p.Status)),
		zap.String("amount", amount.StringFixed(2)))
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// GetByID returns a payment
func (s *PaymentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// ListByOrder lists the payments of an order
func (s *PaymentService) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]PaymentResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out, nil
}

// Capture completes an approved PayPal order or confirms a manual collection
func (s *PaymentService) Capture(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != paydomain.StatusPending {
		return nil, shared.InvalidState("Only pending payments can be captured")
	}
	gw, err := s.gateway(p.Provider)
	if err != nil {
		return nil, err
	}

	result, err := gw.Capture(ctx, p.ProviderRef)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, result.Status, result.FailureReason); err != nil {
		return nil, err
	}

	s.logger.Info("Payment captured",
		zap.String("payment_id", p.ID.String()),
		zap.String("status", string(p.Status)))
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// Refund returns money from a captured payment and takes back the refunded
// share of the loyalty points earned on the order
func (s *PaymentService) Refund(ctx context.Context, tenantID, id uuid.UUID, req RefundRequest) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	amount := p.Refundable()
	if req.Amount != nil {
		amount = *req.Amount
	}
	if err := p.ValidateRefund(amount); err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = "refund-" + uuid.NewString()
	}
	p, err = s.refund(ctx, p, amount, req.Reason, key, true)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// RefundOrder refunds an amount across the order's captured payments,
// oldest first. Each provider refund is keyed by key and the payment, so a
// retry with the same key does not pay out twice. Loyalty reversal is left
// to the caller.
func (s *PaymentService) RefundOrder(ctx context.Context, tenantID, orderID uuid.UUID, amount decimal.Decimal, reason, key string) error {
	if !amount.IsPositive() {
		return shared.InvalidInput("Refund amount must be positive")
	}
	payments, err := s.paymentRepo.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	available := decimal.Zero
	for i := range payments {
		available = available.Add(payments[i].Refundable())
	}
	if available.LessThan(amount) {
		return shared.InvalidState("Captured payments do not cover a refund of " + amount.StringFixed(2))
	}

	remaining := amount
	for i := range payments {
		p := &payments[i]
		if !remaining.IsPositive() {
			break
		}
		refundable := p.Refundable()
		if !refundable.IsPositive() {
			continue
		}
		portion := decimal.Min(remaining, refundable)
		if _, err := s.refund(ctx, p, portion, reason, key+":"+p.ID.String(), false); err != nil {
			return err
		}
		remaining = remaining.Sub(portion)
	}
	return nil
}

// ApplyWebhookEvent updates the payment and order a verified provider
// notification refers to. Unknown payments are skipped.
func (s *PaymentService) ApplyWebhookEvent(ctx context.Context, ev *paydomain.WebhookEvent) error {
	if ev.Kind == paydomain.WebhookIgnored {
		return nil
	}
	p, err := s.paymentRepo.FindByProviderRef(ctx, ev.Provider, ev.ProviderRef)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Webhook for unknown payment",
				zap.String("provider", string(ev.Provider)),
				zap.String("provider_ref", ev.ProviderRef),
				zap.String("event_type", ev.RawType))
			return nil
		}
		return err
	}

	switch ev.Kind {
	case paydomain.WebhookPaymentSucceeded:
		return s.settle(ctx, p)
	case paydomain.WebhookPaymentFailed:
		if p.Status != paydomain.StatusPending {
			return nil
		}
		if err := p.MarkFailed(ev.FailureReason); err != nil {
			return err
		}
		s.logger.Warn("Payment failed",
			zap.String("payment_id", p.ID.String()),
			zap.String("reason", ev.FailureReason))
		return s.paymentRepo.Save(ctx, p)
	case paydomain.WebhookRefunded:
		return s.syncRefund(ctx, p, ev.RefundedTotal)
	}
	return nil
}

// apply stores the provider's verdict on a payment
func (s *PaymentService) apply(ctx context.Context, p *paydomain.Payment, status paydomain.Status, reason string) error {
	switch status {
	case paydomain.StatusSucceeded:
		return s.settle(ctx, p)
	case paydomain.StatusFailed:
		if err := p.MarkFailed(reason); err != nil {
			return err
		}
	}
	return s.paymentRepo.Save(ctx, p)
}

// settle marks the payment succeeded and credits the order. Repeated
// notifications for the same payment do nothing.
func (s *PaymentService) settle(ctx context.Context, p *paydomain.Payment) error {
	var order *trade.Order
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		changed, err := p.MarkSucceeded()
		if err != nil {
			return err
		}
		if !changed {
			return s.paymentRepo.Save(ctx, p)
		}
		if err := s.paymentRepo.Save(ctx, p); err != nil {
			return err
		}

		order, err = s.orderRepo.FindByID(ctx, p.TenantID, p.OrderID)
		if err != nil {
			return err
		}
		if err := order.RecordPayment(p.Amount); err != nil {
			if errors.Is(err, shared.ErrInvalidState) {
				// money arrived for a cancelled order; it has to be refunded by hand
				s.logger.Warn("Payment captured for a cancelled order",
					zap.String("payment_id", p.ID.String()),
					zap.String("order_number", order.OrderNumber))
				order = nil
				return nil
			}
			return err
		}
		return s.orderRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		return err
	}
	if order != nil {
		s.logger.Info("Order payment recorded",
			zap.String("order_number", order.OrderNumber),
			zap.String("payment_status", string(order.PaymentStatus)),
			zap.String("paid", order.PaidAmount.StringFixed(2)))
		s.publish(ctx, order)
	}
	return nil
}

// refund pays money back through the gateway and books it. The booking
// reconciles against the cumulative refunded total, so a provider webhook
// recorded in the meantime is not counted twice.
func (s *PaymentService) refund(ctx context.Context, p *paydomain.Payment, amount decimal.Decimal, reason, key string, reversePoints bool) (*paydomain.Payment, error) {
	gw, err := s.gateway(p.Provider)
	if err != nil {
		return nil, err
	}
	result, err := gw.Refund(ctx, paydomain.RefundRequest{
		ProviderRef:    p.ProviderRef,
		Amount:         amount,
		Currency:       p.Currency,
		IdempotencyKey: key,
	})
	if err != nil {
		s.logger.Error("Provider refund failed",
			zap.String("payment_id", p.ID.String()),
			zap.String("amount", amount.StringFixed(2)),
			zap.Error(err))
		return nil, err
	}
	total := result.RefundedTotal
	if !total.IsPositive() {
		total = p.RefundedAmount.Add(amount)
	}

	var order *trade.Order
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		fresh, err := s.paymentRepo.FindByID(ctx, p.TenantID, p.ID)
		if err != nil {
			return err
		}
		p = fresh
		delta, err := fresh.SyncRefundedTotal(total)
		if err != nil {
			return err
		}
		if delta.IsZero() {
			return nil
		}
		if err := s.paymentRepo.Save(ctx, fresh); err != nil {
			return err
		}
		order, err = s.creditRefund(ctx, fresh, delta, reversePoints)
		return err
	})
	if err != nil {
		s.logger.Error("Refund issued but not recorded",
			zap.String("payment_id", p.ID.String()),
			zap.String("refund_ref", result.RefundRef),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Payment refunded",
		zap.String("payment_id", p.ID.String()),
		zap.String("refund_ref", result.RefundRef),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("refunded_total", p.RefundedAmount.StringFixed(2)),
		zap.String("reason", reason))
	if order != nil {
		s.publish(ctx, order)
	}
	return p, nil
}

// syncRefund applies a provider-reported cumulative refund total
func (s *PaymentService) syncRefund(ctx context.Context, p *paydomain.Payment, total decimal.Decimal) error {
	var order *trade.Order
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		delta, err := p.SyncRefundedTotal(total)
		if err != nil {
			return err
		}
		if delta.IsZero() {
			return nil
		}
		if err := s.paymentRepo.Save(ctx, p); err != nil {
			return err
		}
		order, err = s.creditRefund(ctx, p, delta, true)
		return err
	})
	if err != nil {
		return err
	}
	if order != nil {
		s.logger.Info("Refund synced from provider",
			zap.String("payment_id", p.ID.String()),
			zap.String("refunded", p.RefundedAmount.StringFixed(2)))
		s.publish(ctx, order)
	}
	return nil
}

// creditRefund books a refund on the order inside the caller's transaction
func (s *PaymentService) creditRefund(ctx context.Context, p *paydomain.Payment, amount decimal.Decimal, reversePoints bool) (*trade.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, p.TenantID, p.OrderID)
	if err != nil {
		return nil, err
	}
	amount = decimal.Min(amount, order.RefundableAmount())
	if !amount.IsPositive() {
		return nil, nil
	}
	if err := order.RecordRefund(amount); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	if reversePoints && s.points != nil && order.TotalAmount.IsPositive() {
		customer, err := s.customerRepo.FindByID(ctx, order.TenantID, order.CustomerID)
		if err != nil {
			return nil, err
		}
		removed, err := s.points.ReverseEarned(ctx, customer, order.ID, order.OrderNumber, amount.Div(order.TotalAmount))
		if err != nil {
			return nil, err
		}
		if removed > 0 {
			if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

func (s *PaymentService) gateway(provider paydomain.Provider) (paydomain.Gateway, error) {
	gw, ok := s.gateways[provider]
	if !ok {
		return nil, shared.InvalidInput("Payment provider " + string(provider) + " is not configured")
	}
	return gw, nil
}

func (s *PaymentService) publish(ctx context.Context, order *trade.Order) {
	events := order.PullEvents()
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish events", zap.Error(err))
	}
}
