package trade

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
)

// OrderStatus is the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReturned   OrderStatus = "RETURNED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusReturned},
}

// CanTransitionTo reports whether the status change is allowed
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsCancellable reports whether an order in this status can still be cancelled
func (s OrderStatus) IsCancellable() bool {
	return s.CanTransitionTo(OrderStatusCancelled)
}

// ParseOrderStatus parses a status name case-insensitively
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return st, nil
	}
	return "", shared.InvalidInput("Unknown order status: " + s)
}

// PaymentStatus is the money status of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid            PaymentStatus = "UNPAID"
	PaymentStatusPaid              PaymentStatus = "PAID"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
)

// Channel is where an order was placed
type Channel string

const (
	ChannelDirect      Channel = "DIRECT"
	ChannelPortal      Channel = "PORTAL"
	ChannelWooCommerce Channel = "WOOCOMMERCE"
	ChannelWhatsApp    Channel = "WHATSAPP"
	ChannelSocial      Channel = "SOCIAL"
)

// Order is the aggregate root for a customer purchase
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber     string          `gorm:"size:50;not null;index:idx_orders_number"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_orders_customer"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null"`
	Status          OrderStatus     `gorm:"size:20;not null;index:idx_orders_status"`
	PaymentStatus   PaymentStatus   `gorm:"size:30;not null"`
	Channel         Channel         `gorm:"size:20;not null;default:'DIRECT'"`
	ExternalID      string          `gorm:"size:100;index:idx_orders_external"`
	Currency        string          `gorm:"size:3;not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LoyaltyDiscount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RefundedAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CouponID        *uuid.UUID      `gorm:"type:uuid"`
	CouponCode      string          `gorm:"size:50"`
	PointsRedeemed  int64           `gorm:"not null;default:0"`
	ShippingAddress partner.Address `gorm:"serializer:json;type:jsonb"`
	Notes           string          `gorm:"type:text"`
	CancelReason    string          `gorm:"size:500"`
	ConfirmedAt     *time.Time      `gorm:""`
	ShippedAt       *time.Time      `gorm:""`
	DeliveredAt     *time.Time      `gorm:""`
	CancelledAt     *time.Time      `gorm:""`
	PaidAt          *time.Time      `gorm:""`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line of an order. Name, SKU and price are snapshots.
type OrderItem struct {
	shared.TenantEntity
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_order_items_order"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_order_items_product"`
	VariantID        *uuid.UUID      `gorm:"type:uuid"`
	SKU              string          `gorm:"size:100;not null"`
	Name             string          `gorm:"size:300;not null"`
	Quantity         int64           `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnedQuantity int64           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOrderNumber generates an order number of the form ORD-YYYYMMDD-XXXXXX
func NewOrderNumber(now time.Time) string {
	var b strings.Builder
	b.WriteString("ORD-")
	b.WriteString(now.Format("20060102"))
	b.WriteString("-")
	limit := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			n = big.NewInt(int64(now.UnixNano()+int64(i)) % limit.Int64())
		}
		b.WriteByte(orderNumberAlphabet[n.Int64()])
	}
	return b.String()
}

// NewOrder creates an empty pending order
func NewOrder(tenantID, customerID, warehouseID uuid.UUID, currency string, channel Channel) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.InvalidInput("Customer is required")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.InvalidInput("Warehouse is required")
	}
	if len(currency) != 3 {
		return nil, shared.InvalidInput("Currency must be a 3-letter ISO code")
	}
	if channel == "" {
		channel = ChannelDirect
	}
	now := time.Now()
	return &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         NewOrderNumber(now),
		CustomerID:          customerID,
		WarehouseID:         warehouseID,
		Status:              OrderStatusPending,
		PaymentStatus:       PaymentStatusUnpaid,
		Channel:             channel,
		Currency:            strings.ToUpper(currency),
		Subtotal:            decimal.Zero,
		DiscountAmount:      decimal.Zero,
		LoyaltyDiscount:     decimal.Zero,
		TaxRate:             decimal.Zero,
		TaxAmount:           decimal.Zero,
		ShippingAmount:      decimal.Zero,
		TotalAmount:         decimal.Zero,
		PaidAmount:          decimal.Zero,
		RefundedAmount:      decimal.Zero,
		Items:               []OrderItem{},
	}, nil
}

// AddItem appends a line and recalculates totals. Lines for the same product
// and variant are merged.
func (o *Order) AddItem(productID uuid.UUID, variantID *uuid.UUID, sku, name string, quantity int64, unitPrice decimal.Decimal) error {
	if o.Status != OrderStatusPending {
		return shared.InvalidState("Items can only be added to pending orders")
	}
	if quantity <= 0 {
		return shared.InvalidInput("Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.InvalidInput("Unit price cannot be negative")
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.ProductID == productID && sameVariant(it.VariantID, variantID) {
			it.Quantity += quantity
			it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
			o.Recalculate()
			return nil
		}
	}
	o.Items = append(o.Items, OrderItem{
		TenantEntity: shared.NewTenantEntity(o.TenantID),
		OrderID:      o.ID,
		ProductID:    productID,
		VariantID:    variantID,
		SKU:          sku,
		Name:         name,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		LineTotal:    unitPrice.Mul(decimal.NewFromInt(quantity)),
	})
	o.Recalculate()
	return nil
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ApplyCoupon records a coupon discount
func (o *Order) ApplyCoupon(couponID uuid.UUID, code string, discount decimal.Decimal) error {
	if discount.IsNegative() {
		return shared.InvalidInput("Discount cannot be negative")
	}
	o.CouponID = &couponID
	o.CouponCode = code
	o.DiscountAmount = discount
	o.Recalculate()
	return nil
}

// ApplyLoyaltyRedemption records redeemed points and their value
func (o *Order) ApplyLoyaltyRedemption(points int64, value decimal.Decimal) error {
	if points < 0 || value.IsNegative() {
		return shared.InvalidInput("Redeemed points cannot be negative")
	}
	o.PointsRedeemed = points
	o.LoyaltyDiscount = value
	o.Recalculate()
	return nil
}

// SetCharges sets the tax rate and shipping amount
func (o *Order) SetCharges(taxRate, shipping decimal.Decimal) error {
	if taxRate.IsNegative() || shipping.IsNegative() {
		return shared.InvalidInput("Tax and shipping cannot be negative")
	}
	o.TaxRate = taxRate
	o.ShippingAmount = shipping
	o.Recalculate()
	return nil
}

// Recalculate derives subtotal, tax and total from items and adjustments.
// Discounts never take the taxable amount below zero.
func (o *Order) Recalculate() {
	subtotal := decimal.Zero
	for _, it := range o.Items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	o.Subtotal = subtotal

	if o.DiscountAmount.GreaterThan(subtotal) {
		o.DiscountAmount = subtotal
	}
	taxable := subtotal.Sub(o.DiscountAmount)
	if o.LoyaltyDiscount.GreaterThan(taxable) {
		o.LoyaltyDiscount = taxable
	}
	taxable = taxable.Sub(o.LoyaltyDiscount)

	o.TaxAmount = taxable.Mul(o.TaxRate).Round(2)
	o.TotalAmount = taxable.Add(o.TaxAmount).Add(o.ShippingAmount).Round(2)
	o.UpdatedAt = time.Now()
}

// DiscountableAmount is the subtotal after coupon discount, before loyalty redemption
func (o *Order) DiscountableAmount() decimal.Decimal {
	return o.Subtotal.Sub(o.DiscountAmount)
}

// Place finalises a new order and raises OrderCreated
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.InvalidInput("Order must contain at least one item")
	}
	o.Record(NewOrderCreatedEvent(o))
	return nil
}

// TransitionTo moves the order to a new fulfilment status
func (o *Order) TransitionTo(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return shared.InvalidState("Cannot change order status from " + string(o.Status) + " to " + string(next))
	}
	prev := o.Status
	now := time.Now()
	o.Status = next
	o.UpdatedAt = now
	switch next {
	case OrderStatusConfirmed:
		o.ConfirmedAt = &now
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
	}
	o.Record(NewOrderStatusChangedEvent(o, prev))
	return nil
}

// Cancel cancels the order. Stock, coupon and loyalty reversal are done by the caller.
func (o *Order) Cancel(reason string) error {
	if !o.Status.IsCancellable() {
		return shared.InvalidState("Order cannot be cancelled in status " + string(o.Status))
	}
	if err := o.TransitionTo(OrderStatusCancelled); err != nil {
		return err
	}
	o.CancelReason = reason
	o.Record(NewOrderCancelledEvent(o))
	return nil
}

// BalanceDue returns the amount still to be paid
func (o *Order) BalanceDue() decimal.Decimal {
	due := o.TotalAmount.Sub(o.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// RefundableAmount returns the paid amount not yet refunded
func (o *Order) RefundableAmount() decimal.Decimal {
	return o.PaidAmount.Sub(o.RefundedAmount)
}

// RecordPayment registers a captured payment. A pending order that becomes
// fully paid is confirmed and raises OrderPaid.
func (o *Order) RecordPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.InvalidInput("Payment amount must be positive")
	}
	if o.Status == OrderStatusCancelled {
		return shared.InvalidState("Cannot record payment for a cancelled order")
	}
	wasPaid := o.PaymentStatus == PaymentStatusPaid
	o.PaidAmount = o.PaidAmount.Add(amount)
	o.UpdatedAt = time.Now()
	if !wasPaid && o.PaidAmount.GreaterThanOrEqual(o.TotalAmount) {
		now := time.Now()
		o.PaymentStatus = PaymentStatusPaid
		o.PaidAt = &now
		if o.Status == OrderStatusPending {
			if err := o.TransitionTo(OrderStatusConfirmed); err != nil {
				return err
			}
		}
		o.Record(NewOrderPaidEvent(o))
	}
	return nil
}

// RecordRefund registers a refunded amount
func (o *Order) RecordRefund(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.InvalidInput("Refund amount must be positive")
	}
	if amount.GreaterThan(o.RefundableAmount()) {
		return shared.InvalidInput("Refund exceeds the refundable amount")
	}
	o.RefundedAmount = o.RefundedAmount.Add(amount)
	if o.RefundedAmount.GreaterThanOrEqual(o.PaidAmount) {
		o.PaymentStatus = PaymentStatusRefunded
	} else {
		o.PaymentStatus = PaymentStatusPartiallyRefunded
	}
	o.UpdatedAt = time.Now()
	return nil
}

// Item returns the order item with the given ID or nil
func (o *Order) Item(itemID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// ApplyReturn records returned quantities. When every item has been fully
// returned the order moves to RETURNED.
func (o *Order) ApplyReturn(lines []ReturnLine) error {
	for _, l := range lines {
		it := o.Item(l.OrderItemID)
		if it == nil {
			return shared.NotFound("Order item")
		}
		if l.Quantity > it.Quantity-it.ReturnedQuantity {
			return shared.InvalidInput("Return quantity exceeds purchased quantity for " + it.SKU)
		}
	}
	for _, l := range lines {
		it := o.Item(l.OrderItemID)
		it.ReturnedQuantity += l.Quantity
	}
	o.UpdatedAt = time.Now()
	if o.fullyReturned() && o.Status == OrderStatusDelivered {
		return o.TransitionTo(OrderStatusReturned)
	}
	return nil
}

func (o *Order) fullyReturned() bool {
	for _, it := range o.Items {
		if it.ReturnedQuantity < it.Quantity {
			return false
		}
	}
	return len(o.Items) > 0
}

// ItemCount returns the total number of units ordered
func (o *Order) ItemCount() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
