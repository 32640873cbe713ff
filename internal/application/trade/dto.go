package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/trade"
)

// OrderItemRequest is one requested line
type OrderItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int64      `json:"quantity" binding:"required,min=1"`
}

// ShippingAddress is a delivery address in requests and responses
type ShippingAddress struct {
	Line1      string `json:"line1" binding:"max=200"`
	Line2      string `json:"line2,omitempty" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state,omitempty" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=2"`
}

func (a ShippingAddress) toDomain() partner.Address {
	return partner.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toShippingAddress(a partner.Address) ShippingAddress {
	return ShippingAddress{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// CreateOrderRequest places an order. The shipping address defaults to the
// customer's default address and the warehouse to the tenant default.
type CreateOrderRequest struct {
	CustomerID      uuid.UUID          `json:"customer_id" binding:"required"`
	WarehouseID     *uuid.UUID         `json:"warehouse_id"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	CouponCode      string             `json:"coupon_code" binding:"max=50"`
	RedeemPoints    int64              `json:"redeem_points" binding:"min=0"`
	ShippingAddress *ShippingAddress   `json:"shipping_address"`
	Notes           string             `json:"notes" binding:"max=2000"`
	Channel         string             `json:"channel" binding:"omitempty,oneof=DIRECT PORTAL WOOCOMMERCE WHATSAPP SOCIAL"`
	ExternalID      string             `json:"-"`
}

// UpdateStatusRequest moves an order through its lifecycle
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CONFIRMED PROCESSING SHIPPED DELIVERED CANCELLED"`
	Reason string `json:"reason" binding:"max=500"`
}

// CancelOrderRequest cancels an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter filters the order list
type OrderListFilter struct {
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search        string     `form:"search" binding:"max=100"`
	OrderBy       string     `form:"order_by" binding:"omitempty,oneof=order_number total_amount status created_at updated_at"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status        string     `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED PROCESSING SHIPPED DELIVERED CANCELLED RETURNED"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=UNPAID PAID PARTIALLY_REFUNDED REFUNDED"`
	Channel       string     `form:"channel" binding:"omitempty,oneof=DIRECT PORTAL WOOCOMMERCE WHATSAPP SOCIAL"`
	CustomerID    *uuid.UUID `form:"customer_id"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
}

// OrderItemResponse is an order line in API responses
type OrderItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	VariantID        *uuid.UUID      `json:"variant_id,omitempty"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	Quantity         int64           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	LineTotal        decimal.Decimal `json:"line_total"`
	ReturnedQuantity int64           `json:"returned_quantity"`
}

// OrderResponse is an order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	WarehouseID     uuid.UUID           `json:"warehouse_id"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	Channel         string              `json:"channel"`
	ExternalID      string              `json:"external_id,omitempty"`
	Currency        string              `json:"currency"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	LoyaltyDiscount decimal.Decimal     `json:"loyalty_discount"`
	TaxRate         decimal.Decimal     `json:"tax_rate"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	ShippingAmount  decimal.Decimal     `json:"shipping_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	PaidAmount      decimal.Decimal     `json:"paid_amount"`
	RefundedAmount  decimal.Decimal     `json:"refunded_amount"`
	CouponCode      string              `json:"coupon_code,omitempty"`
	PointsRedeemed  int64               `json:"points_redeemed"`
	ShippingAddress ShippingAddress     `json:"shipping_address"`
	Notes           string              `json:"notes,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ToOrderResponse converts an order
func ToOrderResponse(o *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			VariantID:        it.VariantID,
			SKU:              it.SKU,
			Name:             it.Name,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			LineTotal:        it.LineTotal,
			ReturnedQuantity: it.ReturnedQuantity,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		WarehouseID:     o.WarehouseID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Channel:         string(o.Channel),
		ExternalID:      o.ExternalID,
		Currency:        o.Currency,
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		LoyaltyDiscount: o.LoyaltyDiscount,
		TaxRate:         o.TaxRate,
		TaxAmount:       o.TaxAmount,
		ShippingAmount:  o.ShippingAmount,
		TotalAmount:     o.TotalAmount,
		PaidAmount:      o.PaidAmount,
		RefundedAmount:  o.RefundedAmount,
		CouponCode:      o.CouponCode,
		PointsRedeemed:  o.PointsRedeemed,
		ShippingAddress: toShippingAddress(o.ShippingAddress),
		Notes:           o.Notes,
		CancelReason:    o.CancelReason,
		Items:           items,
		ConfirmedAt:     o.ConfirmedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		PaidAt:          o.PaidAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// CreateReturnRequest asks to return items of a delivered order
type CreateReturnRequest struct {
	Lines   []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
	Reason  string              `json:"reason" binding:"required,min=1,max=500"`
	Restock *bool               `json:"restock"`
}

// ReturnLineRequest is a quantity of one order item
type ReturnLineRequest struct {
	OrderItemID uuid.UUID `json:"order_item_id" binding:"required"`
	Quantity    int64     `json:"quantity" binding:"required,min=1"`
}

// RejectReturnRequest declines a return
type RejectReturnRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ReturnResponse is a return request in API responses
type ReturnResponse struct {
	ID           uuid.UUID          `json:"id"`
	OrderID      uuid.UUID          `json:"order_id"`
	CustomerID   uuid.UUID          `json:"customer_id"`
	Status       string             `json:"status"`
	Reason       string             `json:"reason"`
	Lines        []trade.ReturnLine `json:"lines"`
	RefundAmount decimal.Decimal    `json:"refund_amount"`
	Restock      bool               `json:"restock"`
	RejectReason string             `json:"reject_reason,omitempty"`
	ReviewedBy   *uuid.UUID         `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time         `json:"reviewed_at,omitempty"`
	RefundedAt   *time.Time         `json:"refunded_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ToReturnResponse converts a return request
func ToReturnResponse(r *trade.ReturnRequest) ReturnResponse {
	return ReturnResponse{
		ID:           r.ID,
		OrderID:      r.OrderID,
		CustomerID:   r.CustomerID,
		Status:       string(r.Status),
		Reason:       r.Reason,
		Lines:        r.Lines,
		RefundAmount: r.RefundAmount,
		Restock:      r.Restock,
		RejectReason: r.RejectReason,
		ReviewedBy:   r.ReviewedBy,
		ReviewedAt:   r.ReviewedAt,
		RefundedAt:   r.RefundedAt,
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
	}
}

// CreateDeliveryRequest opens a shipment for an order
type CreateDeliveryRequest struct {
	Courier        string `json:"courier" binding:"max=100"`
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
	TrackingURL    string `json:"tracking_url" binding:"omitempty,url,max=500"`
}

// UpdateDeliveryRequest changes tracking details
type UpdateDeliveryRequest struct {
	Courier        string `json:"courier" binding:"max=100"`
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
	TrackingURL    string `json:"tracking_url" binding:"omitempty,url,max=500"`
}

// DeliveryStatusRequest advances a delivery
type DeliveryStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING PICKED_UP IN_TRANSIT OUT_FOR_DELIVERY DELIVERED FAILED"`
	Note   string `json:"note" binding:"max=500"`
}

// DeliveryResponse is a delivery in API responses
type DeliveryResponse struct {
	ID             uuid.UUID             `json:"id"`
	OrderID        uuid.UUID             `json:"order_id"`
	Status         string                `json:"status"`
	Courier        string                `json:"courier,omitempty"`
	TrackingNumber string                `json:"tracking_number,omitempty"`
	TrackingURL    string                `json:"tracking_url,omitempty"`
	Address        ShippingAddress       `json:"address"`
	FailureReason  string                `json:"failure_reason,omitempty"`
	History        []trade.TrackingEvent `json:"history"`
	ShippedAt      *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time            `json:"delivered_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ToDeliveryResponse converts a delivery
func ToDeliveryResponse(d *trade.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:             d.ID,
		OrderID:        d.OrderID,
		Status:         string(d.Status),
		Courier:        d.Courier,
		TrackingNumber: d.TrackingNumber,
		TrackingURL:    d.TrackingURL,
		Address:        toShippingAddress(d.Address),
		FailureReason:  d.FailureReason,
		History:        d.History,
		ShippedAt:      d.ShippedAt,
		DeliveredAt:    d.DeliveredAt,
		CreatedAt:      d.CreatedAt,
	}
}

// SummaryRequest selects the dashboard period. Defaults to the last 30 days.
type SummaryRequest struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// DashboardSummary is the headline figures for a period
type DashboardSummary struct {
	From               time.Time       `json:"from"`
	To                 time.Time       `json:"to"`
	Currency           string          `json:"currency"`
	OrderCount         int64           `json:"order_count"`
	Revenue            decimal.Decimal `json:"revenue"`
	AverageOrderValue  decimal.Decimal `json:"average_order_value"`
	PendingOrders      int64           `json:"pending_orders"`
	OrderingCustomers  int64           `json:"ordering_customers"`
	TotalCustomers     int64           `json:"total_customers"`
	OpenLowStockAlerts int64           `json:"open_low_stock_alerts"`
}
