package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// ErrMeterNil is returned when a metric set is built without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// BusinessMetrics turns domain events into OTel counters.
// Subscribe it to the event bus for all event types.
type BusinessMetrics struct {
	events       metric.Int64Counter
	ordersPlaced metric.Int64Counter
	orderRevenue metric.Float64Counter
	ordersPaid   metric.Int64Counter
	lowStock     metric.Int64Counter
}

// NewBusinessMetrics registers the instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BusinessMetrics{}
	var err error
	if bm.events, err = meter.Int64Counter("smartstore_domain_events_total",
		metric.WithDescription("Domain events published"),
		metric.WithUnit("{events}")); err != nil {
		return nil, err
	}
	if bm.ordersPlaced, err = meter.Int64Counter("smartstore_orders_created_total",
		metric.WithDescription("Orders placed"),
		metric.WithUnit("{orders}")); err != nil {
		return nil, err
	}
	if bm.orderRevenue, err = meter.Float64Counter("smartstore_order_amount_total",
		metric.WithDescription("Gross order amount in major currency units"),
		metric.WithUnit("{currency}")); err != nil {
		return nil, err
	}
	if bm.ordersPaid, err = meter.Int64Counter("smartstore_orders_paid_total",
		metric.WithDescription("Orders that became fully paid"),
		metric.WithUnit("{orders}")); err != nil {
		return nil, err
	}
	if bm.lowStock, err = meter.Int64Counter("smartstore_low_stock_alerts_total",
		metric.WithDescription("Low stock alerts opened"),
		metric.WithUnit("{alerts}")); err != nil {
		return nil, err
	}
	return bm, nil
}

// EventTypes subscribes to every event
func (bm *BusinessMetrics) EventTypes() []string {
	return nil
}

// Handle records the event. It never fails.
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	bm.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", event.EventType()),
		attribute.String("aggregate_type", event.AggregateType()),
	))

	switch e := event.(type) {
	case *trade.OrderCreatedEvent:
		attrs := metric.WithAttributes(
			attribute.String("channel", string(e.Channel)),
			attribute.String("currency", e.Currency),
		)
		bm.ordersPlaced.Add(ctx, 1, attrs)
		bm.orderRevenue.Add(ctx, e.TotalAmount.InexactFloat64(), attrs)
	case *trade.OrderPaidEvent:
		bm.ordersPaid.Add(ctx, 1, metric.WithAttributes(attribute.String("currency", e.Currency)))
	case *inventory.LowStockDetectedEvent:
		bm.lowStock.Add(ctx, 1)
	}
	return nil
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
