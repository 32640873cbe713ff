package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smartstore/backend/internal/domain/shared"
)

type testEvent struct {
	shared.EventHeader
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{EventHeader: shared.NewEventHeader(eventType, "Test", uuid.New(), uuid.New())}
}

type testHandler struct {
	eventTypes []string
	err        error
	panics     bool
	delay      time.Duration

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(zap.NewNop())

	orders := &testHandler{eventTypes: []string{"OrderPaid"}}
	stock := &testHandler{eventTypes: []string{"LowStockDetected"}}
	all := &testHandler{}
	bus.Subscribe(orders)
	bus.Subscribe(stock)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(ctx, newTestEvent("OrderPaid"), newTestEvent("OrderPaid"), newTestEvent("LowStockDetected")))

	assert.Equal(t, 2, orders.count())
	assert.Equal(t, 1, stock.count())
	assert.Equal(t, 3, all.count())

	bus.Unsubscribe(orders)
	require.NoError(t, bus.Publish(ctx, newTestEvent("OrderPaid")))
	assert.Equal(t, 2, orders.count())
	assert.Equal(t, 4, all.count())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &testHandler{eventTypes: []string{"OrderPaid"}, err: errors.New("smtp down")}
	panicking := &testHandler{eventTypes: []string{"OrderPaid"}, panics: true}
	healthy := &testHandler{eventTypes: []string{"OrderPaid"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("OrderPaid"))
	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("event handler panicked").Len())
}

func TestInMemoryEventBus_AsyncDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	slow := &testHandler{eventTypes: []string{"CampaignSent"}, delay: 20 * time.Millisecond}
	bus.Subscribe(slow)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, newTestEvent("CampaignSent")))
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Equal(t, 1, slow.count())

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("CampaignSent")))
	assert.Equal(t, 1, slow.count())
}

type orderedHandler struct {
	name  string
	delay time.Duration
	log   *[]string
	mu    *sync.Mutex
}

func (h *orderedHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	time.Sleep(h.delay)
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.log = append(*h.log, h.name+":"+event.EventType())
	return nil
}

func (h *orderedHandler) EventTypes() []string { return nil }

func TestInMemoryEventBus_AsyncKeepsOrder(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	var (
		mu  sync.Mutex
		log []string
	)
	// the slow first handler would finish last if handlers ran in parallel
	bus.Subscribe(&orderedHandler{name: "ledger", delay: 10 * time.Millisecond, log: &log, mu: &mu})
	bus.Subscribe(&orderedHandler{name: "mail", log: &log, mu: &mu})

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid"), newTestEvent("OrderShipped")))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Equal(t, []string{
		"ledger:OrderPaid", "mail:OrderPaid",
		"ledger:OrderShipped", "mail:OrderShipped",
	}, log)
}

func TestInMemoryEventBus_StopWhilePublishing(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	h := &testHandler{eventTypes: []string{"StockMoved"}}
	bus.Subscribe(h)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = bus.Publish(context.Background(), newTestEvent("StockMoved"))
			}
		}()
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))
	handled := h.count()
	wg.Wait()

	// nothing is accepted after Stop returns
	assert.Equal(t, handled, h.count())
	assert.LessOrEqual(t, handled, 400)

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("StockMoved")))
	require.NoError(t, bus.Stop(stopCtx))
	assert.Equal(t, handled+1, h.count())
}
