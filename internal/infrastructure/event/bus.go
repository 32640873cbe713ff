package event

import (
	"context"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/logger"
)

// asyncQueueSize is how many events may wait for the dispatch worker before
// Publish blocks
const asyncQueueSize = 256

// InMemoryEventBus dispatches domain events to in-process handlers.
// Handler errors are logged and never fail the publisher.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	async    bool

	mu      sync.Mutex
	stopped bool
	queue   chan envelope
	done    chan struct{}
}

type envelope struct {
	ctx      context.Context
	event    shared.DomainEvent
	handlers []shared.EventHandler
}

// Option configures the bus
type Option func(*InMemoryEventBus)

// WithAsyncDispatch hands events to one background worker. Events are handled
// in publish order and each event's handlers run in subscription order. Stop
// drains the queue.
func WithAsyncDispatch() Option {
	return func(b *InMemoryEventBus) {
		b.async = true
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(log *zap.Logger, opts ...Option) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   log,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.async {
		b.startWorker()
	}
	return b
}

// Publish hands every event to its handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.async {
		for _, event := range events {
			for _, handler := range b.registry.GetHandlers(event.EventType()) {
				b.dispatch(ctx, handler, event)
			}
		}
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, event := range events {
		if b.stopped {
			b.logger.Warn("event bus stopped, dropping event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
			)
			continue
		}
		handlers := b.registry.GetHandlers(event.EventType())
		if len(handlers) == 0 {
			continue
		}
		// the request that raised the event may finish first
		b.queue <- envelope{ctx: context.WithoutCancel(ctx), event: event, handlers: handlers}
	}
	return nil
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start accepts events again after Stop
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	if b.async {
		b.mu.Lock()
		if b.stopped {
			b.startWorker()
		}
		b.mu.Unlock()
	}
	b.logger.Info("event bus started", zap.Bool("async", b.async))
	return nil
}

// Stop refuses new events and waits until the worker has drained the queue
// or ctx ends
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	if !b.async {
		return nil
	}

	b.mu.Lock()
	if !b.stopped {
		b.stopped = true
		close(b.queue)
	}
	done := b.done
	b.mu.Unlock()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out with handlers still running")
		return ctx.Err()
	}
}

// startWorker must run with mu held or before the bus is shared
func (b *InMemoryEventBus) startWorker() {
	b.stopped = false
	b.queue = make(chan envelope, asyncQueueSize)
	b.done = make(chan struct{})
	go b.run(b.queue, b.done)
}

func (b *InMemoryEventBus) run(queue <-chan envelope, done chan<- struct{}) {
	defer close(done)
	for env := range queue {
		for _, handler := range env.handlers {
			b.dispatch(env.ctx, handler, env.event)
		}
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	if err := handler.Handle(ctx, event); err != nil {
		b.logger.Error("event handler failed",
			zap.String("request_id", logger.GetRequestID(ctx)),
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.String("tenant_id", event.TenantID().String()),
			zap.Error(err),
		)
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
