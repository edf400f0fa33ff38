package events

import (
	"context"
	"errors"
	"sync"

	"lead_engine_backend/platform/logger"
)

// InMemoryBus is a simple in-process Bus implementation. Handlers registered
// for an event name are invoked in registration order.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously. Handler errors
// are logged, never propagated; a webhook response must not depend on
// side-effect listeners.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		handler := h
		go func() {
			defer func() {
				if r := recover(); r != nil && b.log != nil {
					b.log.Error("event handler panic", "event", event.EventName(), "panic", r)
				}
			}()
			if err := handler.Handle(context.WithoutCancel(ctx), event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}()
	}
}

// PublishSync dispatches the event and waits for every handler, joining errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Bus = (*InMemoryBus)(nil)
