package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Handler processes an event.
type Handler func(ctx context.Context, event Event) error

type subscription struct {
	id      string
	name    string
	handler Handler
}

// Bus delivers events synchronously to the handlers subscribed to their
// name, in subscription order. Delivery stops at the first handler error.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]*subscription
	logger        *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscriptions: make(map[string][]*subscription),
		logger:        logger.With("component", "events"),
	}
}

// Subscribe appends handler to the listeners of eventName and returns the
// subscription ID. The name labels the handler in logs and errors.
func (b *Bus) Subscribe(eventName, name string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.subscriptions[eventName] = append(b.subscriptions[eventName], &subscription{
		id:      id,
		name:    name,
		handler: handler,
	})
	b.logger.Debug("listener registered", "event", eventName, "listener", name)
	return id
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventName, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[eventName] = append(subs[:i:i], subs[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("subscription %s not found", id)
}

// Listeners returns the listener names of eventName in delivery order.
func (b *Bus) Listeners(eventName string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subscriptions[eventName]))
	for _, sub := range b.subscriptions[eventName] {
		names = append(names, sub.name)
	}
	return names
}

// Publish runs every handler of the event in order.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.subscriptions[event.Name()]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sub.handler(ctx, event); err != nil {
			b.logger.Error("listener failed", "event", event.Name(), "listener", sub.name, "error", err)
			return fmt.Errorf("%s listener %s: %w", event.Name(), sub.name, err)
		}
	}
	return nil
}

// On subscribes a handler typed to one event. Events of another type
// published under the same name are ignored.
func On[E Event](b *Bus, eventName, name string, fn func(ctx context.Context, event E) error) string {
	return b.Subscribe(eventName, name, func(ctx context.Context, event Event) error {
		e, ok := event.(E)
		if !ok {
			return nil
		}
		return fn(ctx, e)
	})
}
