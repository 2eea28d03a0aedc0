// Package messaging delivers domain events to in-process subscribers
package messaging

import (
	"context"
	"errors"
	"sync"

	"eternals-backend/application/ports"
	"eternals-backend/domain/events"

	"go.uber.org/zap"
)

// Wildcard subscribes a handler to every event type
const Wildcard = "*"

// InMemoryEventBus dispatches events synchronously to subscribers. A failing
// handler is logged and reported but does not stop delivery to the others.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	logger   *zap.Logger
}

// NewInMemoryEventBus creates an event bus with no subscribers
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]ports.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type
func (b *InMemoryEventBus) Subscribe(eventType string, handler ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers one event
func (b *InMemoryEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.mu.RLock()
	targets := make([]ports.EventHandler, 0, len(b.handlers[event.GetEventType()])+len(b.handlers[Wildcard]))
	targets = append(targets, b.handlers[event.GetEventType()]...)
	targets = append(targets, b.handlers[Wildcard]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range targets {
		if err := h(ctx, event); err != nil {
			b.logger.Warn("Event handler failed",
				zap.String("event_type", event.GetEventType()),
				zap.String("aggregate_id", event.GetAggregateID()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishBatch delivers events in order
func (b *InMemoryEventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	var errs []error
	for _, e := range batch {
		if err := b.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogEvents returns a handler that writes every event to the debug log
func LogEvents(logger *zap.Logger) ports.EventHandler {
	return func(ctx context.Context, event events.DomainEvent) error {
		logger.Debug("Domain event",
			zap.String("event_type", event.GetEventType()),
			zap.String("aggregate_id", event.GetAggregateID()),
			zap.Time("timestamp", event.GetTimestamp()),
		)
		return nil
	}
}

// RecordingPublisher keeps published events in memory; used in tests and
// local tooling.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, e := range batch {
		_ = p.Publish(ctx, e)
	}
	return nil
}

// Events returns a copy of everything published so far
func (p *RecordingPublisher) Events() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.DomainEvent(nil), p.events...)
}

// Types returns the event types published so far, in order
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.GetEventType()
	}
	return out
}
