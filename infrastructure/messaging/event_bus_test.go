package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"eternals-backend/domain/events"
	"eternals-backend/infrastructure/messaging"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestInMemoryEventBus_Dispatch(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(zaptest.NewLogger(t))

	var typed, all []string
	bus.Subscribe(events.TypeCartCleared, func(ctx context.Context, e events.DomainEvent) error {
		typed = append(typed, e.GetAggregateID())
		return nil
	})
	bus.Subscribe(messaging.Wildcard, func(ctx context.Context, e events.DomainEvent) error {
		all = append(all, e.GetEventType())
		return nil
	})

	now := time.Now()
	err := bus.PublishBatch(context.Background(), []events.DomainEvent{
		events.NewCartChanged(events.TypeCartCleared, "cart-1", "", 0, 0, "0.00", now),
		events.NewInvoicePaid("inv-1", "p-1", "10.00", now),
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"cart-1"}, typed)
	assert.Equal(t, []string{events.TypeCartCleared, events.TypeInvoicePaid}, all)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(zaptest.NewLogger(t))
	boom := errors.New("boom")

	delivered := false
	bus.Subscribe(events.TypeInvoicePaid, func(context.Context, events.DomainEvent) error { return boom })
	bus.Subscribe(events.TypeInvoicePaid, func(context.Context, events.DomainEvent) error {
		delivered = true
		return nil
	})

	err := bus.Publish(context.Background(), events.NewInvoicePaid("inv-1", "p-1", "10.00", time.Now()))
	assert.ErrorIs(t, err, boom)
	assert.True(t, delivered)
}
