package events

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRouter_Handle(t *testing.T) {
	var handled []EventType
	record := EventHandlerFunc(func(ctx context.Context, event *Event) error {
		handled = append(handled, event.Type)
		return nil
	})
	errHandler := errors.New("handler failed")

	core, logs := observer.New(zapcore.DebugLevel)
	router := NewRouter(Handlers{
		UserCreated:  record,
		UserUpdated:  record,
		OrderCreated: record,
		OrderCancelled: EventHandlerFunc(func(ctx context.Context, event *Event) error {
			return errHandler
		}),
	}, zap.New(core))

	ctx := context.Background()
	assert.NoError(t, router.Handle(ctx, NewEvent(UserCreated, "user-service", nil)))
	assert.NoError(t, router.Handle(ctx, NewEvent(OrderCreated, "order-service", nil)))
	assert.NoError(t, router.Handle(ctx, NewEvent(ProductUpdated, "product-service", nil)))
	assert.NoError(t, router.Handle(ctx, NewEvent(EventType("order.shipped"), "legacy", nil)))
	assert.ErrorIs(t, router.Handle(ctx, NewEvent(OrderCancelled, "order-service", nil)), errHandler)

	assert.Equal(t, []EventType{UserCreated, OrderCreated}, handled)
	assert.Equal(t, 2, logs.FilterMessage("no handler for event, dropping").Len())
}
