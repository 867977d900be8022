package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/draftea/order-system/shared/events"
)

func TestOrderEventHandlers_Router(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := NewOrderEventHandlers(zap.New(core)).Router()
	ctx := context.Background()

	decode := func(raw string) *events.Event {
		event, err := events.FromJSON([]byte(raw))
		require.NoError(t, err)
		return event
	}

	require.NoError(t, router.Handle(ctx, decode(`{
		"event_id": "e1", "event_type": "user.created", "producer": "user-service",
		"data": {"id": 7, "username": "ada", "email": "ada@example.com"}}`)))
	require.NoError(t, router.Handle(ctx, decode(`{
		"event_id": "e2", "event_type": "order.created", "producer": "order-service",
		"data": {"id": "o-1", "user_id": 7, "total_amount": "30.00", "items": [{"product_id": 5, "quantity": 3, "price": "10"}]}}`)))
	require.NoError(t, router.Handle(ctx, decode(`{
		"event_id": "e3", "event_type": "user.updated", "producer": "user-service", "data": "not an object"}`)))
	require.NoError(t, router.Handle(ctx, decode(`{
		"event_id": "e4", "event_type": "product.stock.updated", "producer": "product-service", "data": {}}`)))

	userLogs := logs.FilterMessage("user changed").All()
	require.Len(t, userLogs, 1)
	assert.Equal(t, "7", userLogs[0].ContextMap()["user_id"])
	assert.Equal(t, "e1", userLogs[0].ContextMap()["event_id"])

	orderLogs := logs.FilterMessage("order created event received").All()
	require.Len(t, orderLogs, 1)
	assert.Equal(t, "30.00", orderLogs[0].ContextMap()["total_amount"])
	assert.Equal(t, int64(1), orderLogs[0].ContextMap()["items"])

	assert.Equal(t, 1, logs.FilterMessage("malformed user payload, dropping").Len())
	assert.Equal(t, 1, logs.FilterMessage("no handler for event, dropping").Len())
}
