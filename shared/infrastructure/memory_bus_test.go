package infrastructure

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-system/shared/events"
)

func TestMemoryBus(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(nil)

	orders := &recordingHandler{}
	everything := &recordingHandler{}
	failing := &recordingHandler{failures: 1, err: errors.New("boom")}

	require.NoError(t, bus.Subscribe(ctx, events.TopicOrders, orders))
	require.NoError(t, bus.Subscribe(ctx, "#", everything))
	require.NoError(t, bus.Subscribe(ctx, events.TopicUsers, failing))
	assert.ErrorIs(t, bus.Subscribe(ctx, "", orders), events.ErrInvalidTopic)

	require.NoError(t, bus.Publish(ctx, events.NewEvent(events.OrderCreated, "order-service", nil)))
	err := bus.Publish(ctx, events.NewEvent(events.UserCreated, "user-service", nil))

	assert.Error(t, err)
	assert.Equal(t, 1, orders.count())
	assert.Equal(t, 2, everything.count())
	assert.Equal(t, 1, failing.count())
}
