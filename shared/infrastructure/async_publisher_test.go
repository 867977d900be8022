package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/events"
)

func TestAsyncPublisher_RetriesInBackground(t *testing.T) {
	next := &recordingPublisher{failures: 2, err: errors.New("broker down")}
	publisher := NewAsyncPublisher(next, zap.NewNop(),
		WithPublishWorkers(1, 10),
		WithPublishRetries(3, time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	event := events.NewEvent(events.OrderCreated, "order-service", nil)
	require.NoError(t, publisher.Publish(ctx, event))
	cancel() // request finished; delivery continues

	require.NoError(t, publisher.Close())

	calls, published := next.snapshot()
	assert.Equal(t, 3, calls)
	require.Len(t, published, 1)
	assert.Equal(t, event.ID, published[0].ID)
}

func TestAsyncPublisher_GivesUpSilently(t *testing.T) {
	next := &recordingPublisher{failures: 10, err: errors.New("broker down")}
	publisher := NewAsyncPublisher(next, zap.NewNop(),
		WithPublishWorkers(1, 10),
		WithPublishRetries(2, time.Millisecond),
	)

	assert.NoError(t, publisher.Publish(context.Background(), events.NewEvent(events.OrderCreated, "order-service", nil)))
	require.NoError(t, publisher.Close())

	calls, published := next.snapshot()
	assert.Equal(t, 2, calls)
	assert.Empty(t, published)
}

func TestAsyncPublisher_Closed(t *testing.T) {
	publisher := NewAsyncPublisher(&recordingPublisher{}, nil)
	require.NoError(t, publisher.Close())
	require.NoError(t, publisher.Close())

	err := publisher.Publish(context.Background(), events.NewEvent(events.OrderCreated, "order-service", nil))
	assert.ErrorIs(t, err, ErrPublisherClosed)
}
