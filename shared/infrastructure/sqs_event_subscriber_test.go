package infrastructure

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/events"
)

func sqsMessageFor(t *testing.T, event *events.Event, receipt string, wrapped bool) types.Message {
	body, err := event.ToJSON()
	require.NoError(t, err)

	if wrapped {
		body, err = json.Marshal(snsNotification{Type: "Notification", Message: string(body)})
		require.NoError(t, err)
	}

	return types.Message{
		MessageId:     aws.String("msg-" + receipt),
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "4"},
		MessageAttributes: map[string]types.MessageAttributeValue{
			TopicAttribute: {DataType: aws.String("String"), StringValue: aws.String(event.Topic().String())},
		},
	}
}

func TestDecodeSQSMessage(t *testing.T) {
	event := events.NewEvent(events.UserUpdated, "user-service", map[string]string{"id": "7"})

	for _, wrapped := range []bool{false, true} {
		decoded, err := decodeSQSMessage(sqsMessageFor(t, event, "r1", wrapped))
		require.NoError(t, err)
		assert.Equal(t, event.ID, decoded.ID)
		assert.Equal(t, events.UserUpdated, decoded.Type)

		receipt, _ := decoded.Metadata.Get(SQSReceiptHandleKey)
		assert.Equal(t, "r1", receipt)
		topic, _ := decoded.Metadata.Get(TopicAttribute)
		assert.Equal(t, "users", topic)
	}

	_, err := decodeSQSMessage(types.Message{Body: aws.String("garbage")})
	assert.Error(t, err)
}

func TestSQSSubscriberAdapter_RoutesAndAcks(t *testing.T) {
	okEvent := events.NewEvent(events.UserCreated, "user-service", nil)
	failingEvent := events.NewEvent(events.OrderCreated, "order-service", nil)
	unroutedEvent := events.NewEvent(events.ProductUpdated, "product-service", nil)

	client := &fakeSQS{}

	users := &recordingHandler{}
	orders := &recordingHandler{failures: 1, err: errors.New("handler failed")}

	adapter := newSQSSubscriberAdapter(client, "http://localhost:4566/000000000000/order-service", zap.NewNop(),
		WithWorkers(1), WithWaitTime(0, 10*time.Millisecond))
	ctx := context.Background()
	require.NoError(t, adapter.Subscribe(ctx, events.TopicUsers, users))
	require.NoError(t, adapter.Subscribe(ctx, events.TopicOrders, orders))
	defer adapter.Close()

	client.push(
		sqsMessageFor(t, okEvent, "ok", false),
		sqsMessageFor(t, failingEvent, "failing", true),
		sqsMessageFor(t, unroutedEvent, "unrouted", false),
	)

	assert.Eventually(t, func() bool {
		deleted, changed := client.snapshot()
		return len(deleted) == 2 && len(changed) == 1
	}, 2*time.Second, 10*time.Millisecond)

	deleted, changed := client.snapshot()
	assert.ElementsMatch(t, []string{"ok", "unrouted"}, deleted)
	assert.Equal(t, int32(60), changed["failing"])
	assert.Equal(t, 1, users.count())
	assert.Equal(t, 1, orders.count())
}

func TestSQSSubscriberAdapter_InvalidTopic(t *testing.T) {
	adapter := newSQSSubscriberAdapter(&fakeSQS{}, "queue", nil)
	assert.ErrorIs(t, adapter.Subscribe(context.Background(), "", &recordingHandler{}), events.ErrInvalidTopic)
}

func TestSQSEventSubscriber_VisibilityBackoff(t *testing.T) {
	s := NewSQSEventSubscriber(&fakeSQS{}, "queue", nil, nil)

	assert.Equal(t, int32(30), s.visibilityBackoff(1))
	assert.Equal(t, int32(60), s.visibilityBackoff(3))
	assert.Equal(t, int32(90), s.visibilityBackoff(6))
	assert.Equal(t, int32(900), s.visibilityBackoff(1000))
}
