package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-system/shared/models"
)

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{topic: "orders", pattern: "orders", want: true},
		{topic: "orders", pattern: "users", want: false},
		{topic: "order.created", pattern: "order.*", want: true},
		{topic: "order.created", pattern: "*.created", want: true},
		{topic: "product.stock.updated", pattern: "product.*", want: false},
		{topic: "product.stock.updated", pattern: "product#", want: true},
		{topic: "product.stock.updated", pattern: "#updated", want: true},
		{topic: "product.stock.updated", pattern: "#stock#", want: true},
		{topic: "anything", pattern: "#", want: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.topic.Matches(tt.pattern))
		})
	}
}

func TestEventType_Topic(t *testing.T) {
	expected := map[EventType]Topic{
		UserCreated:         TopicUsers,
		UserUpdated:         TopicUsers,
		OrderCreated:        TopicOrders,
		OrderUpdated:        TopicOrders,
		OrderCancelled:      TopicOrders,
		ProductCreated:      TopicProducts,
		ProductUpdated:      TopicProducts,
		ProductStockUpdated: TopicProducts,
	}

	require.Len(t, EventTypes, len(expected))
	for _, et := range EventTypes {
		assert.Equal(t, expected[et], et.Topic(), et)
	}
	assert.Empty(t, EventType("order.shipped").Topic())
}

func TestParseEventType(t *testing.T) {
	et, err := ParseEventType("product.stock.updated")
	require.NoError(t, err)
	assert.Equal(t, ProductStockUpdated, et)

	_, err = ParseEventType("order.shipped")
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

type orderCreatedData struct {
	OrderID string  `json:"order_id"`
	UserID  string  `json:"user_id"`
	Total   float64 `json:"total_amount"`
}

func TestEvent_Envelope(t *testing.T) {
	event := NewEvent(OrderCreated, "order-service", orderCreatedData{OrderID: "o-1", UserID: "7", Total: 30})
	event.WithMetadata("kafka_offset", "12")

	raw, err := event.ToJSON()
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, []string{"event_id", "event_type", "timestamp", "producer", "data"}, keys(fields))

	decoded, err := FromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, OrderCreated, decoded.Type)
	assert.Equal(t, TopicOrders, decoded.Topic())
	assert.Equal(t, "order-service", decoded.Producer)
	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))
	assert.Empty(t, decoded.Metadata)

	var data orderCreatedData
	require.NoError(t, decoded.UnmarshalPayload(&data))
	assert.Equal(t, orderCreatedData{OrderID: "o-1", UserID: "7", Total: 30}, data)
}

func TestEvent_UnmarshalPayload(t *testing.T) {
	event := NewEvent(UserCreated, "user-service", orderCreatedData{OrderID: "x"})

	var same orderCreatedData
	require.NoError(t, event.UnmarshalPayload(&same))
	assert.Equal(t, "x", same.OrderID)

	var asMap map[string]interface{}
	require.NoError(t, event.UnmarshalPayload(&asMap))
	assert.Equal(t, "x", asMap["order_id"])

	assert.ErrorIs(t, event.UnmarshalPayload(same), ErrInvalidReceiver)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte("not json"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestFromJSON_ZonelessTimestamp(t *testing.T) {
	raw := []byte(`{
		"event_id": "5b7e",
		"event_type": "user.created",
		"timestamp": "2024-05-01T12:00:00.123456",
		"producer": "user-service",
		"data": {"id": 42, "email": "ada@example.com"}
	}`)

	decoded, err := FromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, UserCreated, decoded.Type)
	assert.True(t, time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC).Equal(decoded.Timestamp))

	var data struct {
		ID    models.Ref `json:"id"`
		Email string     `json:"email"`
	}
	require.NoError(t, decoded.UnmarshalPayload(&data))
	assert.Equal(t, models.Ref("42"), data.ID)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
		err   bool
	}{
		{value: "2024-05-01T12:00:00Z", want: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{value: "2024-05-01T14:00:00.5+02:00", want: time.Date(2024, 5, 1, 12, 0, 0, 500000000, time.UTC)},
		{value: "2024-05-01T12:00:00", want: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{value: "", want: time.Time{}},
		{value: "yesterday", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestFromJSON_BadTimestamp(t *testing.T) {
	_, err := FromJSON([]byte(`{"event_id":"1","event_type":"user.created","timestamp":"yesterday","data":{}}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
