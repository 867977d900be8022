package events

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-system/shared/models"
)

var (
	ErrInvalidTopic     = errors.New("invalid topic")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidReceiver  = errors.New("receiver should be a pointer")
	ErrUnknownEventType = errors.New("unknown event type")
)

// Topic represents an event topic with pattern matching support
type Topic string

const (
	TopicUsers    Topic = "users"
	TopicOrders   Topic = "orders"
	TopicProducts Topic = "products"
)

func NewTopic(topic string) (Topic, error) {
	if topic == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

// Matches supports "#" as a prefix/suffix wildcard ("order#", "#created")
// and "*" as a single dot-separated segment ("order.*").
func (t Topic) Matches(pattern Topic) bool {
	topicStr := t.String()
	patternStr := pattern.String()

	if strings.HasPrefix(patternStr, "#") && strings.HasSuffix(patternStr, "#") {
		return strings.Contains(
			topicStr,
			strings.TrimSuffix(strings.TrimPrefix(patternStr, "#"), "#"),
		)
	}

	if strings.HasPrefix(patternStr, "#") {
		return strings.HasSuffix(topicStr, strings.TrimPrefix(patternStr, "#"))
	}

	if strings.HasSuffix(patternStr, "#") {
		return strings.HasPrefix(topicStr, strings.TrimSuffix(patternStr, "#"))
	}

	return matchPattern(strings.Split(patternStr, "."), strings.Split(topicStr, "."))
}

func (t Topic) String() string {
	return string(t)
}

func matchPattern(patternParts, topicParts []string) bool {
	if len(patternParts) == 1 && patternParts[0] == "#" {
		return true
	}

	if len(patternParts) != len(topicParts) {
		return false
	}

	if len(patternParts) == 0 {
		return true
	}

	if patternParts[0] == "*" || patternParts[0] == topicParts[0] {
		return matchPattern(patternParts[1:], topicParts[1:])
	}

	return false
}

// EventType is the closed set of domain events exchanged between services
type EventType string

const (
	UserCreated         EventType = "user.created"
	UserUpdated         EventType = "user.updated"
	OrderCreated        EventType = "order.created"
	OrderUpdated        EventType = "order.updated"
	OrderCancelled      EventType = "order.cancelled"
	ProductCreated      EventType = "product.created"
	ProductUpdated      EventType = "product.updated"
	ProductStockUpdated EventType = "product.stock.updated"
)

// EventTypes lists every known event type
var EventTypes = []EventType{
	UserCreated, UserUpdated,
	OrderCreated, OrderUpdated, OrderCancelled,
	ProductCreated, ProductUpdated, ProductStockUpdated,
}

func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", errors.Wrap(ErrUnknownEventType, s)
}

// Topic returns the topic events of this type are published to
func (t EventType) Topic() Topic {
	switch t {
	case UserCreated, UserUpdated:
		return TopicUsers
	case OrderCreated, OrderUpdated, OrderCancelled:
		return TopicOrders
	case ProductCreated, ProductUpdated, ProductStockUpdated:
		return TopicProducts
	default:
		return ""
	}
}

func (t EventType) String() string {
	return string(t)
}

// Metadata carries transport details (message ids, offsets). It is never serialized.
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Metadata) Clone() Metadata {
	clone := Metadata{}
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Event is the envelope exchanged between services
type Event struct {
	ID        models.ID   `json:"event_id"`
	Type      EventType   `json:"event_type"`
	Timestamp time.Time   `json:"timestamp"`
	Producer  string      `json:"producer"`
	Data      interface{} `json:"data"`
	Metadata  Metadata    `json:"-"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// Subscriber subscribes to events
type Subscriber interface {
	Subscribe(ctx context.Context, topic Topic, handler EventHandler) error
}

// EventHandler handles domain events
type EventHandler interface {
	Handle(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a function to EventHandler
type EventHandlerFunc func(ctx context.Context, event *Event) error

func (f EventHandlerFunc) Handle(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// NewEvent creates a new domain event
func NewEvent(eventType EventType, producer string, data interface{}) *Event {
	return &Event{
		ID:        models.GenerateUUID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Producer:  producer,
		Data:      data,
		Metadata:  make(Metadata),
	}
}

// Topic returns the topic the event belongs to
func (e *Event) Topic() Topic {
	return e.Type.Topic()
}

// WithMetadata adds transport metadata
func (e *Event) WithMetadata(key string, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(Metadata)
	}
	e.Metadata[key] = value
	return e
}

// ToJSON converts event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an envelope, keeping data as raw JSON until UnmarshalPayload
func FromJSON(data []byte) (*Event, error) {
	var envelope struct {
		ID        models.ID       `json:"event_id"`
		Type      EventType       `json:"event_type"`
		Timestamp string          `json:"timestamp"`
		Producer  string          `json:"producer"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.Wrap(ErrInvalidPayload, err.Error())
	}

	timestamp, err := ParseTimestamp(envelope.Timestamp)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPayload, err.Error())
	}

	return &Event{
		ID:        envelope.ID,
		Type:      envelope.Type,
		Timestamp: timestamp,
		Producer:  envelope.Producer,
		Data:      envelope.Data,
		Metadata:  make(Metadata),
	}, nil
}

// localTimestampLayout is what producers without zone info send; read as UTC
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp accepts RFC3339 with or without fractional seconds, and the
// same layout without a zone. An empty value yields the zero time.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.ParseInLocation(localTimestampLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, errors.Errorf("unsupported timestamp %q", value)
	}
	return ts, nil
}

// MarshalPayload marshals the event payload
func (e *Event) MarshalPayload() (json.RawMessage, error) {
	if b, ok := e.Data.([]byte); ok {
		return b, nil
	}

	if b, ok := e.Data.(json.RawMessage); ok {
		return b, nil
	}

	return json.Marshal(e.Data)
}

// UnmarshalPayload unmarshals the event payload into the given interface
func (e *Event) UnmarshalPayload(v interface{}) error {
	vValue := reflect.ValueOf(v)
	if vValue.Kind() != reflect.Ptr {
		return ErrInvalidReceiver
	}

	vValue = vValue.Elem()
	payloadValue := reflect.ValueOf(e.Data)
	if payloadValue.IsValid() && vValue.Type() == payloadValue.Type() {
		vValue.Set(payloadValue)
		return nil
	}

	raw, err := e.MarshalPayload()
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, v)
}

// Clone creates a copy of the event
func (e *Event) Clone() *Event {
	return &Event{
		ID:        e.ID,
		Type:      e.Type,
		Timestamp: e.Timestamp,
		Producer:  e.Producer,
		Data:      e.Data,
		Metadata:  e.Metadata.Clone(),
	}
}
