package infrastructure

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftea/order-system/shared/events"
)

var _ events.Publisher = (*KafkaEventPublisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ParseBrokers splits a comma separated broker list
func ParseBrokers(brokersCSV string) []string {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// KafkaEventPublisher writes envelopes to the topic of their event type,
// keyed by event id
type KafkaEventPublisher struct {
	mu        sync.Mutex
	writers   map[events.Topic]messageWriter
	newWriter func(topic events.Topic) messageWriter
	logger    *zap.Logger
}

func NewKafkaEventPublisher(brokers []string, logger *zap.Logger) *KafkaEventPublisher {
	return newKafkaEventPublisher(func(topic events.Topic) messageWriter {
		return &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic.String(),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
	}, logger)
}

func newKafkaEventPublisher(newWriter func(topic events.Topic) messageWriter, logger *zap.Logger) *KafkaEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &KafkaEventPublisher{
		writers:   make(map[events.Topic]messageWriter),
		newWriter: newWriter,
		logger:    logger,
	}
}

func (p *KafkaEventPublisher) writer(topic events.Topic) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		w = p.newWriter(topic)
		p.writers[topic] = w
	}
	return w
}

// Publish groups events by topic and writes each group in one call
func (p *KafkaEventPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	if len(evts) == 0 {
		return nil
	}

	byTopic := make(map[events.Topic][]kafka.Message)
	for _, event := range evts {
		topic := event.Topic()
		if topic == "" {
			return errors.Wrap(events.ErrUnknownEventType, event.Type.String())
		}

		msg, err := toKafkaMessage(event)
		if err != nil {
			return err
		}
		byTopic[topic] = append(byTopic[topic], msg)
	}

	gr, ctx := errgroup.WithContext(ctx)
	for topic, msgs := range byTopic {
		topic, msgs := topic, msgs
		w := p.writer(topic)
		gr.Go(func() error {
			if err := w.WriteMessages(ctx, msgs...); err != nil {
				return errors.Wrapf(err, "failed to write %d events to kafka topic %s", len(msgs), topic)
			}

			p.logger.Debug("events written to kafka",
				zap.String("topic", topic.String()),
				zap.Int("count", len(msgs)),
			)
			return nil
		})
	}

	return gr.Wait()
}

func toKafkaMessage(event *events.Event) (kafka.Message, error) {
	value, err := event.ToJSON()
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "failed to marshal event")
	}

	return kafka.Message{
		Key:   []byte(event.ID.String()),
		Value: value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: EventTypeAttribute, Value: []byte(event.Type.String())},
			{Key: "producer", Value: []byte(event.Producer)},
		},
	}, nil
}

// Close flushes and closes every writer
func (p *KafkaEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	for topic, w := range p.writers {
		err = multierr.Append(err, errors.Wrapf(w.Close(), "close kafka writer %s", topic))
	}
	p.writers = make(map[events.Topic]messageWriter)

	return err
}
