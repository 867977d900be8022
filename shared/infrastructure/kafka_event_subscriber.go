package infrastructure

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/events"
)

var _ events.Subscriber = (*KafkaEventSubscriber)(nil)

const (
	KafkaTopicKey     = "kafka_topic"
	KafkaPartitionKey = "kafka_partition"
	KafkaOffsetKey    = "kafka_offset"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaSubscriberOptions struct {
	handlerAttempts     int
	retryBackoff        time.Duration
	sleepTimeAfterError time.Duration
}

type KafkaSubscriberOption func(*kafkaSubscriberOptions)

// WithHandlerRetries sets how many times a failing handler is retried before the message is skipped
func WithHandlerRetries(attempts int, backoff time.Duration) KafkaSubscriberOption {
	return func(o *kafkaSubscriberOptions) {
		if attempts > 0 {
			o.handlerAttempts = attempts
		}
		o.retryBackoff = backoff
	}
}

// KafkaEventSubscriber runs one consumer-group reader per subscribed topic.
// Offsets are committed only after the handler ran.
type KafkaEventSubscriber struct {
	mu        sync.Mutex
	wg        sync.WaitGroup
	readers   []messageReader
	ctx       context.Context
	cancel    context.CancelFunc
	newReader func(topic events.Topic) messageReader
	options   kafkaSubscriberOptions
	logger    *zap.Logger
}

func NewKafkaEventSubscriber(brokers []string, groupID string, logger *zap.Logger, opts ...KafkaSubscriberOption) *KafkaEventSubscriber {
	return newKafkaEventSubscriber(func(topic events.Topic) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic.String(),
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		})
	}, logger, opts...)
}

func newKafkaEventSubscriber(newReader func(topic events.Topic) messageReader, logger *zap.Logger, opts ...KafkaSubscriberOption) *KafkaEventSubscriber {
	options := kafkaSubscriberOptions{
		handlerAttempts:     3,
		retryBackoff:        time.Second,
		sleepTimeAfterError: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &KafkaEventSubscriber{
		newReader: newReader,
		options:   options,
		logger:    logger,
	}
}

// Subscribe starts consuming topic in the background until Close
func (s *KafkaEventSubscriber) Subscribe(ctx context.Context, topic events.Topic, handler events.EventHandler) error {
	if topic == "" {
		return events.ErrInvalidTopic
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(ctx)
	}
	ctx = s.ctx

	reader := s.newReader(topic)
	s.readers = append(s.readers, reader)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(ctx, topic, reader, handler)
	}()

	s.logger.Info("kafka consumer started", zap.String("topic", topic.String()))
	return nil
}

func (s *KafkaEventSubscriber) consume(ctx context.Context, topic events.Topic, reader messageReader, handler events.EventHandler) {
	logger := s.logger.With(zap.String("topic", topic.String()))

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("kafka fetch failed", zap.Error(err))
			sleep(ctx, s.options.sleepTimeAfterError)
			continue
		}

		s.process(ctx, logger, msg, handler)

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Error("kafka commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (s *KafkaEventSubscriber) process(ctx context.Context, logger *zap.Logger, msg kafka.Message, handler events.EventHandler) {
	event, err := events.FromJSON(msg.Value)
	if err != nil {
		logger.Warn("skipping malformed kafka message", zap.Int64("offset", msg.Offset), zap.Error(err))
		return
	}

	event.WithMetadata(KafkaTopicKey, msg.Topic).
		WithMetadata(KafkaPartitionKey, strconv.Itoa(msg.Partition)).
		WithMetadata(KafkaOffsetKey, strconv.FormatInt(msg.Offset, 10))

	for attempt := 1; attempt <= s.options.handlerAttempts; attempt++ {
		err = handler.Handle(ctx, event)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		logger.Warn("event handler failed",
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", event.Type.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < s.options.handlerAttempts {
			sleep(ctx, s.options.retryBackoff)
		}
	}

	logger.Error("giving up on event",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.Type.String()),
		zap.Error(err),
	)
}

// Close stops every consumer and closes the readers
func (s *KafkaEventSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	var err error
	for _, r := range s.readers {
		err = multierr.Append(err, r.Close())
	}
	s.readers = nil
	s.ctx = nil
	s.cancel = nil

	return errors.Wrap(err, "failed to close kafka readers")
}
