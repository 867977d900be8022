package infrastructure

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/events"
)

type topicRoute struct {
	pattern events.Topic
	handler events.EventHandler
}

// SQSSubscriberAdapter exposes one SQS queue as an events.Subscriber.
// The queue receives every topic; messages are routed by their topic attribute.
type SQSSubscriberAdapter struct {
	mu            sync.RWMutex
	routes        []topicRoute
	sqsSubscriber *SQSEventSubscriber
	logger        *zap.Logger
}

var _ events.Subscriber = (*SQSSubscriberAdapter)(nil)

// NewSQSSubscriberAdapter creates a new SQS subscriber adapter
func NewSQSSubscriberAdapter(cfg aws.Config, queueURL string, logger *zap.Logger, opts ...SQSSubscriberOption) *SQSSubscriberAdapter {
	return newSQSSubscriberAdapter(sqs.NewFromConfig(cfg), queueURL, logger, opts...)
}

func newSQSSubscriberAdapter(client sqsAPI, queueURL string, logger *zap.Logger, opts ...SQSSubscriberOption) *SQSSubscriberAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &SQSSubscriberAdapter{logger: logger}
	a.sqsSubscriber = NewSQSEventSubscriber(client, queueURL, events.EventHandlerFunc(a.route), logger, opts...)
	return a
}

// Subscribe implements events.Subscriber interface. The queue is polled
// from the first subscription on.
func (s *SQSSubscriberAdapter) Subscribe(ctx context.Context, topic events.Topic, handler events.EventHandler) error {
	if topic == "" {
		return events.ErrInvalidTopic
	}

	s.mu.Lock()
	s.routes = append(s.routes, topicRoute{pattern: topic, handler: handler})
	s.mu.Unlock()

	if err := s.sqsSubscriber.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start SQS subscriber")
	}

	return nil
}

func (s *SQSSubscriberAdapter) route(ctx context.Context, event *events.Event) error {
	topic := event.Topic()
	if attr, ok := event.Metadata.Get(TopicAttribute); ok && attr != "" {
		topic = events.Topic(attr)
	}

	s.mu.RLock()
	routes := s.routes
	s.mu.RUnlock()

	for _, r := range routes {
		if topic.Matches(r.pattern) {
			return r.handler.Handle(ctx, event)
		}
	}

	s.logger.Debug("no subscription for topic, dropping",
		zap.String("topic", topic.String()),
		zap.String("event_id", event.ID.String()),
	)
	return nil
}

// Close stops the subscriber
func (s *SQSSubscriberAdapter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Wrap(s.sqsSubscriber.Stop(ctx), "failed to stop SQS subscriber")
}
