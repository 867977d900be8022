package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/telemetry"
)

const shutdownTimeout = 10 * time.Second

var ErrPublisherClosed = errors.New("publisher closed")

var _ events.Publisher = (*AsyncPublisher)(nil)

type queuedEvent struct {
	ctx   context.Context
	event *events.Event
}

type asyncPublisherOptions struct {
	workers        int
	queueSize      int
	maxAttempts    int
	retryBackoff   time.Duration
	publishTimeout time.Duration
}

type AsyncPublisherOption func(*asyncPublisherOptions)

func WithPublishWorkers(workers, queueSize int) AsyncPublisherOption {
	return func(o *asyncPublisherOptions) {
		if workers > 0 {
			o.workers = workers
		}
		if queueSize > 0 {
			o.queueSize = queueSize
		}
	}
}

func WithPublishRetries(maxAttempts int, backoff time.Duration) AsyncPublisherOption {
	return func(o *asyncPublisherOptions) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		o.retryBackoff = backoff
	}
}

// AsyncPublisher queues events and publishes them from background workers.
// Publish never blocks the caller and never reports delivery failures:
// those are retried a bounded number of times and then logged.
type AsyncPublisher struct {
	next    events.Publisher
	queue   chan queuedEvent
	options asyncPublisherOptions
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncPublisher(next events.Publisher, logger *zap.Logger, opts ...AsyncPublisherOption) *AsyncPublisher {
	options := asyncPublisherOptions{
		workers:        2,
		queueSize:      256,
		maxAttempts:    3,
		retryBackoff:   200 * time.Millisecond,
		publishTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	p := &AsyncPublisher{
		next:    next,
		queue:   make(chan queuedEvent, options.queueSize),
		options: options,
		logger:  logger,
	}

	for i := 0; i < options.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}

	return p
}

// Publish enqueues events. A full queue drops the event with an error log.
func (p *AsyncPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	detached := context.WithoutCancel(ctx)
	for _, event := range evts {
		select {
		case p.queue <- queuedEvent{ctx: detached, event: event}:
		default:
			p.logger.Error("publish queue full, dropping event",
				zap.String("event_id", event.ID.String()),
				zap.String("event_type", event.Type.String()),
			)
			p.record(ctx, event, "dropped")
		}
	}
	telemetry.RecordGauge(ctx, "event_publish_queue_depth", "Events waiting to be published", float64(len(p.queue)))

	return nil
}

func (p *AsyncPublisher) work() {
	defer p.wg.Done()

	for item := range p.queue {
		p.publish(item)
	}
}

func (p *AsyncPublisher) publish(item queuedEvent) {
	var err error
	for attempt := 1; attempt <= p.options.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(item.ctx, p.options.publishTimeout)
		err = p.next.Publish(ctx, item.event)
		cancel()

		if err == nil {
			p.record(item.ctx, item.event, "success")
			return
		}

		p.logger.Warn("event publish failed",
			zap.String("event_id", item.event.ID.String()),
			zap.String("event_type", item.event.Type.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < p.options.maxAttempts {
			time.Sleep(p.options.retryBackoff * time.Duration(attempt))
		}
	}

	p.logger.Error("giving up publishing event",
		zap.String("event_id", item.event.ID.String()),
		zap.String("event_type", item.event.Type.String()),
		zap.Error(err),
	)
	p.record(item.ctx, item.event, "error")
}

func (p *AsyncPublisher) record(ctx context.Context, event *events.Event, status string) {
	telemetry.RecordCounter(ctx, "events_published_total", "Total events published", 1,
		attribute.String("event_type", event.Type.String()),
		attribute.String("status", status),
	)
}

// Close stops accepting events and drains the queue
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(shutdownTimeout):
		return errors.New("timed out draining publish queue")
	}
}
