package infrastructure

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/events"
)

var (
	_ events.Publisher  = (*MemoryBus)(nil)
	_ events.Subscriber = (*MemoryBus)(nil)
)

// MemoryBus delivers events synchronously to in-process subscribers
type MemoryBus struct {
	mu     sync.RWMutex
	routes []topicRoute
	logger *zap.Logger
}

func NewMemoryBus(logger *zap.Logger) *MemoryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBus{logger: logger}
}

func (b *MemoryBus) Subscribe(_ context.Context, topic events.Topic, handler events.EventHandler) error {
	if topic == "" {
		return events.ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.routes = append(b.routes, topicRoute{pattern: topic, handler: handler})
	return nil
}

// Publish hands each event to every matching subscriber and returns their combined errors
func (b *MemoryBus) Publish(ctx context.Context, evts ...*events.Event) error {
	b.mu.RLock()
	routes := b.routes
	b.mu.RUnlock()

	var err error
	for _, event := range evts {
		for _, r := range routes {
			if !event.Topic().Matches(r.pattern) {
				continue
			}
			if hErr := r.handler.Handle(ctx, event.Clone()); hErr != nil {
				b.logger.Warn("in-memory handler failed",
					zap.String("event_id", event.ID.String()),
					zap.String("event_type", event.Type.String()),
					zap.Error(hErr),
				)
				err = multierr.Append(err, hErr)
			}
		}
	}
	return err
}

func (b *MemoryBus) Close() error {
	return nil
}
