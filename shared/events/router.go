package events

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/telemetry"
)

// Handlers holds one handler per event type. Unset fields mean the type is not consumed.
type Handlers struct {
	UserCreated         EventHandler
	UserUpdated         EventHandler
	OrderCreated        EventHandler
	OrderUpdated        EventHandler
	OrderCancelled      EventHandler
	ProductCreated      EventHandler
	ProductUpdated      EventHandler
	ProductStockUpdated EventHandler
}

// Router dispatches events to the handler registered for their type.
// Events nobody handles are logged and dropped.
type Router struct {
	handlers Handlers
	logger   *zap.Logger
}

var _ EventHandler = (*Router)(nil)

func NewRouter(handlers Handlers, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{handlers: handlers, logger: logger}
}

func (r *Router) Handle(ctx context.Context, event *Event) error {
	handler := r.handlerFor(event.Type)
	if handler == nil {
		r.logger.Debug("no handler for event, dropping",
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", event.Type.String()),
		)
		telemetry.RecordCounter(ctx, "events_dropped_total", "Consumed events without a handler", 1,
			attribute.String("event_type", event.Type.String()),
		)
		return nil
	}

	err := handler.Handle(ctx, event)

	status := "success"
	if err != nil {
		status = "error"
	}
	telemetry.RecordCounter(ctx, "events_consumed_total", "Total events consumed", 1,
		attribute.String("event_type", event.Type.String()),
		attribute.String("status", status),
	)

	return err
}

func (r *Router) handlerFor(t EventType) EventHandler {
	switch t {
	case UserCreated:
		return r.handlers.UserCreated
	case UserUpdated:
		return r.handlers.UserUpdated
	case OrderCreated:
		return r.handlers.OrderCreated
	case OrderUpdated:
		return r.handlers.OrderUpdated
	case OrderCancelled:
		return r.handlers.OrderCancelled
	case ProductCreated:
		return r.handlers.ProductCreated
	case ProductUpdated:
		return r.handlers.ProductUpdated
	case ProductStockUpdated:
		return r.handlers.ProductStockUpdated
	default:
		return nil
	}
}
