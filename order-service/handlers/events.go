package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
)

// ConsumedTopics are the topics the order service listens to
var ConsumedTopics = []events.Topic{events.TopicUsers, events.TopicOrders}

// userPayload is the user snapshot carried by user events
type userPayload struct {
	ID       models.Ref `json:"id"`
	Username string     `json:"username"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
}

// OrderEventHandlers contains event handlers for the order service
type OrderEventHandlers struct {
	logger *zap.Logger
}

// NewOrderEventHandlers creates new order event handlers
func NewOrderEventHandlers(logger *zap.Logger) *OrderEventHandlers {
	return &OrderEventHandlers{logger: logger}
}

// Router returns a router dispatching the consumed event types to these handlers
func (h *OrderEventHandlers) Router() *events.Router {
	return events.NewRouter(events.Handlers{
		UserCreated:  events.EventHandlerFunc(h.HandleUserChanged),
		UserUpdated:  events.EventHandlerFunc(h.HandleUserChanged),
		OrderCreated: events.EventHandlerFunc(h.HandleOrderCreated),
	}, h.logger)
}

// HandleUserChanged records user.created and user.updated
func (h *OrderEventHandlers) HandleUserChanged(ctx context.Context, event *events.Event) error {
	logger := h.eventLogger(ctx, event)

	var user userPayload
	if err := event.UnmarshalPayload(&user); err != nil {
		logger.Error("malformed user payload, dropping", zap.Error(err))
		return nil
	}

	logger.Info("user changed",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("email", user.Email),
	)
	return nil
}

// HandleOrderCreated records order.created, including our own
func (h *OrderEventHandlers) HandleOrderCreated(ctx context.Context, event *events.Event) error {
	logger := h.eventLogger(ctx, event)

	var order application.OrderResponse
	if err := event.UnmarshalPayload(&order); err != nil {
		logger.Error("malformed order payload, dropping", zap.Error(err))
		return nil
	}

	logger.Info("order created event received",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID.String()),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	return nil
}

func (h *OrderEventHandlers) eventLogger(ctx context.Context, event *events.Event) *zap.Logger {
	return logging.WithTrace(ctx, h.logger).With(
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.Type.String()),
		zap.String("producer", event.Producer),
	)
}
