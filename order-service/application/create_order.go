package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
)

// Producer is the name order events are published under
const Producer = "order-service"

// CreateOrderItem is one requested order line
type CreateOrderItem struct {
	ProductID models.Ref      `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Price     decimal.Decimal `json:"price" validate:"positive_decimal,money"`
}

// CreateOrderCommand represents the command to create an order
type CreateOrderCommand struct {
	UserID          models.Ref        `json:"user_id" validate:"required"`
	Items           []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string            `json:"shipping_address" validate:"required"`
}

// CreateOrder use case: reference checks, order saga, order.created notification
type CreateOrder struct {
	users     domain.UserService
	products  domain.ProductService
	saga      *OrderSaga
	publisher events.Publisher
	logger    *zap.Logger
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	users domain.UserService,
	products domain.ProductService,
	orderSaga *OrderSaga,
	publisher events.Publisher,
	logger *zap.Logger,
) *CreateOrder {
	return &CreateOrder{
		users:     users,
		products:  products,
		saga:      orderSaga,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute validates the command, runs the order saga and, on success,
// publishes order.created. Publishing never changes the outcome.
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*OrderResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "create_order",
		trace.WithAttributes(
			attribute.String("user_id", cmd.UserID.String()),
			attribute.Int("items", len(cmd.Items)),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "order_operations_total", "Total order operations", 1,
			attribute.String("operation", "create_order"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "order_operation_duration_seconds", "Order operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "create_order"),
			attribute.String("status", status),
		)
	}()

	logger := logging.WithTrace(ctx, uc.logger)

	if err := validateCommand(cmd); err != nil {
		status = "invalid"
		span.RecordError(err)
		return nil, err
	}

	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = domain.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}

	order, err := domain.NewOrder(cmd.UserID, items, cmd.ShippingAddress)
	if err != nil {
		status = "invalid"
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order_id", order.ID.String()),
		attribute.String("total_amount", order.TotalAmount.String()),
	)

	if err := uc.checkReferences(ctx, logger, order); err != nil {
		status = "rejected"
		span.RecordError(err)
		return nil, err
	}

	created, ok, result := uc.saga.Run(ctx, order)
	if !ok {
		status = "saga_failed"
		sagaErr := &SagaFailedError{
			SagaID:            result.SagaID,
			Step:              result.FailedStep,
			Kind:              Classify(result.Err),
			Err:               result.Err,
			CompensationError: result.CompensationError(),
		}
		span.RecordError(sagaErr)
		return nil, sagaErr
	}

	response := toOrderResponse(created)

	event := events.NewEvent(events.OrderCreated, Producer, response)
	if err := uc.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish order event",
			zap.String("order_id", response.ID),
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}

	status = "success"
	logger.Info("order created",
		zap.String("order_id", response.ID),
		zap.String("user_id", response.UserID.String()),
		zap.String("total_amount", response.TotalAmount.StringFixed(2)),
	)

	return response, nil
}

// checkReferences rejects orders whose user or products are known not to
// exist. A degraded lookup for any other reason is tolerated.
func (uc *CreateOrder) checkReferences(ctx context.Context, logger *zap.Logger, order *domain.Order) error {
	user := uc.users.GetUser(ctx, order.UserID)
	if user.Degraded {
		if isNotFound(user.Cause) {
			return errors.Wrapf(domain.ErrUserNotFound, "user %s", order.UserID)
		}
		logger.Warn("user lookup degraded, continuing", zap.String("user_id", order.UserID.String()), zap.Error(user.Cause))
	}

	seen := make(map[models.Ref]struct{}, len(order.Items))
	for _, item := range order.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}

		product := uc.products.GetProduct(ctx, item.ProductID)
		if product.Degraded {
			if isNotFound(product.Cause) {
				return errors.Wrapf(domain.ErrProductNotFound, "product %s", item.ProductID)
			}
			logger.Warn("product lookup degraded, continuing", zap.String("product_id", item.ProductID.String()), zap.Error(product.Cause))
		}
	}

	return nil
}
