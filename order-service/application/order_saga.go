package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/saga"
)

const (
	OrderSagaName = "create_order"

	StepReserveStockPrefix = "reserve_stock:"
	StepCreateOrder        = "create_order"
	StepCreatePayment      = "create_payment"
)

// OrderSagaState is threaded through the order saga steps
type OrderSagaState struct {
	Order *domain.Order
	// OrderID is set once the order is persisted; payment steps reference it
	OrderID models.ID
}

// OrderSaga reserves stock for every item, persists the order and captures
// the payment. Any failure releases what was already done, newest first.
type OrderSaga struct {
	products            domain.ProductService
	payments            domain.PaymentService
	orders              domain.OrderRepository
	store               saga.Store
	compensationTimeout time.Duration
	logger              *zap.Logger
}

// OrderSagaOption configures an OrderSaga
type OrderSagaOption func(*OrderSaga)

// WithSagaStore records every saga run in store
func WithSagaStore(store saga.Store) OrderSagaOption {
	return func(s *OrderSaga) {
		s.store = store
	}
}

// WithCompensationTimeout bounds each compensation of the order saga
func WithCompensationTimeout(d time.Duration) OrderSagaOption {
	return func(s *OrderSaga) {
		s.compensationTimeout = d
	}
}

func NewOrderSaga(
	products domain.ProductService,
	payments domain.PaymentService,
	orders domain.OrderRepository,
	logger *zap.Logger,
	opts ...OrderSagaOption,
) *OrderSaga {
	s := &OrderSaga{
		products: products,
		payments: payments,
		orders:   orders,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the saga for an order built by domain.NewOrder. It returns
// the persisted order and true when every step completed.
func (s *OrderSaga) Run(ctx context.Context, order *domain.Order) (*domain.Order, bool, *saga.Result[OrderSagaState]) {
	var opts []saga.Option
	if s.store != nil {
		opts = append(opts, saga.WithStore(s.store))
	}
	if s.compensationTimeout > 0 {
		opts = append(opts, saga.WithCompensationTimeout(s.compensationTimeout))
	}

	orchestrator := saga.New[OrderSagaState](OrderSagaName, s.logger, opts...)
	for _, step := range s.steps(order) {
		orchestrator.AddStep(step)
	}

	result := orchestrator.Execute(ctx, OrderSagaState{Order: order})
	if !result.Succeeded() {
		return nil, false, result
	}
	return result.Output.Order, true, result
}

func (s *OrderSaga) steps(order *domain.Order) []saga.Step[OrderSagaState] {
	steps := make([]saga.Step[OrderSagaState], 0, len(order.Items)+2)

	for _, item := range order.Items {
		item := item
		steps = append(steps, saga.Step[OrderSagaState]{
			Name: StepReserveStockPrefix + item.ProductID.String(),
			Execute: func(ctx context.Context, state OrderSagaState) (OrderSagaState, error) {
				return state, s.products.ReserveStock(ctx, item.ProductID, item.Quantity)
			},
			Compensate: func(ctx context.Context, _ OrderSagaState) error {
				return s.products.ReleaseStock(ctx, item.ProductID, item.Quantity)
			},
		})
	}

	steps = append(steps,
		saga.Step[OrderSagaState]{
			Name:       StepCreateOrder,
			Execute:    s.createOrder,
			Compensate: s.deleteOrder,
		},
		saga.Step[OrderSagaState]{
			Name:       StepCreatePayment,
			Execute:    s.createPayment,
			Compensate: s.cancelPayment,
		},
	)

	return steps
}

func (s *OrderSaga) createOrder(ctx context.Context, state OrderSagaState) (OrderSagaState, error) {
	if err := s.orders.Create(ctx, state.Order); err != nil {
		return state, errors.Wrap(err, "failed to persist order")
	}
	state.OrderID = state.Order.ID
	return state, nil
}

func (s *OrderSaga) deleteOrder(ctx context.Context, state OrderSagaState) error {
	if state.OrderID == "" {
		return nil
	}
	return s.orders.Delete(ctx, state.OrderID)
}

func (s *OrderSaga) createPayment(ctx context.Context, state OrderSagaState) (OrderSagaState, error) {
	if state.OrderID == "" {
		return state, errors.New("order must be persisted before payment")
	}
	err := s.payments.CreatePayment(ctx, state.OrderID, state.Order.TotalAmount, state.Order.UserID)
	return state, err
}

func (s *OrderSaga) cancelPayment(ctx context.Context, state OrderSagaState) error {
	return s.payments.CancelPayment(ctx, state.OrderID)
}
