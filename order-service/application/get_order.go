package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
)

// GetOrderQuery represents the query to get an order
type GetOrderQuery struct {
	OrderID string `json:"order_id"`
}

// GetOrder use case
type GetOrder struct {
	orders domain.OrderRepository
}

func NewGetOrder(orders domain.OrderRepository) *GetOrder {
	return &GetOrder{orders: orders}
}

func (uc *GetOrder) Execute(ctx context.Context, query *GetOrderQuery) (*OrderResponse, error) {
	id, err := models.NewID(query.OrderID)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidOrder, "invalid order ID %q", query.OrderID)
	}

	order, err := uc.orders.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "order %s", id)
	}

	return toOrderResponse(order), nil
}
