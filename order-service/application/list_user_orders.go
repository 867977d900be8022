package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
)

// ListUserOrdersQuery represents the query to list the orders of a user
type ListUserOrdersQuery struct {
	UserID string `json:"user_id"`
}

// ListUserOrders use case. A user without orders is reported as not found.
type ListUserOrders struct {
	orders domain.OrderRepository
}

func NewListUserOrders(orders domain.OrderRepository) *ListUserOrders {
	return &ListUserOrders{orders: orders}
}

func (uc *ListUserOrders) Execute(ctx context.Context, query *ListUserOrdersQuery) ([]*OrderResponse, error) {
	userID, err := models.NewRef(query.UserID)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidOrder, "user ID is required")
	}

	orders, err := uc.orders.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	if len(orders) == 0 {
		return nil, errors.Wrapf(domain.ErrOrderNotFound, "no orders for user %s", userID)
	}

	responses := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = toOrderResponse(order)
	}
	return responses, nil
}
