package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/order-service/mocks"
	"github.com/draftea/order-system/shared/models"
)

func TestGetOrder_Execute(t *testing.T) {
	order, err := twoItemOrder()
	require.NoError(t, err)

	tests := []struct {
		name          string
		orderID       string
		setupMocks    func(*mocks.MockOrderRepository)
		expectedError error
	}{
		{
			name:    "found",
			orderID: order.ID.String(),
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(order, nil).Once()
			},
		},
		{
			name:    "not found",
			orderID: order.ID.String(),
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(nil, domain.ErrOrderNotFound).Once()
			},
			expectedError: domain.ErrOrderNotFound,
		},
		{
			name:          "malformed id",
			orderID:       "42",
			setupMocks:    func(repo *mocks.MockOrderRepository) {},
			expectedError: domain.ErrInvalidOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockOrderRepository(t)
			tt.setupMocks(repo)

			response, err := NewGetOrder(repo).Execute(context.Background(), &GetOrderQuery{OrderID: tt.orderID})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, response)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, order.ID.String(), response.ID)
			assert.Equal(t, "32.50", response.TotalAmount.StringFixed(2))
		})
	}
}

func TestListUserOrders_Execute(t *testing.T) {
	order, err := twoItemOrder()
	require.NoError(t, err)

	t.Run("lists orders", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository(t)
		repo.EXPECT().FindByUserID(mock.Anything, models.Ref("1")).Return([]*domain.Order{order}, nil).Once()

		responses, err := NewListUserOrders(repo).Execute(context.Background(), &ListUserOrdersQuery{UserID: "1"})

		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, order.ID.String(), responses[0].ID)
	})

	t.Run("no orders is not found", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository(t)
		repo.EXPECT().FindByUserID(mock.Anything, models.Ref("2")).Return([]*domain.Order{}, nil).Once()

		_, err := NewListUserOrders(repo).Execute(context.Background(), &ListUserOrdersQuery{UserID: "2"})

		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("blank user", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository(t)

		_, err := NewListUserOrders(repo).Execute(context.Background(), &ListUserOrdersQuery{UserID: " "})

		assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	})
}
