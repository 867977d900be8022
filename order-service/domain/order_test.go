package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	price := decimal.RequireFromString("10.00")

	tests := []struct {
		name          string
		userID        string
		items         []OrderItem
		address       string
		expectedError string
	}{
		{
			name:    "valid order",
			userID:  "1",
			items:   []OrderItem{{ProductID: "5", Quantity: 3, Price: price}},
			address: "Main St 1",
		},
		{
			name:          "missing user",
			items:         []OrderItem{{ProductID: "5", Quantity: 3, Price: price}},
			address:       "Main St 1",
			expectedError: "user id is required",
		},
		{
			name:          "no items",
			userID:        "1",
			address:       "Main St 1",
			expectedError: "at least one item is required",
		},
		{
			name:          "zero quantity",
			userID:        "1",
			items:         []OrderItem{{ProductID: "5", Quantity: 0, Price: price}},
			address:       "Main St 1",
			expectedError: "quantity must be positive",
		},
		{
			name:          "free item",
			userID:        "1",
			items:         []OrderItem{{ProductID: "5", Quantity: 1, Price: decimal.Zero}},
			address:       "Main St 1",
			expectedError: "price must be positive",
		},
		{
			name:          "sub-cent price",
			userID:        "1",
			items:         []OrderItem{{ProductID: "5", Quantity: 1, Price: decimal.RequireFromString("0.005")}},
			address:       "Main St 1",
			expectedError: "price must have at most 2 decimal places",
		},
		{
			name:    "trailing zeros are fine",
			userID:  "1",
			items:   []OrderItem{{ProductID: "5", Quantity: 1, Price: decimal.RequireFromString("10.000")}},
			address: "Main St 1",
		},
		{
			name:          "blank address",
			userID:        "1",
			items:         []OrderItem{{ProductID: "5", Quantity: 1, Price: price}},
			address:       "   ",
			expectedError: "shipping address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder(refOf(tt.userID), tt.items, tt.address)

			if tt.expectedError != "" {
				assert.ErrorIs(t, err, ErrInvalidOrder)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, order)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, order.ID)
			assert.Equal(t, OrderStatusPending, order.Status)
			assert.True(t, decimal.RequireFromString("30.00").Equal(order.TotalAmount))
		})
	}
}

func TestCalculateTotal(t *testing.T) {
	items := []OrderItem{
		{ProductID: "1", Quantity: 3, Price: decimal.RequireFromString("0.10")},
		{ProductID: "2", Quantity: 2, Price: decimal.RequireFromString("19.99")},
	}

	assert.Equal(t, "40.28", CalculateTotal(items).StringFixed(2))
}

func TestIsMoney(t *testing.T) {
	assert.True(t, IsMoney(decimal.RequireFromString("30")))
	assert.True(t, IsMoney(decimal.RequireFromString("0.01")))
	assert.True(t, IsMoney(decimal.RequireFromString("2.500")))
	assert.False(t, IsMoney(decimal.RequireFromString("0.005")))
	assert.False(t, IsMoney(decimal.RequireFromString("-1.999")))
}
