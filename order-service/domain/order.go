package domain

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/draftea/order-system/shared/models"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
)

// OrderItem is one line of an order. Price is the unit price supplied by the client.
type OrderItem struct {
	ProductID models.Ref
	Quantity  int
	Price     decimal.Decimal
}

// Total returns price * quantity
func (i OrderItem) Total() decimal.Decimal {
	return models.LineTotal(i.Price, i.Quantity)
}

// Order aggregate root
type Order struct {
	ID              models.ID
	UserID          models.Ref
	Items           []OrderItem
	ShippingAddress string
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	Timestamps      models.Timestamps
}

// MoneyScale is the number of decimal places amounts are stored and charged with
const MoneyScale = 2

// IsMoney reports whether d is representable at MoneyScale without rounding
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// NewOrder builds a pending order and computes its total once from the line items
func NewOrder(userID models.Ref, items []OrderItem, shippingAddress string) (*Order, error) {
	if userID == "" {
		return nil, errors.Wrap(ErrInvalidOrder, "user id is required")
	}

	if len(items) == 0 {
		return nil, errors.Wrap(ErrInvalidOrder, "at least one item is required")
	}

	for i, item := range items {
		if item.ProductID == "" {
			return nil, errors.Wrapf(ErrInvalidOrder, "item %d: product id is required", i)
		}
		if item.Quantity <= 0 {
			return nil, errors.Wrapf(ErrInvalidOrder, "item %d: quantity must be positive", i)
		}
		if !item.Price.IsPositive() {
			return nil, errors.Wrapf(ErrInvalidOrder, "item %d: price must be positive", i)
		}
		if !IsMoney(item.Price) {
			return nil, errors.Wrapf(ErrInvalidOrder, "item %d: price must have at most %d decimal places", i, MoneyScale)
		}
	}

	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, errors.Wrap(ErrInvalidOrder, "shipping address is required")
	}

	lines := make([]OrderItem, len(items))
	copy(lines, items)

	return &Order{
		ID:              models.GenerateUUID(),
		UserID:          userID,
		Items:           lines,
		ShippingAddress: shippingAddress,
		TotalAmount:     CalculateTotal(lines),
		Status:          OrderStatusPending,
		Timestamps:      models.NewTimestamps(),
	}, nil
}

// CalculateTotal returns the sum of price * quantity over items
func CalculateTotal(items []OrderItem) decimal.Decimal {
	totals := make([]decimal.Decimal, len(items))
	for i, item := range items {
		totals[i] = item.Total()
	}
	return models.Sum(totals...)
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id models.ID) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	FindByUserID(ctx context.Context, userID models.Ref) ([]*Order, error)
}
