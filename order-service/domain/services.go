package domain

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/draftea/order-system/shared/circuitbreaker"
	"github.com/draftea/order-system/shared/models"
)

// User as returned by the user service
type User struct {
	ID       models.Ref `json:"id"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
}

// Product as returned by the product service
type Product struct {
	ID            models.Ref      `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// UserService looks users up. A degraded result carries a placeholder user.
type UserService interface {
	GetUser(ctx context.Context, id models.Ref) circuitbreaker.Result[User]
}

// ProductService looks products up and holds stock for orders.
// Stock operations have no fallback: their failures are returned.
type ProductService interface {
	GetProduct(ctx context.Context, id models.Ref) circuitbreaker.Result[Product]
	ReserveStock(ctx context.Context, id models.Ref, quantity int) error
	ReleaseStock(ctx context.Context, id models.Ref, quantity int) error
}

// PaymentService captures and cancels payments for orders
type PaymentService interface {
	CreatePayment(ctx context.Context, orderID models.ID, amount decimal.Decimal, userID models.Ref) error
	CancelPayment(ctx context.Context, orderID models.ID) error
}
