package application

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
)

// OrderItemResponse is one order line as exposed to clients and events
type OrderItemResponse struct {
	ProductID models.Ref      `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderResponse is the order snapshot returned to clients and carried by order events
type OrderResponse struct {
	ID              string              `json:"id"`
	UserID          models.Ref          `json:"user_id"`
	Items           []OrderItemResponse `json:"items"`
	ShippingAddress string              `json:"shipping_address"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// MarshalJSON writes the price as a number with two decimals
func (r OrderItemResponse) MarshalJSON() ([]byte, error) {
	type plain OrderItemResponse
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain: plain(r), Price: models.AmountJSON(r.Price)})
}

// MarshalJSON writes the total as a number with two decimals
func (r OrderResponse) MarshalJSON() ([]byte, error) {
	type plain OrderResponse
	return json.Marshal(struct {
		plain
		TotalAmount json.Number `json:"total_amount"`
	}{plain: plain(r), TotalAmount: models.AmountJSON(r.TotalAmount)})
}

func toOrderResponse(order *domain.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	return &OrderResponse{
		ID:              order.ID.String(),
		UserID:          order.UserID,
		Items:           items,
		ShippingAddress: order.ShippingAddress,
		TotalAmount:     order.TotalAmount,
		Status:          string(order.Status),
		CreatedAt:       order.Timestamps.CreatedAt,
		UpdatedAt:       order.Timestamps.UpdatedAt,
	}
}
