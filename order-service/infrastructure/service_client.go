package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/circuitbreaker"
	"github.com/draftea/order-system/shared/models"
)

const (
	UserServiceTarget    = "user-service"
	ProductServiceTarget = "product-service"
	PaymentServiceTarget = "payment-service"

	UnknownUserName  = "Unknown User"
	UnknownUserEmail = "customer@example.com"
)

// ServiceURLs holds the base URLs of the downstream services
type ServiceURLs struct {
	User    string
	Product string
	Payment string
}

// ServiceClient calls the user, product and payment services through the
// circuit breaker of each one. Lookups degrade to placeholder records;
// stock and payment operations return their errors.
type ServiceClient struct {
	breakers *circuitbreaker.Manager
	users    *HTTPCaller
	products *HTTPCaller
	payments *HTTPCaller
}

var (
	_ domain.UserService    = (*ServiceClient)(nil)
	_ domain.ProductService = (*ServiceClient)(nil)
	_ domain.PaymentService = (*ServiceClient)(nil)
)

func NewServiceClient(breakers *circuitbreaker.Manager, urls ServiceURLs, transport http.RoundTripper) *ServiceClient {
	return &ServiceClient{
		breakers: breakers,
		users:    NewHTTPCaller(UserServiceTarget, urls.User, transport),
		products: NewHTTPCaller(ProductServiceTarget, urls.Product, transport),
		payments: NewHTTPCaller(PaymentServiceTarget, urls.Payment, transport),
	}
}

// FallbackUser is served when the user service cannot answer
func FallbackUser(id models.Ref) domain.User {
	return domain.User{ID: id, FullName: UnknownUserName, Email: UnknownUserEmail}
}

// FallbackProduct is served when the product service cannot answer
func FallbackProduct(id models.Ref) domain.Product {
	return domain.Product{ID: id, Name: fmt.Sprintf("Product %s", id), Price: decimal.Zero}
}

func (c *ServiceClient) GetUser(ctx context.Context, id models.Ref) circuitbreaker.Result[domain.User] {
	result, _ := circuitbreaker.CallWithFallback(ctx, c.breakers, c.users.Target(),
		func(ctx context.Context) (domain.User, error) {
			var user domain.User
			err := c.users.Call(ctx, http.MethodGet, "/users/"+url.PathEscape(id.String()), nil, &user)
			return user, err
		},
		func(error) domain.User { return FallbackUser(id) },
	)
	return result
}

func (c *ServiceClient) GetProduct(ctx context.Context, id models.Ref) circuitbreaker.Result[domain.Product] {
	result, _ := circuitbreaker.CallWithFallback(ctx, c.breakers, c.products.Target(),
		func(ctx context.Context) (domain.Product, error) {
			var product domain.Product
			err := c.products.Call(ctx, http.MethodGet, "/products/"+url.PathEscape(id.String()), nil, &product)
			return product, err
		},
		func(error) domain.Product { return FallbackProduct(id) },
	)
	return result
}

type stockRequest struct {
	Quantity int `json:"quantity"`
}

func (c *ServiceClient) ReserveStock(ctx context.Context, id models.Ref, quantity int) error {
	return c.stock(ctx, "reserve", id, quantity)
}

func (c *ServiceClient) ReleaseStock(ctx context.Context, id models.Ref, quantity int) error {
	return c.stock(ctx, "release", id, quantity)
}

func (c *ServiceClient) stock(ctx context.Context, action string, id models.Ref, quantity int) error {
	path := fmt.Sprintf("/products/%s/%s", url.PathEscape(id.String()), action)
	_, err := c.breakers.Execute(ctx, c.products.Target(), func(ctx context.Context) (any, error) {
		return nil, c.products.Call(ctx, http.MethodPost, path, stockRequest{Quantity: quantity}, nil)
	})
	if err != nil {
		return errors.Wrapf(err, "%s stock for product %s", action, id)
	}
	return nil
}

type paymentRequest struct {
	OrderID string      `json:"order_id"`
	Amount  json.Number `json:"amount"`
	UserID  string      `json:"user_id"`
}

func (c *ServiceClient) CreatePayment(ctx context.Context, orderID models.ID, amount decimal.Decimal, userID models.Ref) error {
	_, err := c.breakers.Execute(ctx, c.payments.Target(), func(ctx context.Context) (any, error) {
		return nil, c.payments.Call(ctx, http.MethodPost, "/payments", paymentRequest{
			OrderID: orderID.String(),
			Amount:  models.AmountJSON(amount),
			UserID:  userID.String(),
		}, nil)
	})
	if err != nil {
		return errors.Wrapf(err, "create payment for order %s", orderID)
	}
	return nil
}

func (c *ServiceClient) CancelPayment(ctx context.Context, orderID models.ID) error {
	path := fmt.Sprintf("/payments/%s/cancel", url.PathEscape(orderID.String()))
	_, err := c.breakers.Execute(ctx, c.payments.Target(), func(ctx context.Context) (any, error) {
		return nil, c.payments.Call(ctx, http.MethodPost, path, nil, nil)
	})
	if err != nil {
		return errors.Wrapf(err, "cancel payment for order %s", orderID)
	}
	return nil
}
