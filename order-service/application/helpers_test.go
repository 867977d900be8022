package application

import (
	"net/http"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/circuitbreaker"
	"github.com/draftea/order-system/shared/models"
)

// rejection mimics a downstream answer with a status code
type rejection struct {
	status int
}

func (r *rejection) Error() string       { return http.StatusText(r.status) }
func (r *rejection) IsNotFound() bool    { return r.status == http.StatusNotFound }
func (r *rejection) IsClientError() bool { return r.status >= 400 && r.status < 500 }

// callLog records the order of downstream calls across mocks
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amountOf(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func foundUser(id models.Ref) circuitbreaker.Result[domain.User] {
	return circuitbreaker.Result[domain.User]{Value: domain.User{ID: id, FullName: "Ada Lovelace", Email: "ada@example.com"}}
}

func foundProduct(id models.Ref) circuitbreaker.Result[domain.Product] {
	return circuitbreaker.Result[domain.Product]{Value: domain.Product{ID: id, Name: "Keyboard", Price: dec("10.00"), StockQuantity: 10}}
}

func twoItemOrder() (*domain.Order, error) {
	return domain.NewOrder("1", []domain.OrderItem{
		{ProductID: "5", Quantity: 3, Price: dec("10.00")},
		{ProductID: "7", Quantity: 1, Price: dec("2.50")},
	}, "Main St 1")
}
