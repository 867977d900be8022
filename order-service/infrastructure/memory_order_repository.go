package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
)

var _ domain.OrderRepository = (*MemoryOrderRepository)(nil)

// MemoryOrderRepository keeps orders in process memory
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[models.ID]domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[models.ID]domain.Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id models.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.orders, id)
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id models.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := copyOrder(&order)
	return &out, nil
}

func (r *MemoryOrderRepository) FindByUserID(_ context.Context, userID models.Ref) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]*domain.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			out := copyOrder(&order)
			orders = append(orders, &out)
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Timestamps.CreatedAt.Before(orders[j].Timestamps.CreatedAt)
	})
	return orders, nil
}

func copyOrder(order *domain.Order) domain.Order {
	out := *order
	out.Items = make([]domain.OrderItem, len(order.Items))
	copy(out.Items, order.Items)
	return out
}
