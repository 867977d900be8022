package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
)

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

const orderSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id               UUID PRIMARY KEY,
	user_id          TEXT NOT NULL,
	shipping_address TEXT NOT NULL,
	total_amount     NUMERIC(12, 2) NOT NULL,
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id, created_at);
CREATE TABLE IF NOT EXISTS order_items (
	order_id   UUID NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
	position   INT NOT NULL,
	product_id TEXT NOT NULL,
	quantity   INT NOT NULL CHECK (quantity > 0),
	price      NUMERIC(12, 2) NOT NULL,
	PRIMARY KEY (order_id, position)
);`

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents an order in database
type postgresOrder struct {
	ID              string          `db:"id"`
	UserID          string          `db:"user_id"`
	ShippingAddress string          `db:"shipping_address"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// postgresOrderItem represents an order line in database
type postgresOrderItem struct {
	OrderID   string          `db:"order_id"`
	Position  int             `db:"position"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
}

func (r *PostgresOrderRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, orderSchema)
	return errors.Wrap(err, "failed to create order schema")
}

// Create inserts the order and its items in one transaction
func (r *PostgresOrderRepository) Create(ctx context.Context, order *domain.Order) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	row, items := r.toPostgres(order)

	query := `
		INSERT INTO orders (id, user_id, shipping_address, total_amount, status, created_at, updated_at)
		VALUES (:id, :user_id, :shipping_address, :total_amount, :status, :created_at, :updated_at)`

	if _, err = tx.NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, quantity, price)
		VALUES (:order_id, :position, :product_id, :quantity, :price)`

	for _, item := range items {
		if _, err = tx.NamedExecContext(ctx, itemQuery, item); err != nil {
			return errors.Wrapf(err, "failed to insert order item %d", item.Position)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit order")
	}
	return nil
}

// Delete removes an order. Deleting a missing order is not an error.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id models.ID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete order")
	}
	return nil
}

// FindByID finds an order by ID
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, shipping_address, total_amount, status, created_at, updated_at
		FROM orders
		WHERE id = $1`

	var row postgresOrder
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	items, err := r.findItems(ctx, []string{row.ID})
	if err != nil {
		return nil, err
	}

	return r.toDomain(row, items[row.ID]), nil
}

// FindByUserID finds the orders of a user, oldest first
func (r *PostgresOrderRepository) FindByUserID(ctx context.Context, userID models.Ref) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, shipping_address, total_amount, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at`

	var rows []postgresOrder
	if err := r.db.SelectContext(ctx, &rows, query, userID.String()); err != nil {
		return nil, errors.Wrap(err, "failed to find orders by user ID")
	}

	if len(rows) == 0 {
		return []*domain.Order{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	items, err := r.findItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, len(rows))
	for i, row := range rows {
		orders[i] = r.toDomain(row, items[row.ID])
	}
	return orders, nil
}

func (r *PostgresOrderRepository) findItems(ctx context.Context, orderIDs []string) (map[string][]postgresOrderItem, error) {
	query := `
		SELECT order_id, position, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`

	var rows []postgresOrderItem
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(orderIDs)); err != nil {
		return nil, errors.Wrap(err, "failed to find order items")
	}

	byOrder := make(map[string][]postgresOrderItem, len(orderIDs))
	for _, row := range rows {
		byOrder[row.OrderID] = append(byOrder[row.OrderID], row)
	}
	return byOrder, nil
}

func (r *PostgresOrderRepository) toPostgres(order *domain.Order) (postgresOrder, []postgresOrderItem) {
	items := make([]postgresOrderItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = postgresOrderItem{
			OrderID:   order.ID.String(),
			Position:  i,
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	return postgresOrder{
		ID:              order.ID.String(),
		UserID:          order.UserID.String(),
		ShippingAddress: order.ShippingAddress,
		TotalAmount:     order.TotalAmount,
		Status:          string(order.Status),
		CreatedAt:       order.Timestamps.CreatedAt,
		UpdatedAt:       order.Timestamps.UpdatedAt,
	}, items
}

func (r *PostgresOrderRepository) toDomain(row postgresOrder, rows []postgresOrderItem) *domain.Order {
	items := make([]domain.OrderItem, len(rows))
	for i, item := range rows {
		items[i] = domain.OrderItem{
			ProductID: models.Ref(item.ProductID),
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	return &domain.Order{
		ID:              models.ID(row.ID),
		UserID:          models.Ref(row.UserID),
		Items:           items,
		ShippingAddress: row.ShippingAddress,
		TotalAmount:     row.TotalAmount,
		Status:          domain.OrderStatus(row.Status),
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
	}
}
