package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/saga"
)

var _ saga.Store = (*PostgresSagaStore)(nil)

const sagaSchema = `
CREATE TABLE IF NOT EXISTS saga_instances (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL,
	steps      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saga_instances_status ON saga_instances (status, created_at);`

// PostgresSagaStore implements saga.Store using PostgreSQL
type PostgresSagaStore struct {
	db *sqlx.DB
}

func NewPostgresSagaStore(db *sqlx.DB) *PostgresSagaStore {
	return &PostgresSagaStore{db: db}
}

// postgresSaga represents a saga snapshot in database
type postgresSaga struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	Steps     []byte    `db:"steps"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *PostgresSagaStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sagaSchema)
	return errors.Wrap(err, "failed to create saga schema")
}

// Save upserts the latest snapshot of a saga
func (s *PostgresSagaStore) Save(ctx context.Context, instance saga.Instance) error {
	row, err := s.toPostgres(instance)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO saga_instances (id, name, status, steps, created_at, updated_at)
		VALUES (:id, :name, :status, :steps, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrap(err, "failed to save saga")
	}
	return nil
}

func (s *PostgresSagaStore) Get(ctx context.Context, id models.ID) (*saga.Instance, error) {
	query := `
		SELECT id, name, status, steps, created_at, updated_at
		FROM saga_instances
		WHERE id = $1`

	var row postgresSaga
	if err := s.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(saga.ErrSagaNotFound, id.String())
		}
		return nil, errors.Wrap(err, "failed to get saga")
	}

	return s.toDomain(&row)
}

func (s *PostgresSagaStore) ListByStatus(ctx context.Context, status saga.Status, limit int) ([]saga.Instance, error) {
	query := `
		SELECT id, name, status, steps, created_at, updated_at
		FROM saga_instances
		WHERE status = $1
		ORDER BY created_at ASC`
	args := []interface{}{string(status)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var rows []postgresSaga
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list sagas")
	}

	out := make([]saga.Instance, 0, len(rows))
	for i := range rows {
		instance, err := s.toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *instance)
	}
	return out, nil
}

func (s *PostgresSagaStore) toPostgres(instance saga.Instance) (*postgresSaga, error) {
	steps, err := json.Marshal(instance.Steps)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal saga steps")
	}

	return &postgresSaga{
		ID:        instance.ID.String(),
		Name:      instance.Name,
		Status:    string(instance.Status),
		Steps:     steps,
		CreatedAt: instance.CreatedAt,
		UpdatedAt: instance.UpdatedAt,
	}, nil
}

func (s *PostgresSagaStore) toDomain(row *postgresSaga) (*saga.Instance, error) {
	id, err := models.NewID(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid saga ID")
	}

	var steps []saga.StepRecord
	if err := json.Unmarshal(row.Steps, &steps); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal saga steps")
	}

	return &saga.Instance{
		ID:        id,
		Name:      row.Name,
		Status:    saga.Status(row.Status),
		Steps:     steps,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
