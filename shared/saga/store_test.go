package saga

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-system/shared/models"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	older := Instance{ID: models.GenerateUUID(), Name: "order", Status: StatusFailed, CreatedAt: now.Add(-time.Minute),
		Steps: []StepRecord{{Name: "reserve_stock:1", Status: StepCompensated}}}
	newer := Instance{ID: models.GenerateUUID(), Name: "order", Status: StatusFailed, CreatedAt: now}
	done := Instance{ID: models.GenerateUUID(), Name: "order", Status: StatusCompleted, CreatedAt: now}

	for _, i := range []Instance{newer, done, older} {
		require.NoError(t, store.Save(ctx, i))
	}

	older.Steps[0].Status = StepCompensationFailed
	got, err := store.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, StepCompensated, got.Steps[0].Status, "store keeps its own copy")

	failed, err := store.ListByStatus(ctx, StatusFailed, 0)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, older.ID, failed[0].ID)

	limited, err := store.ListByStatus(ctx, StatusFailed, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = store.Get(ctx, models.GenerateUUID())
	assert.ErrorIs(t, err, ErrSagaNotFound)
}
