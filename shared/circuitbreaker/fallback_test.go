package circuitbreaker

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   string
	Name string
}

func unknownUser(_ error) user {
	return user{Name: "Unknown User"}
}

func TestCallWithFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("success is not degraded", func(t *testing.T) {
		m := newTestManager(time.Minute)

		res, err := CallWithFallback(ctx, m, "user-service", func(ctx context.Context) (user, error) {
			return user{ID: "1", Name: "Ada"}, nil
		}, unknownUser)

		require.NoError(t, err)
		assert.False(t, res.Degraded)
		assert.NoError(t, res.Cause)
		assert.Equal(t, "Ada", res.Value.Name)
	})

	t.Run("failure serves fallback", func(t *testing.T) {
		m := newTestManager(time.Minute)

		res, err := CallWithFallback(ctx, m, "user-service", func(ctx context.Context) (user, error) {
			return user{}, errDownstream
		}, unknownUser)

		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.ErrorIs(t, res.Cause, errDownstream)
		assert.Equal(t, "Unknown User", res.Value.Name)
	})

	t.Run("open breaker serves fallback without calling", func(t *testing.T) {
		m := newTestManager(time.Minute)
		calls := 0
		fn := func(ctx context.Context) (user, error) {
			calls++
			return user{}, errDownstream
		}

		for i := 0; i < 5; i++ {
			_, _ = CallWithFallback(ctx, m, "user-service", fn, unknownUser)
		}
		res, err := CallWithFallback(ctx, m, "user-service", fn, unknownUser)

		require.NoError(t, err)
		assert.Equal(t, 5, calls)
		assert.True(t, res.Degraded)
		assert.ErrorIs(t, res.Cause, ErrServiceUnavailable)
	})

	t.Run("no fallback returns error", func(t *testing.T) {
		m := newTestManager(time.Minute)

		_, err := CallWithFallback[user](ctx, m, "payment-service", func(ctx context.Context) (user, error) {
			return user{}, errors.Wrap(errDownstream, "create payment")
		}, nil)

		assert.ErrorIs(t, err, errDownstream)
	})
}
