package circuitbreaker

import (
	"context"

	"go.uber.org/zap"
)

// Result is the answer of a protected call. When Degraded is set, Value is
// the fallback and Cause tells why the real call was not answered.
type Result[T any] struct {
	Value    T
	Degraded bool
	Cause    error
}

// Fallback builds the value served in place of a failed call
type Fallback[T any] func(cause error) T

// CallWithFallback runs fn through the breaker of target. With a fallback it
// never fails: any error, including an open breaker, yields a degraded result.
// Without one the error is returned as is.
func CallWithFallback[T any](
	ctx context.Context,
	m *Manager,
	target string,
	fn func(ctx context.Context) (T, error),
	fallback Fallback[T],
) (Result[T], error) {
	raw, err := m.Execute(ctx, target, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err == nil {
		value, _ := raw.(T)
		return Result[T]{Value: value}, nil
	}

	if fallback == nil {
		return Result[T]{}, err
	}

	m.logger.Warn("downstream call failed, serving fallback",
		zap.String("target", target),
		zap.Error(err),
	)

	return Result[T]{Value: fallback(err), Degraded: true, Cause: err}, nil
}
