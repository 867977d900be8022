package circuitbreaker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDownstream = errors.New("downstream failed")

func failing(calls *int32) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return nil, errDownstream
	}
}

func succeeding(calls *int32) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return "ok", nil
	}
}

func newTestManager(recovery time.Duration) *Manager {
	return NewManager(zap.NewNop(), Config{
		FailureThreshold: 5,
		RecoveryTimeout:  recovery,
		CallTimeout:      time.Second,
	})
}

func TestManager_OpensAfterThreshold(t *testing.T) {
	m := newTestManager(time.Minute)
	ctx := context.Background()
	var calls int32

	for i := 0; i < 4; i++ {
		_, err := m.Execute(ctx, "user-service", failing(&calls))
		assert.ErrorIs(t, err, errDownstream)
	}
	assert.Equal(t, StateClosed, m.State("user-service"))
	_, opened := m.OpenedAt("user-service")
	assert.False(t, opened)

	_, err := m.Execute(ctx, "user-service", failing(&calls))
	assert.ErrorIs(t, err, errDownstream)
	assert.Equal(t, StateOpen, m.State("user-service"))

	openedAt, opened := m.OpenedAt("user-service")
	assert.True(t, opened)
	assert.WithinDuration(t, time.Now(), openedAt, time.Second)

	_, err = m.Execute(ctx, "user-service", succeeding(&calls))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls), "open breaker must not call through")
}

func TestManager_SuccessResetsFailures(t *testing.T) {
	m := newTestManager(time.Minute)
	ctx := context.Background()
	var calls int32

	for i := 0; i < 4; i++ {
		_, _ = m.Execute(ctx, "product-service", failing(&calls))
	}
	result, err := m.Execute(ctx, "product-service", succeeding(&calls))
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, uint32(0), m.Counts("product-service").ConsecutiveFailures)

	for i := 0; i < 4; i++ {
		_, _ = m.Execute(ctx, "product-service", failing(&calls))
	}
	assert.Equal(t, StateClosed, m.State("product-service"))
	assert.Equal(t, uint32(4), m.Counts("product-service").ConsecutiveFailures)
}

func TestManager_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name     string
		probe    func(calls *int32) func(ctx context.Context) (any, error)
		expected State
	}{
		{name: "successful probe closes", probe: succeeding, expected: StateClosed},
		{name: "failed probe reopens", probe: failing, expected: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(50 * time.Millisecond)
			ctx := context.Background()
			var calls int32

			for i := 0; i < 5; i++ {
				_, _ = m.Execute(ctx, "payment-service", failing(&calls))
			}
			require.Equal(t, StateOpen, m.State("payment-service"))
			firstOpen, _ := m.OpenedAt("payment-service")

			time.Sleep(80 * time.Millisecond)
			assert.Equal(t, StateHalfOpen, m.State("payment-service"))

			_, _ = m.Execute(ctx, "payment-service", tt.probe(&calls))
			assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
			assert.Equal(t, tt.expected, m.State("payment-service"))

			if tt.expected == StateOpen {
				reopened, _ := m.OpenedAt("payment-service")
				assert.True(t, reopened.After(firstOpen))
			}
		})
	}
}

func TestManager_HalfOpenAllowsSingleProbe(t *testing.T) {
	m := newTestManager(20 * time.Millisecond)
	ctx := context.Background()
	var calls int32

	for i := 0; i < 5; i++ {
		_, _ = m.Execute(ctx, "user-service", failing(&calls))
	}
	time.Sleep(40 * time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := m.Execute(ctx, "user-service", func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "ok", nil
		})
		assert.NoError(t, err)
	}()

	<-started
	var rejected int32
	_, err := m.Execute(ctx, "user-service", succeeding(&rejected))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Zero(t, atomic.LoadInt32(&rejected))

	close(release)
	wg.Wait()
	assert.Equal(t, StateClosed, m.State("user-service"))
}

func TestManager_CallTimeoutCountsAsFailure(t *testing.T) {
	m := NewManager(zap.NewNop(), Config{CallTimeout: 20 * time.Millisecond})

	_, err := m.Execute(context.Background(), "product-service", func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, uint32(1), m.Counts("product-service").ConsecutiveFailures)
}

func TestManager_CancelledContextIsNotAttempted(t *testing.T) {
	m := newTestManager(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int32

	_, err := m.Execute(ctx, "user-service", succeeding(&calls))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Equal(t, StateUnknown, m.State("user-service"))
}

func TestManager_TargetsAreIndependent(t *testing.T) {
	m := newTestManager(time.Minute)
	ctx := context.Background()
	var calls int32

	for i := 0; i < 5; i++ {
		_, _ = m.Execute(ctx, "user-service", failing(&calls))
	}
	_, err := m.Execute(ctx, "product-service", succeeding(&calls))

	assert.NoError(t, err)
	assert.Equal(t, map[string]State{
		"user-service":    StateOpen,
		"product-service": StateClosed,
	}, m.Snapshot())
}

func TestManager_ConcurrentFailuresOpenOnce(t *testing.T) {
	m := newTestManager(time.Minute)
	ctx := context.Background()
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Execute(ctx, "user-service", failing(&calls))
		}()
	}
	wg.Wait()

	assert.Equal(t, StateOpen, m.State("user-service"))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(5))

	_, err := m.Execute(ctx, "user-service", failing(&calls))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

type recordingListener struct {
	mu          sync.Mutex
	transitions []State
}

func (l *recordingListener) OnStateChange(_ string, _ State, to State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitions = append(l.transitions, to)
}

func (l *recordingListener) seen() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.transitions...)
}

func TestManager_NotifiesListeners(t *testing.T) {
	m := newTestManager(time.Minute)
	listener := &recordingListener{}
	m.RegisterStateChangeListener(listener)
	m.RegisterStateChangeListener(nil)
	var calls int32

	for i := 0; i < 5; i++ {
		_, _ = m.Execute(context.Background(), "user-service", failing(&calls))
	}

	assert.Eventually(t, func() bool {
		return len(listener.seen()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []State{StateOpen}, listener.seen())
}

func TestConfig_WithDefaults(t *testing.T) {
	m := NewManager(nil, Config{})
	assert.Equal(t, DefaultConfig(), m.Config())
}

func TestManager_CallerCancellationIsNotCounted(t *testing.T) {
	m := newTestManager(time.Minute)

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		_, err := m.Execute(ctx, "product-service", func(callCtx context.Context) (any, error) {
			// client disconnects while the call is in flight
			cancel()
			<-callCtx.Done()
			return nil, callCtx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
	}

	assert.Equal(t, StateClosed, m.State("product-service"))
	assert.Equal(t, uint32(0), m.Counts("product-service").TotalFailures)
}

func TestManager_CallerDeadlineIsNotCounted(t *testing.T) {
	m := newTestManager(time.Minute)

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		_, err := m.Execute(ctx, "product-service", func(callCtx context.Context) (any, error) {
			<-callCtx.Done()
			return nil, callCtx.Err()
		})
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}

	assert.Equal(t, StateClosed, m.State("product-service"))
}
