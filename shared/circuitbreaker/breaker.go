package circuitbreaker

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrServiceUnavailable is returned when the breaker rejects a call without attempting it
var ErrServiceUnavailable = errors.New("service unavailable")

// State represents circuit breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
	StateUnknown  State = "unknown"
)

// Counts represents circuit breaker statistics
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// StateChangeListener is notified when a breaker changes state
type StateChangeListener interface {
	OnStateChange(target string, from State, to State)
}

type target struct {
	breaker *gobreaker.CircuitBreaker

	mu       sync.Mutex
	openedAt time.Time
}

// Manager owns one breaker per downstream target. Breakers are created on
// first use and live for the lifetime of the process.
type Manager struct {
	config    Config
	targets   map[string]*target
	listeners []StateChangeListener
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewManager creates a new circuit breaker manager
func NewManager(logger *zap.Logger, config Config) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		config:  config.withDefaults(),
		targets: make(map[string]*target),
		logger:  logger,
	}
}

// Config returns the effective configuration
func (m *Manager) Config() Config {
	return m.config
}

func (m *Manager) get(name string) *target {
	m.mu.RLock()
	t, exists := m.targets[name]
	m.mu.RUnlock()

	if exists {
		return t
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if t, exists = m.targets[name]; exists {
		return t
	}

	t = &target{}
	threshold := m.config.FailureThreshold
	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     m.config.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(_ string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				t.mu.Lock()
				t.openedAt = time.Now()
				t.mu.Unlock()
			}
			m.handleStateChange(name, from, to)
		},
	})
	m.targets[name] = t

	m.logger.Info("created circuit breaker",
		zap.String("target", name),
		zap.Uint32("failure_threshold", threshold),
		zap.Duration("recovery_timeout", m.config.RecoveryTimeout),
	)

	return t
}

// abandonedCall marks a failure caused by the caller's own context going away.
// It says nothing about the target and is never counted as a failure.
type abandonedCall struct {
	err error
}

func (a *abandonedCall) Error() string { return a.err.Error() }

func (a *abandonedCall) Unwrap() error { return a.err }

func isSuccessful(err error) bool {
	var abandoned *abandonedCall
	return err == nil || errors.As(err, &abandoned)
}

// Execute performs a single attempt of fn through the breaker of target.
// The attempt is bounded by CallTimeout; a timeout counts as a failure.
// If ctx itself ends while fn runs, the error is returned but not counted.
// While the breaker is open, or a half-open probe is already in flight,
// fn is not called and ErrServiceUnavailable is returned.
func (m *Manager) Execute(ctx context.Context, targetName string, fn func(ctx context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s call not attempted", targetName)
	}

	t := m.get(targetName)

	result, err := t.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, m.config.CallTimeout)
		defer cancel()
		result, err := fn(callCtx)
		if err != nil && ctx.Err() != nil {
			return result, &abandonedCall{err: err}
		}
		return result, err
	})
	if err != nil {
		var abandoned *abandonedCall
		if errors.As(err, &abandoned) {
			m.logger.Debug("call abandoned by caller, not counted", zap.String("target", targetName))
			return nil, abandoned.err
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			m.logger.Debug("circuit breaker open, call rejected", zap.String("target", targetName))
			return nil, errors.Wrapf(ErrServiceUnavailable, "%s: circuit breaker open", targetName)
		}
		if errors.Is(err, gobreaker.ErrTooManyRequests) {
			m.logger.Debug("circuit breaker half-open probe in flight, call rejected", zap.String("target", targetName))
			return nil, errors.Wrapf(ErrServiceUnavailable, "%s: circuit breaker half-open", targetName)
		}
		return nil, err
	}

	return result, nil
}

// State returns the current state of target, StateUnknown if it was never called
func (m *Manager) State(targetName string) State {
	m.mu.RLock()
	t, exists := m.targets[targetName]
	m.mu.RUnlock()

	if !exists {
		return StateUnknown
	}

	return convertState(t.breaker.State())
}

// Counts returns the current counts of target
func (m *Manager) Counts(targetName string) Counts {
	m.mu.RLock()
	t, exists := m.targets[targetName]
	m.mu.RUnlock()

	if !exists {
		return Counts{}
	}

	counts := t.breaker.Counts()

	return Counts{
		Requests:             counts.Requests,
		TotalSuccesses:       counts.TotalSuccesses,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}

// OpenedAt returns when target last transitioned to open
func (m *Manager) OpenedAt(targetName string) (time.Time, bool) {
	m.mu.RLock()
	t, exists := m.targets[targetName]
	m.mu.RUnlock()

	if !exists {
		return time.Time{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.openedAt, !t.openedAt.IsZero()
}

// Snapshot returns the state of every known target
func (m *Manager) Snapshot() map[string]State {
	m.mu.RLock()
	names := make([]string, 0, len(m.targets))
	for name := range m.targets {
		names = append(names, name)
	}
	m.mu.RUnlock()

	out := make(map[string]State, len(names))
	for _, name := range names {
		out[name] = m.State(name)
	}
	return out
}

// RegisterStateChangeListener registers a listener for state change notifications
func (m *Manager) RegisterStateChangeListener(listener StateChangeListener) {
	if listener == nil {
		m.logger.Warn("attempted to register a nil state change listener")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners = append(m.listeners, listener)
}

// handleStateChange runs under the breaker's own lock: it must not call back into it
func (m *Manager) handleStateChange(targetName string, from gobreaker.State, to gobreaker.State) {
	fields := []zap.Field{
		zap.String("target", targetName),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	}

	switch to {
	case gobreaker.StateOpen:
		m.logger.Error("circuit breaker opened, calls will fast-fail", fields...)
	case gobreaker.StateHalfOpen:
		m.logger.Info("circuit breaker half-open, probing recovery", fields...)
	case gobreaker.StateClosed:
		m.logger.Info("circuit breaker closed", fields...)
	}

	fromState := convertState(from)
	toState := convertState(to)

	m.mu.RLock()
	listeners := make([]StateChangeListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, listener := range listeners {
		go func(l StateChangeListener) {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("circuit breaker listener panic",
						zap.String("target", targetName),
						zap.Any("panic", r),
					)
				}
			}()

			l.OnStateChange(targetName, fromState, toState)
		}(listener)
	}
}

func convertState(state gobreaker.State) State {
	switch state {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateUnknown
	}
}
