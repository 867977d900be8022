package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
)

const defaultCompensationTimeout = 30 * time.Second

// ErrEmptySaga is returned when a saga is executed without steps
var ErrEmptySaga = errors.New("saga has no steps")

// Action performs a step's forward work and returns the next state
type Action[C any] func(ctx context.Context, state C) (C, error)

// Compensation undoes a completed step. It receives the state the step produced.
type Compensation[C any] func(ctx context.Context, state C) error

// Step is a named pair of forward action and compensation.
// A nil Compensate means the step has nothing to undo.
type Step[C any] struct {
	Name       string
	Execute    Action[C]
	Compensate Compensation[C]
}

// StepOutcome is the result of running one forward action
type StepOutcome struct {
	Step   string
	Status StepStatus
	Err    error
}

func (o StepOutcome) Succeeded() bool {
	return o.Status == StepCompleted
}

// Result of a saga execution
type Result[C any] struct {
	SagaID               models.ID
	Status               Status
	Output               C // zero value unless the saga completed
	FailedStep           string
	Err                  error
	CompensationFailures []CompensationFailure
	Steps                []StepRecord
}

func (r *Result[C]) Succeeded() bool {
	return r.Status == StatusCompleted
}

// CompensationError combines every compensation failure, nil when all compensations applied
func (r *Result[C]) CompensationError() error {
	var err error
	for _, f := range r.CompensationFailures {
		err = multierr.Append(err, f)
	}
	return err
}

type options struct {
	store               Store
	compensationTimeout time.Duration
}

// Option configures an orchestrator
type Option func(*options)

// WithStore records a snapshot of the saga on every transition
func WithStore(store Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCompensationTimeout bounds each compensation action
func WithCompensationTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.compensationTimeout = d
		}
	}
}

// Orchestrator runs steps in registration order and, when one fails,
// compensates the completed ones in reverse order. An orchestrator is built
// per saga run and is not safe for concurrent use.
type Orchestrator[C any] struct {
	name   string
	steps  []Step[C]
	logger *zap.Logger
	opts   options
}

func New[C any](name string, logger *zap.Logger, opts ...Option) *Orchestrator[C] {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := options{compensationTimeout: defaultCompensationTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	return &Orchestrator[C]{
		name:   name,
		logger: logger,
		opts:   o,
	}
}

// AddStep appends a step. Steps run in the order they were added.
func (o *Orchestrator[C]) AddStep(step Step[C]) *Orchestrator[C] {
	o.steps = append(o.steps, step)
	return o
}

type completedStep[C any] struct {
	index int
	state C
}

// Execute runs the saga starting from initial. Cancellation of ctx is treated
// as a failure of the step that was about to run or was running, and triggers
// compensation. Compensations run detached from ctx cancellation.
func (o *Orchestrator[C]) Execute(ctx context.Context, initial C) *Result[C] {
	start := time.Now()
	instance := &Instance{
		ID:        models.GenerateUUID(),
		Name:      o.name,
		Status:    StatusPending,
		Steps:     make([]StepRecord, len(o.steps)),
		CreatedAt: start.UTC(),
		UpdatedAt: start.UTC(),
	}
	for i, step := range o.steps {
		instance.Steps[i] = StepRecord{Name: step.Name, Status: StepPending}
	}

	ctx, span := telemetry.StartSpan(ctx, "saga."+o.name,
		trace.WithAttributes(
			attribute.String("saga_id", instance.ID.String()),
			attribute.Int("steps", len(o.steps)),
		),
	)
	defer span.End()

	logger := logging.WithTrace(ctx, o.logger).With(
		zap.String("saga", o.name),
		zap.String("saga_id", instance.ID.String()),
	)

	result := &Result[C]{SagaID: instance.ID}
	defer func() {
		result.Steps = instance.Clone().Steps

		telemetry.RecordCounter(ctx, "saga_executions_total", "Total saga executions", 1,
			attribute.String("saga", o.name),
			attribute.String("status", string(result.Status)),
		)
		telemetry.RecordHistogram(ctx, "saga_duration_seconds", "Saga execution duration", time.Since(start).Seconds(),
			attribute.String("saga", o.name),
			attribute.String("status", string(result.Status)),
		)
	}()

	if len(o.steps) == 0 {
		instance.transition(StatusFailed)
		o.save(ctx, logger, instance)
		result.Status = StatusFailed
		result.Err = ErrEmptySaga
		span.RecordError(ErrEmptySaga)
		span.SetStatus(codes.Error, ErrEmptySaga.Error())
		return result
	}

	instance.transition(StatusExecuting)
	o.save(ctx, logger, instance)
	logger.Info("saga started", zap.Int("steps", len(o.steps)))

	state := initial
	completed := make([]completedStep[C], 0, len(o.steps))

	for i, step := range o.steps {
		next, outcome := o.runStep(ctx, step, state)
		if !outcome.Succeeded() {
			instance.Steps[i].Status = StepFailed
			instance.Steps[i].Error = outcome.Err.Error()
			instance.transition(StatusCompensating)
			o.save(ctx, logger, instance)

			logger.Warn("saga step failed, compensating",
				zap.String("step", step.Name),
				zap.Int("completed_steps", len(completed)),
				zap.Error(outcome.Err),
			)

			result.FailedStep = step.Name
			result.Err = outcome.Err
			result.CompensationFailures = o.compensate(ctx, logger, instance, completed)

			instance.transition(StatusFailed)
			o.save(ctx, logger, instance)

			result.Status = StatusFailed
			span.RecordError(outcome.Err)
			span.SetStatus(codes.Error, fmt.Sprintf("step %s failed", step.Name))

			logger.Error("saga failed",
				zap.String("failed_step", step.Name),
				zap.Int("compensation_failures", len(result.CompensationFailures)),
				zap.Error(outcome.Err),
			)
			return result
		}

		state = next
		completed = append(completed, completedStep[C]{index: i, state: next})
		instance.Steps[i].Status = StepCompleted
		o.save(ctx, logger, instance)
	}

	instance.transition(StatusCompleted)
	o.save(ctx, logger, instance)

	result.Status = StatusCompleted
	result.Output = state
	span.SetStatus(codes.Ok, "")
	logger.Info("saga completed", zap.Duration("duration", time.Since(start)))

	return result
}

func (o *Orchestrator[C]) runStep(ctx context.Context, step Step[C], state C) (next C, outcome StepOutcome) {
	outcome = StepOutcome{Step: step.Name}

	if err := ctx.Err(); err != nil {
		outcome.Status = StepFailed
		outcome.Err = errors.Wrap(err, "saga cancelled")
		return state, outcome
	}

	ctx, span := telemetry.StartSpan(ctx, "saga.step."+step.Name)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = StepFailed
			outcome.Err = errors.Errorf("step %s panicked: %v", step.Name, r)
			span.RecordError(outcome.Err)
			next = state
		}
	}()

	next, err := step.Execute(ctx, state)
	if err != nil {
		span.RecordError(err)
		outcome.Status = StepFailed
		outcome.Err = err
		return state, outcome
	}

	outcome.Status = StepCompleted
	return next, outcome
}

func (o *Orchestrator[C]) compensate(ctx context.Context, logger *zap.Logger, instance *Instance, completed []completedStep[C]) []CompensationFailure {
	var failures []CompensationFailure
	detached := context.WithoutCancel(ctx)

	for j := len(completed) - 1; j >= 0; j-- {
		done := completed[j]
		step := o.steps[done.index]

		if err := o.runCompensation(detached, step, done.state); err != nil {
			failures = append(failures, CompensationFailure{Step: step.Name, Err: err})
			instance.Steps[done.index].Status = StepCompensationFailed
			instance.Steps[done.index].Error = err.Error()
			logger.Error("compensation failed",
				zap.String("step", step.Name),
				zap.Error(err),
			)
		} else {
			instance.Steps[done.index].Status = StepCompensated
			logger.Info("step compensated", zap.String("step", step.Name))
		}
		o.save(detached, logger, instance)
	}

	return failures
}

func (o *Orchestrator[C]) runCompensation(ctx context.Context, step Step[C], state C) (err error) {
	if step.Compensate == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.compensationTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "saga.compensate."+step.Name)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("compensation of %s panicked: %v", step.Name, r)
		}
		if err != nil {
			span.RecordError(err)
		}
	}()

	return step.Compensate(ctx, state)
}

func (o *Orchestrator[C]) save(ctx context.Context, logger *zap.Logger, instance *Instance) {
	if o.opts.store == nil {
		return
	}

	if err := o.opts.store.Save(ctx, instance.Clone()); err != nil {
		logger.Warn("failed to save saga state", zap.String("status", string(instance.Status)), zap.Error(err))
	}
}
