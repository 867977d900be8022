package saga

import (
	"time"

	"github.com/draftea/order-system/shared/models"
)

// Status represents the current status of a saga instance
type Status string

const (
	StatusPending      Status = "pending"
	StatusExecuting    Status = "executing"
	StatusCompensating Status = "compensating"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// StepStatus represents the status of a single step. Compensated and
// CompensationFailed only ever follow Completed.
type StepStatus string

const (
	StepPending            StepStatus = "pending"
	StepCompleted          StepStatus = "completed"
	StepFailed             StepStatus = "failed"
	StepCompensated        StepStatus = "compensated"
	StepCompensationFailed StepStatus = "compensation_failed"
)

// StepRecord is the observable trace of one step
type StepRecord struct {
	Name   string     `json:"name" db:"name"`
	Status StepStatus `json:"status" db:"status"`
	Error  string     `json:"error,omitempty" db:"error"`
}

// Instance is a snapshot of one saga run
type Instance struct {
	ID        models.ID    `json:"id" db:"id"`
	Name      string       `json:"name" db:"name"`
	Status    Status       `json:"status" db:"status"`
	Steps     []StepRecord `json:"steps"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so stores never share the step slice with a running saga
func (i Instance) Clone() Instance {
	steps := make([]StepRecord, len(i.Steps))
	copy(steps, i.Steps)
	i.Steps = steps
	return i
}

func (i *Instance) transition(status Status) {
	i.Status = status
	i.UpdatedAt = time.Now().UTC()
}

// CompensationFailure records a compensation that could not be applied
type CompensationFailure struct {
	Step string
	Err  error
}

func (f CompensationFailure) Error() string {
	return "compensate " + f.Step + ": " + f.Err.Error()
}

func (f CompensationFailure) Unwrap() error {
	return f.Err
}
