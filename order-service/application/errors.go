package application

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/draftea/order-system/shared/circuitbreaker"
	"github.com/draftea/order-system/shared/models"
)

// FailureKind classifies why a downstream interaction failed
type FailureKind string

const (
	// FailureRejected: the downstream service answered and refused (4xx)
	FailureRejected FailureKind = "rejected"
	// FailureUnavailable: no answer (open breaker, timeout, transport error)
	FailureUnavailable FailureKind = "unavailable"
	FailureInternal    FailureKind = "internal"
)

// SagaFailedError is returned by CreateOrder when the order saga failed
// and its completed steps were compensated.
type SagaFailedError struct {
	SagaID            models.ID
	Step              string
	Kind              FailureKind
	Err               error
	CompensationError error
}

func (e *SagaFailedError) Error() string {
	msg := fmt.Sprintf("order saga failed at step %s: %v", e.Step, e.Err)
	if e.CompensationError != nil {
		msg += fmt.Sprintf(" (compensation incomplete: %v)", e.CompensationError)
	}
	return msg
}

func (e *SagaFailedError) Unwrap() error {
	return e.Err
}

type notFoundError interface {
	IsNotFound() bool
}

type clientError interface {
	IsClientError() bool
}

type transientError interface {
	Transient() bool
}

// Classify tells rejections from unavailability
func Classify(err error) FailureKind {
	var client clientError
	if errors.As(err, &client) && client.IsClientError() {
		return FailureRejected
	}

	var transient transientError
	if errors.As(err, &transient) && transient.Transient() {
		return FailureUnavailable
	}

	if errors.Is(err, circuitbreaker.ErrServiceUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return FailureUnavailable
	}

	return FailureInternal
}

func isNotFound(err error) bool {
	var nf notFoundError
	return errors.As(err, &nf) && nf.IsNotFound()
}
