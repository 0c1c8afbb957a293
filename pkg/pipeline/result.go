package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Result is the tagged success/failure envelope of one run, produced
// exactly once per run.
type Result[T any] struct {
	runID     uuid.UUID
	createdAt time.Time
	value     T
	fault     *ContextualError
	success   bool
}

func newSuccess[T any](runID uuid.UUID, value T) Result[T] {
	return Result[T]{
		runID:     runID,
		createdAt: time.Now().UTC(),
		value:     value,
		success:   true,
	}
}

func newFailure[T any](runID uuid.UUID, fault *ContextualError) Result[T] {
	return Result[T]{
		runID:     runID,
		createdAt: time.Now().UTC(),
		fault:     fault,
	}
}

// RunID identifies the run that produced the result.
func (r Result[T]) RunID() uuid.UUID { return r.runID }

// CreatedAt is the time the result was produced.
func (r Result[T]) CreatedAt() time.Time { return r.createdAt }

func (r Result[T]) IsSuccess() bool { return r.success }

func (r Result[T]) IsFailure() bool { return !r.success }

// Value returns the run's output. Zero for failures.
func (r Result[T]) Value() T { return r.value }

// Fault returns the wrapped fault of a failed run, nil for successes.
func (r Result[T]) Fault() *ContextualError { return r.fault }

// Err returns the fault as a plain error, nil for successes.
func (r Result[T]) Err() error {
	if r.fault == nil {
		return nil
	}

	return r.fault
}
