package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet      = errors.New("pipeline must be set")
	ErrDefinitionMustBeSet    = errors.New("definition must be set")
	ErrStepsMustBeSet         = errors.New("at least one step must be set")
	ErrStepNameMustBeSet      = errors.New("step name must be set")
	ErrStepNameDuplicated     = errors.New("step name must be unique")
	ErrStepRunMustBeSet       = errors.New("step run function must be set")
	ErrOverloadMatchMustBeSet = errors.New("overload match function must be set")
	ErrInterceptorMustBeSet   = errors.New("interceptor function must be set")

	// ErrHookConsumed is the cause of a run failure when a hook is invoked
	// twice outside of the retry protocol.
	ErrHookConsumed = errors.New("hook already consumed")
	// ErrRunFinished is returned by Hook.Invoke once the run has produced
	// its result and no further invocation can be honoured.
	ErrRunFinished = errors.New("run already finished")
	// ErrFailedStepSkipped is the cause of a run failure when the retrying
	// interceptor invokes a later hook while a step is still failed.
	ErrFailedStepSkipped = errors.New("failed step cannot be skipped")
	// ErrEntrypointUnclaimed is the cause of a run failure when the
	// definition requires an entrypoint claim and no interceptor invoked
	// the first step's hook.
	ErrEntrypointUnclaimed = errors.New("no interceptor claimed the first step")
)

// FaultSource tells whether a fault originates in a step implementation or
// in an interceptor.
type FaultSource string

const (
	FaultImplementation FaultSource = "implementation"
	FaultExtension      FaultSource = "extension"
)

// FaultSignal is handed to pass-through predicates before a fault is
// wrapped into a Result.
type FaultSignal struct {
	HookName string
	Source   FaultSource
	Err      error
}

// ContextualError wraps a fault together with the step and, for extension
// faults, the interceptor it originates from.
type ContextualError struct {
	HookName    string
	Source      FaultSource
	Interceptor string
	cause       error
}

func (e *ContextualError) Error() string {
	if e.Interceptor != "" {
		return fmt.Sprintf("step %q: %s fault from interceptor %q: %v", e.HookName, e.Source, e.Interceptor, e.cause)
	}

	return fmt.Sprintf("step %q: %s fault: %v", e.HookName, e.Source, e.cause)
}

// Cause returns the original fault.
func (e *ContextualError) Cause() error { return e.cause }

func (e *ContextualError) Unwrap() error { return e.cause }

// coerceError turns arbitrary panic values into errors so they can be
// stored as a fault cause.
func coerceError(value any) error {
	if err, ok := value.(error); ok {
		return err
	}

	return errors.Errorf("panic: %v", value)
}
