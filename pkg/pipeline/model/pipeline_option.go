package model

import "time"

// PipelineOption defines the interface for pipeline options. Options are
// attached when a pipeline is derived and observe every run of it, so
// implementations must tolerate concurrent runs.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	// PrepareStep runs once per step while the pipeline is derived,
	// walking the base chain and every overload chain in order.
	PrepareStep(parent, step *StepInfo) error

	pipelineRunOption

	// Finish runs when the pipeline is flushed.
	Finish() error
}

// pipelineRunOption defines the per-run callbacks.
type pipelineRunOption interface {
	// OnRunStart runs before the first interceptor turn.
	OnRunStart(run *RunInfo) error
	// OnStepDone runs after a step's core implementation succeeded.
	// attempt counts executions of the step within this run.
	OnStepDone(run *RunInfo, step *StepInfo, attempt int, elapsed time.Duration) error
	// OnRetry runs when a failed step is offered to the retrying
	// interceptor.
	OnRetry(run *RunInfo, step *StepInfo, attempt int, cause error) error
	// OnRunEnd runs once the run resolved, whatever the outcome.
	OnRunEnd(run *RunInfo, elapsed time.Duration, failed bool) error
}
