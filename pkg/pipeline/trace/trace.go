// Package trace provides a pipeline option that logs the lifecycle of
// every run with zerolog. The engine itself stays silent without it.
package trace

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/interpipe/go-interpipe/pkg/pipeline/model"
)

type pipelineTracer struct {
	log zerolog.Logger
}

func (pt *pipelineTracer) New() error {
	return nil
}

func (pt *pipelineTracer) PrepareStep(parent, step *model.StepInfo) error {
	pt.log.Debug().
		Str("parent", parent.Name).
		Str("step", step.Name).
		Str("overload", step.Overload).
		Msg("step prepared")

	return nil
}

func (pt *pipelineTracer) OnRunStart(run *model.RunInfo) error {
	pt.log.Info().
		Str("run_id", run.ID.String()).
		Str("overload", run.Overload).
		Strs("interceptors", run.Interceptors).
		Msg("run started")

	return nil
}

func (pt *pipelineTracer) OnStepDone(run *model.RunInfo, step *model.StepInfo, attempt int, elapsed time.Duration) error {
	pt.log.Debug().
		Str("run_id", run.ID.String()).
		Str("step", step.Name).
		Int("attempt", attempt).
		Dur("elapsed", elapsed).
		Msg("step done")

	return nil
}

func (pt *pipelineTracer) OnRetry(run *model.RunInfo, step *model.StepInfo, attempt int, cause error) error {
	pt.log.Warn().
		Str("run_id", run.ID.String()).
		Str("step", step.Name).
		Int("attempt", attempt).
		Err(cause).
		Msg("step offered for retry")

	return nil
}

func (pt *pipelineTracer) OnRunEnd(run *model.RunInfo, elapsed time.Duration, failed bool) error {
	evt := pt.log.Info()
	if failed {
		evt = pt.log.Error()
	}

	evt.
		Str("run_id", run.ID.String()).
		Dur("elapsed", elapsed).
		Bool("failed", failed).
		Msg("run finished")

	return nil
}

func (pt *pipelineTracer) Finish() error {
	return nil
}

// PipelineTrace adapts a zerolog logger into a pipeline option.
func PipelineTrace(log zerolog.Logger) model.PipelineOption {
	return &pipelineTracer{log: log}
}

var _ model.PipelineOption = (*pipelineTracer)(nil)
