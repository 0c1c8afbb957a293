package measure

import (
	"time"

	"github.com/interpipe/go-interpipe/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.StartStep.Name)
	pm.AddMetric(model.EndStep.Name)

	return nil
}

func (pm *pipelineMeasure) PrepareStep(parent, step *model.StepInfo) error {
	pm.AddMetric(step.Name)

	return nil
}

func (pm *pipelineMeasure) OnRunStart(run *model.RunInfo) error {
	return nil
}

func (pm *pipelineMeasure) OnStepDone(run *model.RunInfo, step *model.StepInfo, attempt int, elapsed time.Duration) error {
	pm.GetMetric(step.Name).AddDuration(elapsed)

	return nil
}

func (pm *pipelineMeasure) OnRetry(run *model.RunInfo, step *model.StepInfo, attempt int, cause error) error {
	pm.GetMetric(step.Name).AddRetry()

	return nil
}

func (pm *pipelineMeasure) OnRunEnd(run *model.RunInfo, elapsed time.Duration, failed bool) error {
	pm.GetMetric(model.EndStep.Name).SetTotalDuration(elapsed)

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure adapts a Measure into a pipeline option.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
