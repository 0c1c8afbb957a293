package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/interpipe/go-interpipe/pkg/pipeline/measure"
	"github.com/interpipe/go-interpipe/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.StartStep.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}

	err = pd.AddStep(model.EndStep.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStep(parent, step *model.StepInfo) error {
	err := pd.AddStep(step.Name)
	if err != nil {
		return err
	}

	err = pd.AddLink(parent.Name, step.Name)
	if err != nil {
		return err
	}

	if step.Terminal {
		err = pd.AddLink(step.Name, model.EndStep.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (pd *pipelineDrawer) OnRunStart(run *model.RunInfo) error {
	return nil
}

func (pd *pipelineDrawer) OnStepDone(run *model.RunInfo, step *model.StepInfo, attempt int, elapsed time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnRetry(run *model.RunInfo, step *model.StepInfo, attempt int, cause error) error {
	return nil
}

func (pd *pipelineDrawer) OnRunEnd(run *model.RunInfo, elapsed time.Duration, failed bool) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	err := pd.SetLabel(model.EndStep.Name, time.Since(pd.startTime).String())
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	if pd.m != nil {
		err := pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer adapts a drawer into a pipeline option. The measure is
// optional and decorates the drawing when present.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{drawer, measure, time.Now()}
}
