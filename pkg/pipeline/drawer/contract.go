package drawer

import "github.com/interpipe/go-interpipe/pkg/pipeline/measure"

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStep adds a step to the pipeline drawer.
	AddStep(stepName string) error
	// AddLink adds a link between parent and child steps.
	AddLink(parentStepName, childStepName string) error
	// SetLabel attaches a label to a step.
	SetLabel(stepName, label string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// AddMeasure decorates the graph with measured step data.
	AddMeasure(measure measure.Measure) error
}
