package pipeline

import (
	"github.com/pkg/errors"

	"github.com/interpipe/go-interpipe/pkg/pipeline/model"
)

// Pipeline is the runtime binding of a definition: steps indexed by name
// and overload resolution wired in. It is immutable once derived and safe
// to share across concurrently initiated independent runs; all per-run
// state lives in the orchestrator.
type Pipeline[T any] struct {
	def   *Definition[T]
	index map[string]Step[T]
	opts  []model.PipelineOption
}

// New derives a pipeline from a definition. Pipeline options observe step
// preparation and every subsequent run; their implementations must be
// safe for concurrent runs.
func New[T any](def *Definition[T], opts ...model.PipelineOption) (*Pipeline[T], error) {
	if def == nil {
		return nil, ErrDefinitionMustBeSet
	}

	index := make(map[string]Step[T], len(def.steps))
	for _, step := range def.steps {
		index[step.Name] = step
	}

	pipe := &Pipeline[T]{def: def, index: index, opts: opts}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	err := pipe.prepare()
	if err != nil {
		return nil, err
	}

	return pipe, nil
}

// Step looks up a base-list step by name.
func (p *Pipeline[T]) Step(name string) (Step[T], bool) {
	step, ok := p.index[name]

	return step, ok
}

// Definition returns the definition the pipeline was derived from.
func (p *Pipeline[T]) Definition() *Definition[T] { return p.def }

// Finish flushes the pipeline options. Call it once no further runs are
// expected, e.g. to let a drawer write its file.
func (p *Pipeline[T]) Finish() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

// prepare walks the base chain and every overload chain so options can
// build their view of the topology.
func (p *Pipeline[T]) prepare() error {
	err := p.prepareList(p.def.steps, "")
	if err != nil {
		return err
	}

	for _, overload := range p.def.overloads {
		err := p.prepareList(overload.Steps, overload.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline[T]) prepareList(steps []Step[T], overload string) error {
	parent := model.StartStep

	for idx, step := range steps {
		info := &model.StepInfo{
			Name:     step.Name,
			Index:    idx,
			Terminal: idx == len(steps)-1,
			Overload: overload,
		}

		for _, opt := range p.opts {
			err := opt.PrepareStep(parent, info)
			if err != nil {
				return errors.Wrap(err, "unable to prepare step")
			}
		}

		parent = info
	}

	for _, opt := range p.opts {
		err := opt.PrepareStep(parent, model.EndStep)
		if err != nil {
			return errors.Wrap(err, "unable to prepare step")
		}
	}

	return nil
}

// resolve picks the active step list for a run: the first overload whose
// match accepts the input, or the base list. The choice is made once per
// run and fixed for its duration.
func (p *Pipeline[T]) resolve(input T) ([]Step[T], string) {
	for _, overload := range p.def.overloads {
		if overload.Match(input) {
			return overload.Steps, overload.Name
		}
	}

	return p.def.steps, ""
}
