package pipeline

import "github.com/pkg/errors"

// Overload is an alternate step list substituted for the base list when
// its match function accepts the run's input. Overloads are tried in
// declaration order and the first match wins.
type Overload[T any] struct {
	Name  string
	Match func(input T) bool
	Steps []Step[T]
}

type config struct {
	passthroughErrors  []error
	passthroughFunc    func(FaultSignal) bool
	entrypointRequired bool
}

// passesThrough reports whether a fault escapes the Result wrapper
// unwrapped. Control-flow violations are never offered to it.
func (c config) passesThrough(sig FaultSignal) bool {
	for _, target := range c.passthroughErrors {
		if errors.Is(sig.Err, target) {
			return true
		}
	}

	if c.passthroughFunc != nil && c.passthroughFunc(sig) {
		return true
	}

	return false
}

// Definition is an immutable ordered list of steps plus run configuration
// and overloads. Build it once with NewDefinition, then derive pipelines
// from it.
type Definition[T any] struct {
	steps     []Step[T]
	overloads []Overload[T]
	cfg       config
}

// DefinitionOption configures a definition at build time.
type DefinitionOption[T any] func(def *Definition[T])

// WithOverload registers an alternate step list selected when match
// accepts the run input.
func WithOverload[T any](name string, match func(input T) bool, steps ...Step[T]) DefinitionOption[T] {
	return func(def *Definition[T]) {
		def.overloads = append(def.overloads, Overload[T]{
			Name:  name,
			Match: match,
			Steps: append([]Step[T](nil), steps...),
		})
	}
}

// WithPassthroughErrors lets faults matching any of the given errors
// (via errors.Is on the original cause) escape the run unwrapped.
func WithPassthroughErrors[T any](errs ...error) DefinitionOption[T] {
	return func(def *Definition[T]) {
		def.cfg.passthroughErrors = append(def.cfg.passthroughErrors, errs...)
	}
}

// WithPassthroughFunc lets faults accepted by the predicate escape the run
// unwrapped.
func WithPassthroughFunc[T any](fn func(FaultSignal) bool) DefinitionOption[T] {
	return func(def *Definition[T]) {
		def.cfg.passthroughFunc = fn
	}
}

// WithEntrypointRequired makes a run fail unless at least one interceptor
// invokes the first step's hook.
func WithEntrypointRequired[T any]() DefinitionOption[T] {
	return func(def *Definition[T]) {
		def.cfg.entrypointRequired = true
	}
}

// NewDefinition builds and validates a definition from an ordered step
// list.
func NewDefinition[T any](steps []Step[T], opts ...DefinitionOption[T]) (*Definition[T], error) {
	def := &Definition[T]{
		steps: append([]Step[T](nil), steps...),
	}
	for _, opt := range opts {
		opt(def)
	}

	err := validateSteps(def.steps)
	if err != nil {
		return nil, err
	}

	for _, overload := range def.overloads {
		if overload.Match == nil {
			return nil, errors.Wrapf(ErrOverloadMatchMustBeSet, "overload %q", overload.Name)
		}

		err := validateSteps(overload.Steps)
		if err != nil {
			return nil, errors.Wrapf(err, "overload %q", overload.Name)
		}
	}

	return def, nil
}

// Steps returns a copy of the base step list.
func (def *Definition[T]) Steps() []Step[T] {
	return append([]Step[T](nil), def.steps...)
}

// Overloads returns a copy of the overload sets.
func (def *Definition[T]) Overloads() []Overload[T] {
	return append([]Overload[T](nil), def.overloads...)
}

func validateSteps[T any](steps []Step[T]) error {
	if len(steps) == 0 {
		return ErrStepsMustBeSet
	}

	seen := make(map[string]struct{}, len(steps))

	for idx, step := range steps {
		if step.Name == "" {
			return errors.Wrapf(ErrStepNameMustBeSet, "step %d", idx)
		}
		if step.Run == nil {
			return errors.Wrapf(ErrStepRunMustBeSet, "step %q", step.Name)
		}
		if _, ok := seen[step.Name]; ok {
			return errors.Wrapf(ErrStepNameDuplicated, "step %q", step.Name)
		}
		seen[step.Name] = struct{}{}
	}

	return nil
}
