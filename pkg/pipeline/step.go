package pipeline

import "context"

// Slots holds the named helper functions a step delegates to. A step
// declares its defaults; interceptors may replace whole entries per
// invocation. Entries are never merged, a slot override replaces the
// default entirely.
type Slots map[string]any

// Slot retrieves a slot by name, checked against the signature the step
// expects at the call site.
func Slot[F any](slots Slots, name string) (F, bool) {
	fn, ok := slots[name].(F)

	return fn, ok
}

// Previous maps every earlier step's name to the input it actually ran
// with. It is a per-call copy, safe to read, pointless to write.
type Previous[T any] map[string]T

// Input returns the input a previous step ran with.
func (p Previous[T]) Input(name string) (T, bool) {
	in, ok := p[name]

	return in, ok
}

// StepFunc is the core implementation of a step. It receives the input as
// finalised after all interceptor overrides, the effective slot table and
// the inputs of every earlier step.
type StepFunc[T any] func(ctx context.Context, input T, slots Slots, previous Previous[T]) (T, error)

// Step is a named unit of pipeline work. Immutable once handed to a
// definition.
type Step[T any] struct {
	Name  string
	Run   StepFunc[T]
	Slots Slots
}

// overlaySlots lays per-invocation overrides over the step defaults. Full
// replacement per slot name.
func overlaySlots(defaults Slots, overrides map[string]any) Slots {
	if len(overrides) == 0 {
		return defaults
	}

	merged := make(Slots, len(defaults)+len(overrides))
	for name, fn := range defaults {
		merged[name] = fn
	}

	for name, fn := range overrides {
		merged[name] = fn
	}

	return merged
}
