package pipeline

import "context"

// invokeOverride carries what a single hook invocation contributes to its
// step: an input replacement and/or transformation and slot overrides.
type invokeOverride[T any] struct {
	hasInput bool
	input    T
	mapFn    func(T) T
	slots    map[string]any
}

// InvokeOption attaches an override to a hook invocation.
type InvokeOption[T any] func(ov *invokeOverride[T])

// WithInput replaces the step's input.
func WithInput[T any](input T) InvokeOption[T] {
	return func(ov *invokeOverride[T]) {
		ov.hasInput = true
		ov.input = input
	}
}

// MapInput transforms the step's input at the moment the override is
// applied. Unlike WithInput it composes correctly when the hook of a later
// step is invoked ahead of time, because the transformation runs against
// the input as left by the preceding interceptors.
func MapInput[T any](fn func(T) T) InvokeOption[T] {
	return func(ov *invokeOverride[T]) {
		ov.mapFn = fn
	}
}

// WithSlot replaces one of the step's slots for this run.
func WithSlot[T any](name string, fn any) InvokeOption[T] {
	return func(ov *invokeOverride[T]) {
		if ov.slots == nil {
			ov.slots = make(map[string]any)
		}
		ov.slots[name] = fn
	}
}

// Turn is the single-use table of hooks an interceptor holds for the
// remaining steps. A fresh turn is generated at every resumption; hooks
// minted from an older turn are dead and invoking them fails the run.
// Once Done reports true the run has resolved and Value carries the
// output flowing back through the chain.
type Turn[T any] struct {
	run   *runner[T]
	slot  int
	gen   int
	start int
	input T
	names []string
	index map[string]int
	done  bool
	value T
	retry bool
}

// Done reports whether the turn is a terminal resolution rather than a
// hook table.
func (t *Turn[T]) Done() bool { return t.done }

// Value returns the resolved output of a done turn.
func (t *Turn[T]) Value() T { return t.value }

// Len returns the number of remaining hooks.
func (t *Turn[T]) Len() int { return len(t.names) }

// Names lists the remaining step names in execution order.
func (t *Turn[T]) Names() []string {
	return append([]string(nil), t.names...)
}

// First returns the hook of the next step to run, nil on a done turn.
func (t *Turn[T]) First() *Hook[T] {
	if t.done || len(t.names) == 0 {
		return nil
	}

	return &Hook[T]{turn: t, step: t.start, name: t.names[0]}
}

// Hook returns the hook for a remaining step by name.
func (t *Turn[T]) Hook(name string) (*Hook[T], bool) {
	if t.done {
		return nil, false
	}

	step, ok := t.index[name]
	if !ok {
		return nil, false
	}

	return &Hook[T]{turn: t, step: step, name: name}, true
}

// Hook is the per-run, single-use capability to advance execution to one
// step.
type Hook[T any] struct {
	turn *Turn[T]
	step int
	name string
}

// Name is the step name the hook advances to.
func (h *Hook[T]) Name() string { return h.name }

// Input is the step input as known when the hook's turn was created. Only
// the first hook of a turn reflects the fully layered value; later hooks
// report the value before the intermediate steps ran.
func (h *Hook[T]) Input() T { return h.turn.input }

// Invoke consumes the hook and advances execution to its step. For a
// non-terminal step it blocks until the step ran and returns the turn for
// the remaining steps; for the terminal step the returned turn is done
// and carries the output. When the run holds a retrying interceptor and
// the step failed, Invoke returns a non-nil turn together with the step's
// error so the caller may retry through the returned turn.
func (h *Hook[T]) Invoke(_ context.Context, opts ...InvokeOption[T]) (*Turn[T], error) {
	var ov invokeOverride[T]
	for _, opt := range opts {
		opt(&ov)
	}

	run := h.turn.run
	reply := make(chan resumption[T])
	ev := event[T]{
		kind:     evInvoke,
		slot:     h.turn.slot,
		gen:      h.turn.gen,
		step:     h.step,
		override: ov,
		reply:    reply,
	}

	select {
	case run.events <- ev:
	case <-run.done:
		return nil, ErrRunFinished
	}

	select {
	case res := <-reply:
		return res.turn, res.err
	case <-run.done:
		return nil, ErrRunFinished
	}
}
