package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/interpipe/go-interpipe/pkg/pipeline/model"
)

type eventKind int

const (
	evInvoke eventKind = iota
	evReturn
	evFail
)

// event is what an interceptor goroutine hands to the orchestrator: a hook
// invocation, a returned value or a failure.
type event[T any] struct {
	kind     eventKind
	slot     int
	gen      int
	step     int
	override invokeOverride[T]
	value    T
	err      error
	reply    chan resumption[T]
}

// resumption resolves a pending hook invocation. A non-nil err together
// with a non-nil turn is the retry offer made to the retrying interceptor.
type resumption[T any] struct {
	turn *Turn[T]
	err  error
}

type cellState int

const (
	cellIdle cellState = iota
	cellRunning
	cellWaiting
	cellDone
)

// cell tracks one interceptor of the chain during a run.
type cell[T any] struct {
	name    string
	fn      InterceptorFunc[T]
	retrier bool

	state       cellState
	gen         int
	pendingStep int
	reply       chan resumption[T]
	// stash holds the override of a hook invoked ahead of its round, to
	// be applied at this cell's position once the round arrives.
	stash *invokeOverride[T]
}

// runner is the per-run orchestrator state. It lives on the call stack of
// Run and never on the shared Pipeline.
type runner[T any] struct {
	pipe     *Pipeline[T]
	steps    []Step[T]
	overload string
	cfg      config
	cells    []*cell[T]
	retrier  int

	input         T
	previous      map[string]T
	slotOverrides map[string]any

	events chan event[T]
	done   chan struct{}
	ctx    context.Context
	info   *model.RunInfo
}

// Run executes the pipeline once. Interceptors apply in the given order;
// the retrier, if any, is logically appended last. Run resolves to a
// Result unless a configured pass-through rule matches a fault, in which
// case the original error is returned unwrapped next to a zero Result.
func Run[T any](ctx context.Context, pipe *Pipeline[T], input T, opts ...RunOption[T]) (Result[T], error) {
	if pipe == nil {
		return Result[T]{}, ErrPipelineMustBeSet
	}

	var req runRequest[T]
	for _, opt := range opts {
		opt(&req)
	}

	cells := make([]*cell[T], 0, len(req.interceptors)+1)
	for idx, interceptor := range req.interceptors {
		if interceptor.Fn == nil {
			return Result[T]{}, errors.Wrapf(ErrInterceptorMustBeSet, "interceptor %d", idx)
		}
		cells = append(cells, &cell[T]{name: interceptorName(interceptor, idx), fn: interceptor.Fn})
	}

	retrier := -1
	if req.retrier != nil {
		if req.retrier.Fn == nil {
			return Result[T]{}, errors.Wrap(ErrInterceptorMustBeSet, "retrying interceptor")
		}
		retrier = len(cells)
		cells = append(cells, &cell[T]{name: interceptorName(*req.retrier, retrier), fn: req.retrier.Fn, retrier: true})
	}

	names := make([]string, len(cells))
	for idx, c := range cells {
		names[idx] = c.name
	}

	steps, overload := pipe.resolve(input)

	run := &runner[T]{
		pipe:     pipe,
		steps:    steps,
		overload: overload,
		cfg:      pipe.def.cfg,
		cells:    cells,
		retrier:  retrier,
		input:    input,
		previous: make(map[string]T, len(steps)),
		events:   make(chan event[T]),
		done:     make(chan struct{}),
		ctx:      ctx,
		info: &model.RunInfo{
			ID:           uuid.New(),
			Start:        time.Now(),
			Overload:     overload,
			Interceptors: names,
		},
	}
	defer close(run.done)

	return run.run()
}

func (r *runner[T]) run() (Result[T], error) {
	err := r.observe(func(opt model.PipelineOption) error { return opt.OnRunStart(r.info) })
	if err != nil {
		return Result[T]{}, errors.Wrap(err, "unable to start pipeline option")
	}

	res, runErr := r.loop()

	failed := runErr != nil || res.IsFailure()
	err = r.observe(func(opt model.PipelineOption) error {
		return opt.OnRunEnd(r.info, time.Since(r.info.Start), failed)
	})
	if err != nil {
		return Result[T]{}, errors.Wrap(err, "unable to finish pipeline option")
	}

	return res, runErr
}

// loop drives the per-step rounds: for each step, every interceptor that
// has not advanced past it gets a turn in array order, then the step core
// runs.
func (r *runner[T]) loop() (Result[T], error) {
	for s := range r.steps {
		for i := range r.cells {
			c := r.cells[i]
			switch {
			case c.state == cellWaiting && c.pendingStep == s && c.stash != nil:
				// Invoked ahead of its round; the override applies
				// now, at this cell's position in the layering.
				r.applyOverride(*c.stash)
				c.stash = nil
			case c.state == cellWaiting && c.pendingStep == s:
				// Invoked earlier in this round, nothing left to do.
			case c.state == cellWaiting && c.pendingStep > s:
				// Waiting on a later step, no turn for this one.
			case c.state == cellIdle:
				r.launch(i, r.newTurn(i, s))
				if res, finished, err := r.drive(i, s); finished {
					return res, err
				}
			default:
				// Pending invocation of the previous step resolves with
				// a fresh turn for the remaining steps.
				turn := r.newTurn(i, s)
				reply := c.reply
				c.state = cellRunning
				reply <- resumption[T]{turn: turn}
				if res, finished, err := r.drive(i, s); finished {
					return res, err
				}
			}
		}

		if s == 0 && r.cfg.entrypointRequired && !r.claimed(0) {
			fault := &ContextualError{
				HookName: r.steps[0].Name,
				Source:   FaultExtension,
				cause:    ErrEntrypointUnclaimed,
			}

			return newFailure[T](r.info.ID, fault), nil
		}

		out, res, finished, err := r.execute(s)
		if finished {
			return res, err
		}

		r.previous[r.steps[s].Name] = r.input
		r.input = out
		r.slotOverrides = nil
	}

	return r.resolveFinal()
}

// drive handles events from the runnable cell until it blocks on a hook
// invocation or terminates the run.
func (r *runner[T]) drive(runnable, s int) (Result[T], bool, error) {
	for {
		ev := <-r.events

		switch ev.kind {
		case evInvoke:
			c := r.cells[ev.slot]
			if ev.slot != runnable || ev.gen != c.gen || ev.step < s {
				res, err := r.violation(ev)

				return res, true, err
			}

			c.state = cellWaiting
			c.pendingStep = ev.step
			c.reply = ev.reply

			if ev.step == s {
				r.applyOverride(ev.override)
			} else {
				override := ev.override
				c.stash = &override
			}

			return Result[T]{}, false, nil
		case evReturn:
			// Returned without resolving the terminal hook: the value
			// becomes the run's result immediately.
			r.cells[ev.slot].state = cellDone

			return newSuccess(r.info.ID, ev.value), true, nil
		default:
			res, err := r.fault(FaultExtension, r.steps[s].Name, r.cells[ev.slot].name, ev.err)

			return res, true, err
		}
	}
}

// execute runs the step core, driving the retry protocol on failure.
func (r *runner[T]) execute(s int) (T, Result[T], bool, error) {
	var zero T

	step := r.steps[s]
	slots := overlaySlots(step.Slots, r.slotOverrides)
	attempt := 1

	for {
		start := time.Now()

		out, stepErr := r.runStep(step, slots)
		if stepErr == nil {
			err := r.observe(func(opt model.PipelineOption) error {
				return opt.OnStepDone(r.info, r.stepInfo(s), attempt, time.Since(start))
			})
			if err != nil {
				return zero, Result[T]{}, true, errors.Wrap(err, "unable to run pipeline option")
			}

			return out, Result[T]{}, false, nil
		}

		res, retried, finished, err := r.handleStepFailure(s, attempt, stepErr)
		if finished {
			return zero, res, true, err
		}
		if retried {
			slots = overlaySlots(step.Slots, r.slotOverrides)
			attempt++
		}
	}
}

// handleStepFailure checks pass-through rules and, when the retrying
// interceptor is pending on the failed step, resolves its invocation with
// the failure so it may retry.
func (r *runner[T]) handleStepFailure(s, attempt int, stepErr error) (Result[T], bool, bool, error) {
	step := r.steps[s]

	sig := FaultSignal{HookName: step.Name, Source: FaultImplementation, Err: stepErr}
	if r.cfg.passesThrough(sig) {
		return Result[T]{}, false, true, stepErr
	}

	var retrier *cell[T]
	if r.retrier >= 0 {
		c := r.cells[r.retrier]
		if c.state == cellWaiting && c.pendingStep == s {
			retrier = c
		}
	}

	if retrier == nil {
		fault := &ContextualError{HookName: step.Name, Source: FaultImplementation, cause: stepErr}

		return newFailure[T](r.info.ID, fault), false, true, nil
	}

	err := r.observe(func(opt model.PipelineOption) error {
		return opt.OnRetry(r.info, r.stepInfo(s), attempt, stepErr)
	})
	if err != nil {
		return Result[T]{}, false, true, errors.Wrap(err, "unable to run pipeline option")
	}

	turn := r.newTurn(r.retrier, s)
	turn.retry = true
	reply := retrier.reply
	retrier.state = cellRunning
	reply <- resumption[T]{turn: turn, err: stepErr}

	for {
		ev := <-r.events

		switch ev.kind {
		case evInvoke:
			c := r.cells[ev.slot]
			if ev.slot != r.retrier || ev.gen != c.gen {
				res, err := r.violation(ev)

				return res, false, true, err
			}

			if ev.step != s {
				cause := errors.Wrapf(ErrFailedStepSkipped, "step %q must be retried or the run abandoned", step.Name)
				fault := &ContextualError{
					HookName:    r.stepName(ev.step),
					Source:      FaultExtension,
					Interceptor: c.name,
					cause:       cause,
				}

				return newFailure[T](r.info.ID, fault), false, true, nil
			}

			c.state = cellWaiting
			c.pendingStep = s
			c.reply = ev.reply
			// The retried input defaults to the failed attempt's input;
			// the override replaces or transforms it.
			r.applyOverride(ev.override)

			return Result[T]{}, true, false, nil
		case evReturn:
			r.cells[ev.slot].state = cellDone

			return newSuccess(r.info.ID, ev.value), false, true, nil
		default:
			res, err := r.fault(FaultExtension, step.Name, r.cells[ev.slot].name, ev.err)

			return res, false, true, err
		}
	}
}

// resolveFinal propagates the terminal output back through the chain,
// innermost interceptor first. Interceptor i's terminal invocation
// resolves with interceptor i+1's return value; the run result is the
// first interceptor's return.
func (r *runner[T]) resolveFinal() (Result[T], error) {
	value := r.input
	terminal := r.steps[len(r.steps)-1].Name

	for i := len(r.cells) - 1; i >= 0; i-- {
		c := r.cells[i]
		if c.state != cellWaiting {
			continue
		}

		turn := r.doneTurn(i, value)
		reply := c.reply
		c.state = cellRunning
		reply <- resumption[T]{turn: turn}

	drain:
		for {
			ev := <-r.events

			switch ev.kind {
			case evInvoke:
				return r.violation(ev)
			case evReturn:
				value = ev.value
				r.cells[ev.slot].state = cellDone

				break drain
			default:
				return r.fault(FaultExtension, terminal, r.cells[ev.slot].name, ev.err)
			}
		}
	}

	return newSuccess(r.info.ID, value), nil
}

func (r *runner[T]) launch(slot int, turn *Turn[T]) {
	c := r.cells[slot]
	c.state = cellRunning

	go func() {
		value, err := runInterceptor(r.ctx, c.fn, turn)

		ev := event[T]{kind: evReturn, slot: slot, value: value}
		if err != nil {
			ev = event[T]{kind: evFail, slot: slot, err: err}
		}

		select {
		case r.events <- ev:
		case <-r.done:
		}
	}()
}

func runInterceptor[T any](ctx context.Context, fn InterceptorFunc[T], turn *Turn[T]) (value T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = coerceError(rec)
		}
	}()

	return fn(ctx, turn)
}

func (r *runner[T]) runStep(step Step[T], slots Slots) (out T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = coerceError(rec)
		}
	}()

	previous := make(Previous[T], len(r.previous))
	for name, in := range r.previous {
		previous[name] = in
	}

	return step.Run(r.ctx, r.input, slots, previous)
}

func (r *runner[T]) newTurn(slot, start int) *Turn[T] {
	c := r.cells[slot]
	c.gen++

	names := make([]string, 0, len(r.steps)-start)
	index := make(map[string]int, len(r.steps)-start)
	for idx := start; idx < len(r.steps); idx++ {
		names = append(names, r.steps[idx].Name)
		index[r.steps[idx].Name] = idx
	}

	return &Turn[T]{
		run:   r,
		slot:  slot,
		gen:   c.gen,
		start: start,
		input: r.input,
		names: names,
		index: index,
	}
}

func (r *runner[T]) doneTurn(slot int, value T) *Turn[T] {
	c := r.cells[slot]
	c.gen++

	return &Turn[T]{run: r, slot: slot, gen: c.gen, done: true, value: value}
}

func (r *runner[T]) applyOverride(ov invokeOverride[T]) {
	if ov.hasInput {
		r.input = ov.input
	}
	if ov.mapFn != nil {
		r.input = ov.mapFn(r.input)
	}

	if len(ov.slots) > 0 {
		if r.slotOverrides == nil {
			r.slotOverrides = make(map[string]any, len(ov.slots))
		}
		for name, fn := range ov.slots {
			r.slotOverrides[name] = fn
		}
	}
}

func (r *runner[T]) claimed(s int) bool {
	for _, c := range r.cells {
		if c.state == cellWaiting && c.pendingStep == s {
			return true
		}
	}

	return false
}

// violation converts an illegal hook invocation into a run failure. It is
// never offered to pass-through rules.
func (r *runner[T]) violation(ev event[T]) (Result[T], error) {
	c := r.cells[ev.slot]
	name := r.stepName(ev.step)

	cause := errors.Wrapf(ErrHookConsumed, "hook %q invoked twice by interceptor %q", name, c.name)
	fault := &ContextualError{
		HookName:    name,
		Source:      FaultExtension,
		Interceptor: c.name,
		cause:       cause,
	}

	return newFailure[T](r.info.ID, fault), nil
}

// fault wraps an implementation or extension fault unless a pass-through
// rule claims it.
func (r *runner[T]) fault(source FaultSource, hook, interceptor string, cause error) (Result[T], error) {
	sig := FaultSignal{HookName: hook, Source: source, Err: cause}
	if r.cfg.passesThrough(sig) {
		return Result[T]{}, cause
	}

	fault := &ContextualError{
		HookName:    hook,
		Source:      source,
		Interceptor: interceptor,
		cause:       cause,
	}

	return newFailure[T](r.info.ID, fault), nil
}

func (r *runner[T]) stepName(s int) string {
	if s < 0 || s >= len(r.steps) {
		return ""
	}

	return r.steps[s].Name
}

func (r *runner[T]) stepInfo(s int) *model.StepInfo {
	return &model.StepInfo{
		Name:     r.steps[s].Name,
		Index:    s,
		Terminal: s == len(r.steps)-1,
		Overload: r.overload,
	}
}

func (r *runner[T]) observe(fn func(model.PipelineOption) error) error {
	for _, opt := range r.pipe.opts {
		err := fn(opt)
		if err != nil {
			return err
		}
	}

	return nil
}
