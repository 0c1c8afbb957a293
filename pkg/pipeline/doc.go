// Package pipeline provides an interceptor-based execution engine for
// multi-step processing pipelines.
//
// A pipeline is declared once as an immutable ordered list of named steps
// and may carry overload sets, alternate step lists picked at run time by
// matching the input. At run time a chain of interceptors observes and
// adjusts execution at the granularity of each step: every interceptor
// receives a single-use table of hooks for the remaining steps, and
// invoking a hook contributes an input override for that step before its
// core implementation runs. Interceptors layer strictly left to right:
// each one observes the input exactly as left by the previous
// interceptor's override for the same step.
//
// An interceptor may short-circuit the run by returning a value without
// invoking further hooks, and the last interceptor of a run may be the
// designated retrying interceptor, the only one allowed to re-invoke the
// hook of a failed step. Everything else that invokes a hook twice fails
// the run with a control-flow error.
//
// Execution is cooperative and single-flight: interceptors run as
// coroutines driven by the orchestrator over unbuffered channels, so at
// most one callable is ever in flight and ordering is fully determined by
// the layering rule. Faults are caught at their origin, tagged with the
// step and the interceptor they came from and wrapped into the run's
// Result, unless a configured pass-through rule lets the original error
// escape unwrapped.
package pipeline
