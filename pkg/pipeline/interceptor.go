package pipeline

import (
	"context"
	"fmt"
)

// InterceptorFunc receives the table of hooks for the remaining steps and
// returns the run's value. Returning before the terminal step completed
// short-circuits the run; returning an error fails it as an extension
// fault.
type InterceptorFunc[T any] func(ctx context.Context, turn *Turn[T]) (T, error)

// Interceptor is caller-supplied logic applied around step execution. The
// name is only used in diagnostics.
type Interceptor[T any] struct {
	Name string
	Fn   InterceptorFunc[T]
}

type runRequest[T any] struct {
	interceptors []Interceptor[T]
	retrier      *Interceptor[T]
}

// RunOption configures a single run.
type RunOption[T any] func(req *runRequest[T])

// WithInterceptors sets the interceptor chain, applied in the given order.
func WithInterceptors[T any](interceptors ...Interceptor[T]) RunOption[T] {
	return func(req *runRequest[T]) {
		req.interceptors = append(req.interceptors, interceptors...)
	}
}

// WithRetrier appends the retrying interceptor after the ordinary chain.
// It is the only interceptor allowed to re-invoke the hook of a failed
// step.
func WithRetrier[T any](interceptor Interceptor[T]) RunOption[T] {
	return func(req *runRequest[T]) {
		req.retrier = &interceptor
	}
}

func interceptorName[T any](interceptor Interceptor[T], position int) string {
	if interceptor.Name != "" {
		return interceptor.Name
	}

	return fmt.Sprintf("interceptor-%d", position)
}
