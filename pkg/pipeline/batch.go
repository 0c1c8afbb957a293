package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RunAll executes one independent run per input over a shared pipeline,
// at most concurrent runs in flight. Each run stays cooperative
// internally; only whole runs fan out. Interceptor functions passed here
// are shared across runs and must not keep per-run state.
//
// RunAll stops at the first passed-through fault; ordinary failures land
// in their slot of the returned results.
func RunAll[T any](ctx context.Context, pipe *Pipeline[T], inputs []T, concurrent int, opts ...RunOption[T]) ([]Result[T], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if concurrent <= 0 {
		concurrent = 1
	}

	results := make([]Result[T], len(inputs))

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(concurrent)

	for idx := range inputs {
		localIdx := idx
		errGrp.Go(func() error {
			res, err := Run(dCtx, pipe, inputs[localIdx], opts...)
			if err != nil {
				return errors.Wrapf(err, "run %d", localIdx)
			}
			results[localIdx] = res

			return nil
		})
	}

	err := errGrp.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}
