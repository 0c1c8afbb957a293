package pipeline_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/interpipe/go-interpipe/pkg/pipeline"
)

func appendStep(t *testing.T, name, suffix string, calls *int32) pipeline.Step[string] {
	t.Helper()

	return pipeline.Step[string]{
		Name: name,
		Run: func(_ context.Context, input string, _ pipeline.Slots, _ pipeline.Previous[string]) (string, error) {
			if calls != nil {
				atomic.AddInt32(calls, 1)
			}

			return input + suffix, nil
		},
	}
}

// appendInterceptor walks every remaining hook in order, appending its
// suffix to each step's input.
func appendInterceptor(name, suffix string) pipeline.Interceptor[string] {
	return pipeline.Interceptor[string]{
		Name: name,
		Fn: func(ctx context.Context, turn *pipeline.Turn[string]) (string, error) {
			for !turn.Done() {
				hook := turn.First()

				next, err := hook.Invoke(ctx, pipeline.WithInput(hook.Input()+suffix))
				if err != nil {
					return "", err
				}
				turn = next
			}

			return turn.Value(), nil
		},
	}
}

// passInterceptor walks every remaining hook without contributing any
// override.
func passInterceptor(name string) pipeline.Interceptor[string] {
	return pipeline.Interceptor[string]{
		Name: name,
		Fn: func(ctx context.Context, turn *pipeline.Turn[string]) (string, error) {
			for !turn.Done() {
				next, err := turn.First().Invoke(ctx)
				if err != nil {
					return "", err
				}
				turn = next
			}

			return turn.Value(), nil
		},
	}
}

func twoStepPipeline(t *testing.T, aCalls, bCalls *int32, opts ...pipeline.DefinitionOption[string]) *pipeline.Pipeline[string] {
	t.Helper()

	def, err := pipeline.NewDefinition([]pipeline.Step[string]{
		appendStep(t, "a", "+a", aCalls),
		appendStep(t, "b", "+b", bCalls),
	}, opts...)
	if err != nil {
		t.Fatalf("unable to build definition: %v", err)
	}

	pipe, err := pipeline.New(def)
	if err != nil {
		t.Fatalf("unable to build pipeline: %v", err)
	}

	return pipe
}
