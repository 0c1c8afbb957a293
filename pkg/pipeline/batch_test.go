package pipeline_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpipe/go-interpipe/pkg/pipeline"
)

func TestRunAll(t *testing.T) {
	t.Parallel()

	pipe := twoStepPipeline(t, nil, nil)

	inputs := make([]string, 10)
	for idx := range inputs {
		inputs[idx] = fmt.Sprintf("in-%d", idx)
	}

	results, err := pipeline.RunAll(context.Background(), pipe, inputs, 3,
		pipeline.WithInterceptors(appendInterceptor("ex1", "+ex1")),
	)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))

	for idx, res := range results {
		require.True(t, res.IsSuccess())
		assert.Equal(t, fmt.Sprintf("in-%d+ex1+a+ex1+b", idx), res.Value())
	}
}

func TestRunAllNilPipeline(t *testing.T) {
	t.Parallel()

	_, err := pipeline.RunAll[string](context.Background(), nil, []string{"a"}, 1)
	assert.ErrorIs(t, err, pipeline.ErrPipelineMustBeSet)
}

func TestRunAllOrdinaryFailuresStayInPlace(t *testing.T) {
	t.Parallel()

	errOdd := errors.New("odd input")

	def, err := pipeline.NewDefinition([]pipeline.Step[string]{
		{
			Name: "evens-only",
			Run: func(_ context.Context, input string, _ pipeline.Slots, _ pipeline.Previous[string]) (string, error) {
				if input == "odd" {
					return "", errOdd
				}

				return input + "+ok", nil
			},
		},
	})
	require.NoError(t, err)

	pipe, err := pipeline.New(def)
	require.NoError(t, err)

	results, err := pipeline.RunAll(context.Background(), pipe, []string{"even", "odd", "even"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].IsSuccess())
	assert.True(t, results[1].IsFailure())
	assert.ErrorIs(t, results[1].Err(), errOdd)
	assert.True(t, results[2].IsSuccess())
}

func TestRunAllStopsOnPassthrough(t *testing.T) {
	t.Parallel()

	errFatal := errors.New("fatal")

	def, err := pipeline.NewDefinition(
		[]pipeline.Step[string]{
			{
				Name: "guard",
				Run: func(_ context.Context, input string, _ pipeline.Slots, _ pipeline.Previous[string]) (string, error) {
					if input == "bad" {
						return "", errFatal
					}

					return input, nil
				},
			},
		},
		pipeline.WithPassthroughErrors[string](errFatal),
	)
	require.NoError(t, err)

	pipe, err := pipeline.New(def)
	require.NoError(t, err)

	_, err = pipeline.RunAll(context.Background(), pipe, []string{"ok", "bad"}, 1)
	assert.ErrorIs(t, err, errFatal)
}
