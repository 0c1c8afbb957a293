package measure_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpipe/go-interpipe/pkg/pipeline/measure"
	"github.com/interpipe/go-interpipe/pkg/pipeline/model"
)

func TestPipelineMeasureObservesRuns(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	opt := measure.PipelineMeasure(msr)

	require.NoError(t, opt.New())

	step := &model.StepInfo{Name: "load", Index: 0, Terminal: true}
	require.NoError(t, opt.PrepareStep(model.StartStep, step))

	run := &model.RunInfo{ID: uuid.New(), Start: time.Now()}
	require.NoError(t, opt.OnRunStart(run))
	require.NoError(t, opt.OnStepDone(run, step, 1, 20*time.Millisecond))
	require.NoError(t, opt.OnRetry(run, step, 1, errors.New("transient")))
	require.NoError(t, opt.OnRunEnd(run, 25*time.Millisecond, false))
	require.NoError(t, opt.Finish())

	metric := msr.GetMetric("load")
	require.NotNil(t, metric)
	assert.EqualValues(t, 1, metric.Executions())
	assert.EqualValues(t, 1, metric.Retries())

	end := msr.GetMetric(model.EndStep.Name)
	require.NotNil(t, end)
	assert.Equal(t, 25*time.Millisecond, end.GetTotalDuration())
}
