package measure_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpipe/go-interpipe/pkg/pipeline/measure"
)

func TestDefaultMeasureReusesMetric(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()

	first := msr.AddMetric("step-a")
	second := msr.AddMetric("step-a")
	assert.Same(t, first, second)

	assert.Same(t, first, msr.GetMetric("step-a"))
	assert.Nil(t, msr.GetMetric("unknown"))

	msr.AddMetric("step-b")
	assert.Len(t, msr.AllMetrics(), 2)
}

func TestDefaultMetricAccumulates(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	metric := msr.AddMetric("step-a")

	metric.AddDuration(100 * time.Millisecond)
	metric.AddDuration(300 * time.Millisecond)
	metric.AddRetry()

	assert.EqualValues(t, 2, metric.Executions())
	assert.EqualValues(t, 1, metric.Retries())
	assert.Equal(t, 200*time.Millisecond, metric.AVGDuration())

	metric.SetTotalDuration(time.Second)
	assert.Equal(t, time.Second, metric.GetTotalDuration())
}

func TestDefaultMetricAVGDurationEmpty(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	metric := msr.AddMetric("step-a")

	assert.Equal(t, time.Duration(0), metric.AVGDuration())
}

func TestPromMeasureExports(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	msr, err := measure.NewPromMeasure("test", reg)
	require.NoError(t, err)

	metric := msr.AddMetric("step-a")
	assert.Same(t, metric, msr.AddMetric("step-a"))
	assert.Same(t, metric, msr.GetMetric("step-a"))

	metric.AddDuration(50 * time.Millisecond)
	metric.AddDuration(150 * time.Millisecond)
	metric.AddRetry()

	// The in-memory metric keeps accumulating underneath the exporter.
	assert.EqualValues(t, 2, metric.Executions())
	assert.EqualValues(t, 1, metric.Retries())
	assert.Equal(t, 100*time.Millisecond, metric.AVGDuration())

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestPromMeasureDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	_, err := measure.NewPromMeasure("test", reg)
	require.NoError(t, err)

	_, err = measure.NewPromMeasure("test", reg)
	assert.Error(t, err)
}
