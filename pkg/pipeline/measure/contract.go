package measure

import "time"

// Measure collects one metric per step across all runs of a pipeline.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric accumulates the executions of a single step.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AddRetry()
	AVGDuration() time.Duration
	Executions() int64
	Retries() int64
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}
