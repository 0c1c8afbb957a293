package measure

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMeasure is a Measure that keeps the in-memory metrics and exports
// them to a Prometheus registry as it goes.
type PromMeasure struct {
	inner *DefaultMeasure

	durations  *prometheus.HistogramVec
	executions *prometheus.CounterVec
	retries    *prometheus.CounterVec

	mu    sync.Mutex
	steps map[string]Metric
}

// NewPromMeasure registers the step metrics on the given registerer. Use
// a dedicated registry per pipeline to avoid collector name conflicts.
func NewPromMeasure(namespace string, reg prometheus.Registerer) (*PromMeasure, error) {
	pm := &PromMeasure{
		inner: NewDefaultMeasure(),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_step_duration_seconds",
			Help:      "Duration of step core executions.",
		}, []string{"step"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_step_executions_total",
			Help:      "Number of step core executions.",
		}, []string{"step"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_step_retries_total",
			Help:      "Number of retries offered to the retrying interceptor.",
		}, []string{"step"}),
		steps: make(map[string]Metric),
	}

	for _, collector := range []prometheus.Collector{pm.durations, pm.executions, pm.retries} {
		err := reg.Register(collector)
		if err != nil {
			return nil, err
		}
	}

	return pm, nil
}

func (pm *PromMeasure) AddMetric(name string) Metric {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if mt, ok := pm.steps[name]; ok {
		return mt
	}

	mt := &promMetric{
		Metric:     pm.inner.AddMetric(name),
		duration:   pm.durations.WithLabelValues(name),
		executions: pm.executions.WithLabelValues(name),
		retries:    pm.retries.WithLabelValues(name),
	}
	pm.steps[name] = mt

	return mt
}

func (pm *PromMeasure) GetMetric(name string) Metric {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	return pm.steps[name]
}

func (pm *PromMeasure) AllMetrics() map[string]Metric {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	all := make(map[string]Metric, len(pm.steps))
	for name, mt := range pm.steps {
		all[name] = mt
	}

	return all
}

// promMetric observes into Prometheus on top of the in-memory metric.
type promMetric struct {
	Metric
	duration   prometheus.Observer
	executions prometheus.Counter
	retries    prometheus.Counter
}

func (mt *promMetric) AddDuration(elapsed time.Duration) {
	mt.Metric.AddDuration(elapsed)
	mt.duration.Observe(elapsed.Seconds())
	mt.executions.Inc()
}

func (mt *promMetric) AddRetry() {
	mt.Metric.AddRetry()
	mt.retries.Inc()
}

var _ Measure = (*PromMeasure)(nil)
