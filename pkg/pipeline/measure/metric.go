package measure

import (
	"sync"
	"time"
)

// DefaultMetric accumulates durations and retry counts for one step.
type DefaultMetric struct {
	mu          *sync.Mutex
	stepElapsed time.Duration
	endDuration time.Duration
	executions  int64
	retries     int64
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.executions++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) AddRetry() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.retries++
}

func (mt *DefaultMetric) Executions() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.executions
}

func (mt *DefaultMetric) Retries() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.retries
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.endDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.executions == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.executions)))
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	case d > time.Minute:
		d = d.Round(time.Minute)
	case d > time.Hour:
		d = d.Round(time.Hour)
	}

	return d
}

var _ Metric = (*DefaultMetric)(nil)
