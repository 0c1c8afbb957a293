package model

import (
	"time"

	"github.com/google/uuid"
)

// StepInfo describes one step of a prepared chain. Overload is empty for
// the base list and carries the overload name otherwise.
type StepInfo struct {
	Name     string
	Index    int
	Terminal bool
	Overload string
}

// StartStep and EndStep are the synthetic endpoints options may use to
// anchor a chain.
var (
	StartStep = &StepInfo{Name: "start"}
	EndStep   = &StepInfo{Name: "end"}
)

// RunInfo identifies one run of a pipeline.
type RunInfo struct {
	ID           uuid.UUID
	Start        time.Time
	Overload     string
	Interceptors []string
}
