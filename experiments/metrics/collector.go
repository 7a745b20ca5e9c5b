package metrics

import (
	"sync/atomic"
	"time"
)

// BatchMetric summarizes one batch of concurrent solves.
type BatchMetric struct {
	Workers   int
	Solves    int
	Failures  int
	Duration  time.Duration // Wall clock of the whole batch
	SolveTime time.Duration // Summed over all solves
}

// Collector is safe to update from several workers at once.
type Collector interface {
	Start(workers int)
	AddSolve(elapsed time.Duration)
	AddFailure(elapsed time.Duration)
	Complete() BatchMetric
}

type collector struct {
	workers   int
	startTime time.Time
	solves    atomic.Int32
	failures  atomic.Int32
	solveTime atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(workers int) {
	m.startTime = time.Now()
	m.workers = workers
	m.solves.Store(0)
	m.failures.Store(0)
	m.solveTime.Store(0)
}

func (m *collector) AddSolve(elapsed time.Duration) {
	m.solves.Add(1)
	m.solveTime.Add(int64(elapsed))
}

func (m *collector) AddFailure(elapsed time.Duration) {
	m.failures.Add(1)
	m.solveTime.Add(int64(elapsed))
}

func (m *collector) Complete() BatchMetric {
	return BatchMetric{
		Workers:   m.workers,
		Solves:    int(m.solves.Load()),
		Failures:  int(m.failures.Load()),
		Duration:  time.Since(m.startTime),
		SolveTime: time.Duration(m.solveTime.Load()),
	}
}
