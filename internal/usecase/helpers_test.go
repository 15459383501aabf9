package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"BoundaryLab/internal/domain/models"
)

var t0 = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func at(i int) time.Time { return t0.Add(time.Duration(i) * time.Minute) }

// cycleData repeats measurements 0,5,..,95 every 20 minutes; 60..75 is followed by a
// 3 ATR move up, everything else by 0.5.
func cycleData(n int) []models.PriceMovement {
	rows := make([]models.PriceMovement, 0, n)
	for i := 0; i < n; i++ {
		x := float64(i%20) * 5
		atr := 0.5
		if x >= 60 && x <= 75 {
			atr = 3
		}
		rows = append(rows, models.NewPriceMovement(at(i), x, atr))
	}
	return rows
}

func flatData(n int) []models.PriceMovement {
	rows := make([]models.PriceMovement, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.NewPriceMovement(at(i), 42, 3))
	}
	return rows
}

func newOptimizer(t *testing.T, opts ...OptimizerOption) *BoundaryOptimizer {
	t.Helper()
	o, err := NewBoundaryOptimizer(models.DefaultMLOptimizationConfig(), opts...)
	if err != nil {
		t.Fatalf("NewBoundaryOptimizer() error = %v", err)
	}
	return o
}

// fixedFinder returns the same boundaries for every call and counts calls.
type fixedFinder struct {
	mu         sync.Mutex
	boundaries []models.OptimalBoundary
	err        error
	calls      int
}

func (f *fixedFinder) Optimize(_ context.Context, movements []models.PriceMovement, target float64) (*models.OptimizationOutcome, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &models.OptimizationOutcome{TargetATRMove: target, Boundaries: f.boundaries, SampleCount: len(movements)}, nil
}

func (f *fixedFinder) Config() models.MLOptimizationConfig { return models.DefaultMLOptimizationConfig() }

func (f *fixedFinder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingMetrics struct {
	mu        sync.Mutex
	runs      map[string]int
	folds     map[bool]int
	errors    map[string]int
	latencies map[string]int
	published int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		runs:      map[string]int{},
		folds:     map[bool]int{},
		errors:    map[string]int{},
		latencies: map[string]int{},
	}
}

func (m *recordingMetrics) RecordStrategyRun(method string, _ float64, _ int, _ bool) {
	m.mu.Lock()
	m.runs[method]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordFold(_ string, ok bool) {
	m.mu.Lock()
	m.folds[ok]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	m.latencies[op]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordPublished(string) {
	m.mu.Lock()
	m.published++
	m.mu.Unlock()
}
