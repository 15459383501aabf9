package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
)

type memoryStore struct {
	rows []models.PriceMovement
	err  error
}

func (s *memoryStore) Init(context.Context) error { return nil }

func (s *memoryStore) StoreBatch(_ context.Context, rows []models.PriceMovement) error {
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *memoryStore) Query(_ context.Context, _ string, _, _ time.Time, _ int) ([]models.PriceMovement, error) {
	return s.rows, s.err
}

func (s *memoryStore) Health(context.Context) error { return nil }
func (s *memoryStore) Close() error                 { return nil }

type capturePublisher struct {
	mu     sync.Mutex
	events []*models.AnalysisEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev *models.AnalysisEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// dropFirst removes the first movement.
type dropFirst struct{ err error }

func (f dropFirst) Filter(_ context.Context, rows []models.PriceMovement) ([]models.PriceMovement, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return rows[1:], 1, nil
}

func newAnalysis(t *testing.T, store *memoryStore, opts ...AnalysisOption) *AnalysisUseCase {
	t.Helper()
	opt := newOptimizer(t)
	cv := NewCrossValidationService(opt, models.ValidationConfig{}, nil, nil)
	bt := newBacktest(t)
	return NewAnalysisUseCase(store, opt, cv, bt, 0.2, opts...)
}

func TestAnalyzeMovements(t *testing.T) {
	pub := &capturePublisher{}
	metrics := newRecordingMetrics()
	uc := newAnalysis(t, &memoryStore{}, WithPublisher(pub), WithAnalysisMetrics(metrics))

	rep, err := uc.AnalyzeMovements(context.Background(), AnalyzeParams{Symbol: "AAPL", TargetATR: 2}, cycleData(300))
	if err != nil {
		t.Fatalf("AnalyzeMovements() error = %v", err)
	}
	if rep.ID == "" || rep.SampleCount != 300 {
		t.Errorf("report header = %+v", rep)
	}
	if len(rep.Errors) != 0 {
		t.Fatalf("failed stages: %v", rep.Errors)
	}
	if rep.Optimization == nil || len(rep.Optimization.Boundaries) == 0 {
		t.Fatal("no boundaries found")
	}
	if rep.Optimization.SampleCount != 240 {
		t.Errorf("optimized on %d rows, want the 240 in-sample rows", rep.Optimization.SampleCount)
	}
	if rep.HoldoutPeriod == nil || !rep.HoldoutPeriod.Start.Equal(at(240)) {
		t.Errorf("HoldoutPeriod = %+v", rep.HoldoutPeriod)
	}
	if rep.InSamplePeriod.End.After(rep.HoldoutPeriod.Start) {
		t.Error("in-sample period overlaps the holdout")
	}
	if rep.Holdout == nil || rep.Holdout.TotalTrades == 0 || rep.Holdout.HitRate != 1 {
		t.Errorf("holdout backtest = %+v", rep.Holdout)
	}
	if rep.CrossValidation == nil || rep.CrossValidation.Strategy != models.ValidationExpandingWindow {
		t.Errorf("cross validation = %+v", rep.CrossValidation)
	}
	if rep.WalkForward == nil || len(rep.WalkForward.Windows) != 5 {
		t.Errorf("walk forward = %+v", rep.WalkForward)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.ID != rep.ID || ev.Symbol != "AAPL" || ev.Boundaries != len(rep.Optimization.Boundaries) || ev.HoldoutHitRate != 1 {
		t.Errorf("event = %+v", ev)
	}
	if metrics.published != 1 || metrics.latencies["analysis"] != 1 {
		t.Errorf("metrics = %+v", metrics)
	}
}

func TestAnalyzeRecordsStageFailures(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker unavailable")}
	uc := newAnalysis(t, &memoryStore{}, WithPublisher(pub))

	// 45 rows pass the optimizer minimum but not the validation ones.
	rep, err := uc.AnalyzeMovements(context.Background(), AnalyzeParams{Symbol: "AAPL", TargetATR: 2, Validation: models.ValidationKFold}, cycleData(45))
	if err != nil {
		t.Fatalf("AnalyzeMovements() error = %v", err)
	}
	for _, stage := range []string{"walk_forward", "cross_validation", "publish"} {
		if _, ok := rep.Errors[stage]; !ok {
			t.Errorf("stage %q not reported as failed: %v", stage, rep.Errors)
		}
	}
	if rep.Optimization == nil {
		t.Error("optimization should succeed on the 36 in-sample rows")
	}
}

func TestAnalyzeMovementsInsufficient(t *testing.T) {
	uc := newAnalysis(t, &memoryStore{})
	_, err := uc.AnalyzeMovements(context.Background(), AnalyzeParams{Symbol: "AAPL"}, cycleData(5))
	if !errors.Is(err, errs.ErrInsufficientData) {
		t.Errorf("err = %v, want insufficient data", err)
	}
}

func TestAnalyzeLoadsAndFilters(t *testing.T) {
	tests := []struct {
		name        string
		filter      dropFirst
		wantDropped int
		wantSamples int
	}{
		{"filter applied", dropFirst{}, 1, 299},
		{"filter failure keeps data", dropFirst{err: errors.New("timeout")}, 0, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newAnalysis(t, &memoryStore{rows: cycleData(300)}, WithOutlierFilter(tt.filter))
			rep, err := uc.Analyze(context.Background(), AnalyzeParams{Symbol: "AAPL", TargetATR: 2})
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if rep.OutliersDropped != tt.wantDropped || rep.SampleCount != tt.wantSamples {
				t.Errorf("dropped = %d, samples = %d", rep.OutliersDropped, rep.SampleCount)
			}
		})
	}
}

func TestAnalyzeStoreErrors(t *testing.T) {
	uc := newAnalysis(t, &memoryStore{err: errors.New("clickhouse down")})
	if _, err := uc.Analyze(context.Background(), AnalyzeParams{Symbol: "AAPL"}); err == nil {
		t.Error("expected store error")
	}
	if _, err := uc.Analyze(context.Background(), AnalyzeParams{}); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Errorf("err = %v, want invalid configuration for a missing symbol", err)
	}
}

func TestBacktestUseCase(t *testing.T) {
	uc := newAnalysis(t, &memoryStore{rows: cycleData(100)})
	res, err := uc.Backtest(context.Background(), BacktestParams{
		Symbol:     "AAPL",
		TargetATR:  2,
		Boundaries: []models.OptimalBoundary{bound(60, 75, 1, models.MethodDecisionTree)},
	})
	if err != nil {
		t.Fatalf("Backtest() error = %v", err)
	}
	if res.TotalTrades != 20 || res.HitRate != 1 {
		t.Errorf("result = %d trades, hit rate %v", res.TotalTrades, res.HitRate)
	}

	_, err = uc.Backtest(context.Background(), BacktestParams{
		Symbol:     "AAPL",
		Boundaries: []models.OptimalBoundary{{RangeLow: 5, RangeHigh: 5}},
	})
	if !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Errorf("err = %v, want invalid configuration", err)
	}
}

func TestNewAnalysisEventFailedStages(t *testing.T) {
	ev := NewAnalysisEvent(&models.AnalysisReport{
		ID:     "x",
		Errors: map[string]string{"walk_forward": "a", "cross_validation": "b"},
	})
	if len(ev.FailedStages) != 2 || ev.FailedStages[0] != "cross_validation" {
		t.Errorf("FailedStages = %v", ev.FailedStages)
	}
}
