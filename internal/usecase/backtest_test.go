package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	"BoundaryLab/internal/services/features"
)

func newBacktest(t *testing.T, opts ...BacktestOption) *BacktestService {
	t.Helper()
	s, err := NewBacktestService(models.ValidationConfig{}, models.StatisticalConfig{}, opts...)
	if err != nil {
		t.Fatalf("NewBacktestService() error = %v", err)
	}
	return s
}

func TestCreateWalkForwardWindowsExample(t *testing.T) {
	period := models.Period{
		Start: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
	}
	windows, err := newBacktest(t).CreateWalkForwardWindows(period, 5)
	if err != nil {
		t.Fatalf("CreateWalkForwardWindows() error = %v", err)
	}
	if len(windows) != 5 {
		t.Fatalf("got %d windows, want 5", len(windows))
	}

	first := windows[0]
	if !first.InSamplePeriod.Start.Equal(period.Start) || first.InSamplePeriod.Duration() != 36*time.Minute {
		t.Errorf("first in-sample = %+v", first.InSamplePeriod)
	}
	if first.OutOfSamplePeriod.Duration() != 24*time.Minute {
		t.Errorf("first out-of-sample = %+v", first.OutOfSamplePeriod)
	}

	for i, w := range windows {
		if w.Index != i {
			t.Errorf("window %d has index %d", i, w.Index)
		}
		if w.InSamplePeriod.Start.Before(period.Start) || w.OutOfSamplePeriod.End.After(period.End) {
			t.Errorf("window %d leaves the period: %+v", i, w)
		}
		if !w.InSamplePeriod.End.Equal(w.OutOfSamplePeriod.Start) {
			t.Errorf("window %d: out-of-sample does not follow in-sample", i)
		}
		if i > 0 && windows[i-1].OutOfSamplePeriod.End.After(w.InSamplePeriod.Start) {
			t.Errorf("windows %d and %d overlap", i-1, i)
		}
	}
}

func TestCreateWalkForwardWindowsNeverPassEnd(t *testing.T) {
	configs := []models.ValidationConfig{
		{TrainingPercentage: 0.6, TestingPercentage: 0.4, AdvancementFactor: 1},
		{TrainingPercentage: 0.9, TestingPercentage: 0.1, AdvancementFactor: 0.5},
		{TrainingPercentage: 0.5, TestingPercentage: 0.5, AdvancementFactor: 1},
	}
	period := models.Period{Start: t0, End: t0.Add(6*time.Hour + 7*time.Second)}
	for _, cfg := range configs {
		s, err := NewBacktestService(cfg, models.StatisticalConfig{})
		if err != nil {
			t.Fatal(err)
		}
		for n := 1; n <= 20; n++ {
			windows, err := s.CreateWalkForwardWindows(period, n)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range windows {
				if w.OutOfSamplePeriod.End.After(period.End) {
					t.Errorf("cfg %+v n=%d: window %d ends after the period", cfg, n, w.Index)
				}
				if !w.OutOfSamplePeriod.IsValid() {
					t.Errorf("cfg %+v n=%d: empty out-of-sample in window %d", cfg, n, w.Index)
				}
			}
		}
	}
}

func TestCreateWalkForwardWindowsRejects(t *testing.T) {
	period := models.Period{Start: t0, End: t0.Add(time.Hour)}
	s := newBacktest(t)
	tests := []struct {
		name   string
		period models.Period
		count  int
	}{
		{"zero windows", period, 0},
		{"negative windows", period, -3},
		{"over maximum", period, 21},
		{"empty period", models.Period{Start: t0, End: t0}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateWalkForwardWindows(tt.period, tt.count); !errors.Is(err, errs.ErrInvalidConfiguration) {
				t.Errorf("err = %v, want invalid configuration", err)
			}
		})
	}
}

func TestNewBacktestServiceRejectsSplitOverOne(t *testing.T) {
	cfg := models.ValidationConfig{TrainingPercentage: 0.7, TestingPercentage: 0.5}
	if _, err := NewBacktestService(cfg, models.StatisticalConfig{}); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Errorf("err = %v, want invalid configuration", err)
	}
}

func linearData(n int) []models.PriceMovement {
	rows := make([]models.PriceMovement, 0, n)
	for i := 0; i < n; i++ {
		x := float64(i % 10)
		rows = append(rows, models.NewPriceMovement(at(i), x, 0.3*x-1))
	}
	return rows
}

func TestRunWalkForwardAnalysis(t *testing.T) {
	finder := &fixedFinder{boundaries: []models.OptimalBoundary{
		{RangeLow: 7, RangeHigh: 9, ExpectedATRMove: 1.5, HitRate: 1, SampleCount: 10, Confidence: 0.5},
	}}
	metrics := newRecordingMetrics()
	s := newBacktest(t, WithBoundaryFinder(finder), WithBacktestMetrics(metrics))

	res, err := s.RunWalkForwardAnalysis(context.Background(), linearData(200), 5, 1)
	if err != nil {
		t.Fatalf("RunWalkForwardAnalysis() error = %v", err)
	}
	if len(res.Windows) != 5 || res.DeterminateWindows != 5 || res.Indeterminate {
		t.Fatalf("windows = %d, determinate = %d", len(res.Windows), res.DeterminateWindows)
	}
	if math.Abs(res.AverageInSampleCorr-1) > 1e-9 || res.CorrelationStdDev > 1e-9 {
		t.Errorf("avg corr = %v, std = %v", res.AverageInSampleCorr, res.CorrelationStdDev)
	}
	if !res.IsStable || math.Abs(res.StabilityScore-1) > 1e-9 {
		t.Errorf("IsStable = %v, StabilityScore = %v", res.IsStable, res.StabilityScore)
	}
	if res.SignificantWindows != 5 {
		t.Errorf("SignificantWindows = %d, want 5", res.SignificantWindows)
	}
	for _, w := range res.Windows {
		if w.Backtest == nil {
			t.Fatalf("window %d has no backtest", w.Window.Index)
		}
		if w.Backtest.TotalTrades > 0 && w.Backtest.HitRate != 1 {
			t.Errorf("window %d hit rate = %v", w.Window.Index, w.Backtest.HitRate)
		}
	}
	if finder.Calls() != 5 {
		t.Errorf("finder called %d times, want 5", finder.Calls())
	}
	if metrics.latencies["walk_forward"] != 1 {
		t.Errorf("latency metrics = %v", metrics.latencies)
	}
}

func TestRunWalkForwardAnalysisIndeterminate(t *testing.T) {
	res, err := newBacktest(t).RunWalkForwardAnalysis(context.Background(), flatData(200), 5, 2)
	if err != nil {
		t.Fatalf("RunWalkForwardAnalysis() error = %v", err)
	}
	if !res.Indeterminate || res.DeterminateWindows != 0 {
		t.Errorf("Indeterminate = %v, determinate = %d", res.Indeterminate, res.DeterminateWindows)
	}
	for _, w := range res.Windows {
		if !w.Indeterminate || w.InSampleCorrelation != 0 || w.OutOfSampleCorrelation != 0 {
			t.Errorf("window %d = %+v, want indeterminate with no fabricated correlation", w.Window.Index, w)
		}
	}
	if res.IsStable || res.StabilityScore != 0 {
		t.Errorf("indeterminate run reported stable")
	}
}

func TestRunWalkForwardAnalysisErrors(t *testing.T) {
	s := newBacktest(t)
	if _, err := s.RunWalkForwardAnalysis(context.Background(), linearData(20), 5, 1); !errors.Is(err, errs.ErrInsufficientData) {
		t.Errorf("err = %v, want insufficient data", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.RunWalkForwardAnalysis(ctx, linearData(200), 5, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBacktestBoundaries(t *testing.T) {
	boundaries := []models.OptimalBoundary{
		{RangeLow: 0, RangeHigh: 10, ExpectedATRMove: 2},
		{RangeLow: 20, RangeHigh: 30, ExpectedATRMove: -1},
	}
	data := []models.PriceMovement{
		models.NewPriceMovement(at(4), 25, 1),
		models.NewPriceMovement(at(0), 5, 3),
		models.NewPriceMovement(at(1), 5, -1),
		models.NewPriceMovement(at(2), 25, -2.5),
		models.NewPriceMovement(at(3), 15, 9),
	}
	res := newBacktest(t).BacktestBoundaries(boundaries, data, 2)

	if res.TotalTrades != 4 || res.WinningTrades != 2 || res.LosingTrades != 2 {
		t.Fatalf("trades = %d/%d/%d", res.TotalTrades, res.WinningTrades, res.LosingTrades)
	}
	if res.HitRate != float64(res.WinningTrades)/float64(res.TotalTrades) {
		t.Errorf("HitRate = %v", res.HitRate)
	}
	wantReturns := []float64{3, -1, 2.5, -1}
	for i, tr := range res.Trades {
		if tr.Return != wantReturns[i] {
			t.Errorf("trade %d return = %v, want %v", i, tr.Return, wantReturns[i])
		}
	}
	if res.Trades[2].BoundaryIndex != 1 || res.Trades[2].Direction != -1 {
		t.Errorf("short trade = %+v", res.Trades[2])
	}

	equity := 1.03 * 0.99 * 1.025 * 0.99
	checks := []struct {
		name      string
		got, want float64
	}{
		{"average return", res.AverageReturn, 0.875},
		{"total return", res.TotalReturn, equity - 1},
		{"max drawdown", res.MaxDrawdown, 0.01},
		{"win rate", res.RiskMetrics["win_rate"], 0.5},
		{"avg win", res.RiskMetrics["avg_win"], 2.75},
		{"avg loss", res.RiskMetrics["avg_loss"], -1},
		{"profit factor", res.RiskMetrics["profit_factor"], 2.75},
		{"sharpe", res.SharpeRatio, 0.875 / features.StdDev(wantReturns)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestBacktestBoundariesNoTrades(t *testing.T) {
	res := newBacktest(t).BacktestBoundaries(
		[]models.OptimalBoundary{{RangeLow: 100, RangeHigh: 200, ExpectedATRMove: 1}},
		cycleData(50), 2)
	if res.TotalTrades != 0 || res.HitRate != 0 || res.MaxDrawdown != 0 || res.SharpeRatio != 0 {
		t.Errorf("result = %+v, want zeros", res)
	}
}

func TestBacktestReproducesBoundaryHitRate(t *testing.T) {
	rows := make([]models.PriceMovement, 0, 300)
	for i := 0; i < 300; i++ {
		x := float64(i % 50)
		atr := float64((i*7)%11-5) * 0.6
		rows = append(rows, models.NewPriceMovement(at(i), x, atr))
	}
	s := newBacktest(t)
	ranges := [][2]float64{{10, 30}, {0, 49}, {40, 45}}
	for _, target := range []float64{1, 2, 2.5} {
		for _, r := range ranges {
			st := features.StatsInRange(rows, r[0], r[1], target)
			b := features.NewBoundary(r[0], r[1], st, models.MethodDecisionTree)

			own := make([]models.PriceMovement, 0)
			for _, m := range rows {
				if b.Contains(m.MeasurementValue) {
					own = append(own, m)
				}
			}
			res := s.BacktestBoundaries([]models.OptimalBoundary{b}, own, target)
			if math.Abs(res.HitRate-b.HitRate) > 1e-12 {
				t.Errorf("target %v range %v: backtest hit rate %v, boundary %v", target, r, res.HitRate, b.HitRate)
			}
			if res.MaxDrawdown < 0 {
				t.Errorf("negative drawdown %v", res.MaxDrawdown)
			}
		}
	}
}
