package usecase

import (
	"context"
	"math"
	"time"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domrepo "BoundaryLab/internal/domain/repository"
	"BoundaryLab/internal/services/features"
	applogger "BoundaryLab/pkg/logger"
	"BoundaryLab/pkg/validate"
)

// BacktestService builds walk-forward windows, measures how the measurement/move
// correlation holds up out of sample, and simulates trades on boundaries.
type BacktestService struct {
	cfg     models.ValidationConfig
	stat    models.StatisticalConfig
	finder  BoundaryFinder
	metrics domrepo.Metrics
	log     *applogger.Logger
}

type BacktestOption func(*BacktestService)

// WithBoundaryFinder makes walk-forward analysis optimize each in-sample window and
// backtest the result on its out-of-sample window.
func WithBoundaryFinder(f BoundaryFinder) BacktestOption {
	return func(s *BacktestService) { s.finder = f }
}

func WithBacktestMetrics(m domrepo.Metrics) BacktestOption {
	return func(s *BacktestService) { s.metrics = m }
}

func WithBacktestLogger(l *applogger.Logger) BacktestOption {
	return func(s *BacktestService) { s.log = l }
}

func NewBacktestService(cfg models.ValidationConfig, stat models.StatisticalConfig, opts ...BacktestOption) (*BacktestService, error) {
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(&stat); err != nil {
		return nil, err
	}
	if cfg.TrainingPercentage+cfg.TestingPercentage > 1+1e-9 {
		return nil, errs.InvalidConfigurationf("training_percentage",
			"training %.2f plus testing %.2f exceeds 1.0", cfg.TrainingPercentage, cfg.TestingPercentage)
	}
	s := &BacktestService{cfg: cfg, stat: stat, log: applogger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateWalkForwardWindows splits period into windowCount+1 equal slices and lays one
// in-sample/out-of-sample pair per window. Out-of-sample ends are clipped to period.End;
// windows with no out-of-sample room are skipped.
func (s *BacktestService) CreateWalkForwardWindows(period models.Period, windowCount int) ([]models.WalkForwardWindow, error) {
	if windowCount <= 0 || windowCount > s.cfg.MaxWalkForwardWindows {
		return nil, errs.InvalidConfigurationf("window_count",
			"window count must be in [1, %d], got %d", s.cfg.MaxWalkForwardWindows, windowCount).
			WithParam("max", s.cfg.MaxWalkForwardWindows)
	}
	if !period.IsValid() {
		return nil, errs.InvalidConfiguration("period", "period end must be after start")
	}

	slice := float64(period.Duration()) / float64(windowCount+1)
	train := time.Duration(math.Round(slice * s.cfg.TrainingPercentage))
	test := time.Duration(math.Round(slice * s.cfg.TestingPercentage))

	out := make([]models.WalkForwardWindow, 0, windowCount)
	for i := 0; i < windowCount; i++ {
		inStart := period.Start.Add(time.Duration(math.Round(float64(i) * slice * s.cfg.AdvancementFactor)))
		inEnd := inStart.Add(train)
		oosEnd := inEnd.Add(test)
		if !inEnd.Before(period.End) {
			continue
		}
		if oosEnd.After(period.End) {
			oosEnd = period.End
		}
		out = append(out, models.WalkForwardWindow{
			Index:             len(out),
			InSamplePeriod:    models.Period{Start: inStart, End: inEnd},
			OutOfSamplePeriod: models.Period{Start: inEnd, End: oosEnd},
		})
	}
	return out, nil
}

// RunWalkForwardAnalysis lays windows over the movements' time span and correlates
// measurement with ATR move inside each half.
func (s *BacktestService) RunWalkForwardAnalysis(ctx context.Context, movements []models.PriceMovement, windowCount int, targetATR float64) (*models.WalkForwardResults, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordLatency("walk_forward", time.Since(start).Seconds())
		}
	}()

	if len(movements) < s.cfg.MinimumSamples {
		return nil, errs.InsufficientData("walk_forward", s.cfg.MinimumSamples, len(movements))
	}
	sorted := features.SortByTime(movements)
	span, ok := features.Span(sorted)
	if !ok {
		return nil, errs.InsufficientData("walk_forward", 2, len(movements)).
			WithHint("movements must cover more than one timestamp")
	}
	windows, err := s.CreateWalkForwardWindows(span, windowCount)
	if err != nil {
		return nil, err
	}

	res := &models.WalkForwardResults{
		TargetATRMove: targetATR,
		Windows:       make([]models.WalkForwardWindowResult, 0, len(windows)),
	}
	var inCorrs, outCorrs, degradations []float64
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wr := s.analyzeWindow(ctx, sorted, w, targetATR)
		res.Windows = append(res.Windows, wr)
		if wr.Indeterminate {
			continue
		}
		inCorrs = append(inCorrs, wr.InSampleCorrelation)
		outCorrs = append(outCorrs, wr.OutOfSampleCorrelation)
		degradations = append(degradations, wr.PerformanceDegradation)
		if wr.IsSignificant {
			res.SignificantWindows++
		}
	}

	res.DeterminateWindows = len(inCorrs)
	if res.DeterminateWindows == 0 {
		res.Indeterminate = true
		s.log.Warn("walk forward indeterminate", applogger.Int("windows", len(windows)))
		return res, nil
	}
	res.AverageInSampleCorr = features.Mean(inCorrs)
	res.AverageOutOfSampleCorr = features.Mean(outCorrs)
	res.AverageDegradation = features.Mean(degradations)
	res.CorrelationStdDev = features.StdDev(inCorrs)
	res.IsStable = res.CorrelationStdDev < s.stat.StabilityThreshold
	res.StabilityScore = math.Max(0, 1-res.CorrelationStdDev)

	s.log.Info("walk forward finished",
		applogger.Int("windows", len(windows)),
		applogger.Int("determinate", res.DeterminateWindows),
		applogger.Int("significant", res.SignificantWindows),
		applogger.Float64("avg_in_corr", res.AverageInSampleCorr),
		applogger.Bool("stable", res.IsStable))
	return res, nil
}

func (s *BacktestService) analyzeWindow(ctx context.Context, sorted []models.PriceMovement, w models.WalkForwardWindow, targetATR float64) models.WalkForwardWindowResult {
	in := features.InPeriod(sorted, w.InSamplePeriod)
	oos := features.InPeriod(sorted, w.OutOfSamplePeriod)
	wr := models.WalkForwardWindowResult{
		Window:           w,
		InSampleCount:    len(in),
		OutOfSampleCount: len(oos),
	}

	inCorr, okIn := features.Correlation(features.Measurements(in), features.ATRMoves(in))
	outCorr, okOut := features.Correlation(features.Measurements(oos), features.ATRMoves(oos))
	if okIn && okOut {
		wr.InSampleCorrelation = inCorr
		wr.OutOfSampleCorrelation = outCorr
		wr.PerformanceDegradation = math.Abs(inCorr - outCorr)
		wr.IsSignificant = math.Abs(outCorr) > s.stat.CorrelationFloor()
	} else {
		wr.Indeterminate = true
	}

	if s.finder != nil && targetATR > 0 {
		outcome, err := s.finder.Optimize(ctx, in, targetATR)
		if err != nil {
			wr.Error = err.Error()
			s.log.Debug("window optimization skipped", applogger.Int("window", w.Index), applogger.Error(err))
		} else {
			bt := s.BacktestBoundaries(outcome.Boundaries, oos, targetATR)
			wr.Backtest = &bt
		}
	}
	return wr
}

// BacktestBoundaries trades every test movement that falls in a boundary, in time
// order, using the first containing boundary. A trade wins when it goes the boundary's
// direction by at least targetATR. Returns are in ATR units; equity compounds at
// RiskPerTrade of each return.
func (s *BacktestService) BacktestBoundaries(boundaries []models.OptimalBoundary, testData []models.PriceMovement, targetATR float64) models.BacktestResult {
	res := models.BacktestResult{RiskMetrics: map[string]float64{}}
	equity, peak := 1.0, 1.0
	var returns, wins, losses []float64

	for _, m := range features.SortByTime(testData) {
		idx := firstContaining(boundaries, m.MeasurementValue)
		if idx < 0 {
			continue
		}
		dir := boundaries[idx].TradeDirection()
		ret := float64(dir) * m.ATRMovement
		win := features.IsHit(dir, m.ATRMovement, targetATR)

		equity = math.Max(0, equity*(1+ret*s.cfg.RiskPerTrade))
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			res.MaxDrawdown = math.Max(res.MaxDrawdown, (peak-equity)/peak)
		}

		returns = append(returns, ret)
		if win {
			wins = append(wins, ret)
		} else {
			losses = append(losses, ret)
		}
		res.Trades = append(res.Trades, models.Trade{
			Timestamp:        m.StartTimestamp,
			BoundaryIndex:    idx,
			MeasurementValue: m.MeasurementValue,
			Direction:        dir,
			ActualATRMove:    m.ATRMovement,
			Return:           ret,
			Win:              win,
			Equity:           equity,
		})
	}

	res.TotalTrades = len(returns)
	res.WinningTrades = len(wins)
	res.LosingTrades = len(losses)
	if res.TotalTrades == 0 {
		return res
	}
	res.HitRate = float64(res.WinningTrades) / float64(res.TotalTrades)
	res.AverageReturn = features.Mean(returns)
	res.TotalReturn = equity - 1
	vol := features.StdDev(returns)
	if vol > 0 {
		res.SharpeRatio = res.AverageReturn / vol
	}

	res.RiskMetrics["volatility"] = vol
	res.RiskMetrics["win_rate"] = res.HitRate
	res.RiskMetrics["avg_win"] = features.Mean(wins)
	res.RiskMetrics["avg_loss"] = features.Mean(losses)
	res.RiskMetrics["profit_factor"] = profitFactor(returns)
	return res
}

func firstContaining(bs []models.OptimalBoundary, v float64) int {
	for i, b := range bs {
		if b.Contains(v) {
			return i
		}
	}
	return -1
}

// profitFactor is gross gain over gross loss, 0 when nothing was lost.
func profitFactor(returns []float64) float64 {
	var gain, loss float64
	for _, r := range returns {
		if r > 0 {
			gain += r
		} else {
			loss -= r
		}
	}
	if loss == 0 {
		return 0
	}
	return gain / loss
}
