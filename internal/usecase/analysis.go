package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domrepo "BoundaryLab/internal/domain/repository"
	"BoundaryLab/internal/services/features"
	applogger "BoundaryLab/pkg/logger"
)

// AnalysisUseCase loads movements, discovers boundaries on the in-sample part, checks
// them on a chronological holdout, cross-validates and runs walk-forward analysis.
type AnalysisUseCase struct {
	store     domrepo.MovementStore
	filter    domrepo.OutlierFilter
	publisher domrepo.ResultPublisher
	finder    BoundaryFinder
	cv        *CrossValidationService
	bt        *BacktestService
	holdout   float64
	timeout   time.Duration
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

type AnalysisOption func(*AnalysisUseCase)

func WithPublisher(p domrepo.ResultPublisher) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.publisher = p }
}

func WithOutlierFilter(f domrepo.OutlierFilter) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.filter = f }
}

func WithAnalysisTimeout(d time.Duration) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.timeout = d }
}

func WithAnalysisMetrics(m domrepo.Metrics) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.metrics = m }
}

func WithAnalysisLogger(l *applogger.Logger) AnalysisOption {
	return func(uc *AnalysisUseCase) { uc.log = l }
}

// NewAnalysisUseCase wires the stages. holdoutFraction is the share of the newest rows
// kept out of optimization and cross-validation; 0 disables the holdout.
func NewAnalysisUseCase(store domrepo.MovementStore, finder BoundaryFinder, cv *CrossValidationService, bt *BacktestService, holdoutFraction float64, opts ...AnalysisOption) *AnalysisUseCase {
	uc := &AnalysisUseCase{
		store:   store,
		finder:  finder,
		cv:      cv,
		bt:      bt,
		holdout: holdoutFraction,
		timeout: 2 * time.Minute,
		log:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type AnalyzeParams struct {
	Symbol     string
	From       time.Time
	To         time.Time
	Limit      int
	TargetATR  float64
	Validation models.ValidationType
	Windows    int
}

// Load queries the store and drops outliers.
func (uc *AnalysisUseCase) Load(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceMovement, int, error) {
	if uc.store == nil {
		return nil, 0, fmt.Errorf("movement store not configured")
	}
	rows, err := uc.store.Query(ctx, symbol, from, to, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query movements: %w", err)
	}
	if uc.filter == nil {
		return rows, 0, nil
	}
	kept, dropped, err := uc.filter.Filter(ctx, rows)
	if err != nil {
		// the filter is advisory
		uc.log.Warn("outlier filter failed, using unfiltered data", applogger.String("symbol", symbol), applogger.Error(err))
		return rows, 0, nil
	}
	return kept, dropped, nil
}

// Analyze loads the movements for p and runs AnalyzeMovements.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisReport, error) {
	if p.Symbol == "" {
		return nil, errs.InvalidConfiguration("symbol", "symbol required")
	}
	rows, dropped, err := uc.Load(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, err
	}
	report, err := uc.AnalyzeMovements(ctx, p, rows)
	if err != nil {
		return nil, err
	}
	report.OutliersDropped = dropped
	return report, nil
}

// AnalyzeMovements runs every stage on already loaded movements. Stage failures are
// recorded in the report's Errors; only structural problems are returned.
func (uc *AnalysisUseCase) AnalyzeMovements(ctx context.Context, p AnalyzeParams, movements []models.PriceMovement) (*models.AnalysisReport, error) {
	if p.TargetATR <= 0 {
		p.TargetATR = uc.finder.Config().TargetATRMove
	}
	if p.Validation == "" {
		p.Validation = models.ValidationExpandingWindow
	}
	if p.Windows <= 0 {
		p.Windows = 5
	}
	if need := uc.finder.Config().MinimumSamples; len(movements) < need {
		return nil, errs.InsufficientData("analysis", need, len(movements))
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	sorted := features.SortByTime(movements)
	inSample, holdout := splitHoldout(sorted, uc.holdout)

	report := &models.AnalysisReport{
		ID:            uuid.NewString(),
		Symbol:        p.Symbol,
		Timestamp:     time.Now(),
		TargetATRMove: p.TargetATR,
		SampleCount:   len(sorted),
		Errors:        map[string]string{},
	}
	report.InSamplePeriod, _ = features.Span(inSample)
	if hp, ok := features.Span(holdout); ok {
		report.HoldoutPeriod = &hp
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup
	stage := func(name string, fn func() (interface{}, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					ch <- item{name, nil, errs.ConvergenceFailure(name, 0, nil, fmt.Errorf("panic: %v", r))}
				}
			}()
			v, err := fn()
			ch <- item{name, v, err}
		}()
	}

	stage("optimization", func() (interface{}, error) {
		return uc.finder.Optimize(ctx, inSample, p.TargetATR)
	})
	stage("cross_validation", func() (interface{}, error) {
		return uc.cv.Validate(ctx, inSample, p.Validation, p.TargetATR)
	})
	stage("walk_forward", func() (interface{}, error) {
		return uc.bt.RunWalkForwardAnalysis(ctx, sorted, p.Windows, p.TargetATR)
	})

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			report.Errors[it.name] = it.err.Error()
			if uc.metrics != nil {
				uc.metrics.RecordError(string(errs.KindOf(it.err)))
			}
			uc.log.Warn("analysis stage failed", applogger.String("stage", it.name), applogger.String("symbol", p.Symbol), applogger.Error(it.err))
			continue
		}
		switch it.name {
		case "optimization":
			report.Optimization = it.val.(*models.OptimizationOutcome)
		case "cross_validation":
			report.CrossValidation = it.val.(*models.CrossValidationReport)
		case "walk_forward":
			report.WalkForward = it.val.(*models.WalkForwardResults)
		}
	}

	if report.Optimization != nil && len(holdout) > 0 {
		bt := uc.bt.BacktestBoundaries(report.Optimization.Boundaries, holdout, p.TargetATR)
		report.Holdout = &bt
	}

	uc.publish(ctx, report)
	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	if uc.metrics != nil {
		uc.metrics.RecordLatency("analysis", time.Since(start).Seconds())
	}
	uc.log.Info("analysis finished",
		applogger.String("id", report.ID),
		applogger.String("symbol", p.Symbol),
		applogger.Int("samples", report.SampleCount),
		applogger.Int("failed_stages", len(report.Errors)),
		applogger.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (uc *AnalysisUseCase) publish(ctx context.Context, report *models.AnalysisReport) {
	if uc.publisher == nil {
		return
	}
	ev := NewAnalysisEvent(report)
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		report.Errors["publish"] = err.Error()
		uc.log.Error("publish analysis event failed", applogger.String("id", ev.ID), applogger.Error(err))
		return
	}
	if uc.metrics != nil {
		uc.metrics.RecordPublished("kafka")
	}
}

// NewAnalysisEvent summarizes a report for downstream consumers.
func NewAnalysisEvent(r *models.AnalysisReport) *models.AnalysisEvent {
	ev := &models.AnalysisEvent{
		ID:            r.ID,
		Symbol:        r.Symbol,
		Timestamp:     r.Timestamp,
		TargetATRMove: r.TargetATRMove,
	}
	if r.Optimization != nil {
		ev.Boundaries = len(r.Optimization.Boundaries)
		ev.Score = r.Optimization.Score
	}
	if r.Holdout != nil {
		ev.HoldoutHitRate = r.Holdout.HitRate
	}
	if r.CrossValidation != nil {
		ev.ValidationMean = r.CrossValidation.MeanScore
		ev.IsOverfitting = r.CrossValidation.IsOverfitting
	}
	if r.WalkForward != nil {
		ev.IsStable = r.WalkForward.IsStable
	}
	for name := range r.Errors {
		ev.FailedStages = append(ev.FailedStages, name)
	}
	sort.Strings(ev.FailedStages)
	return ev
}

// BacktestParams selects stored movements to trade given boundaries against.
type BacktestParams struct {
	Symbol     string
	From       time.Time
	To         time.Time
	Limit      int
	TargetATR  float64
	Boundaries []models.OptimalBoundary
}

// Backtest trades caller-supplied boundaries over stored movements.
func (uc *AnalysisUseCase) Backtest(ctx context.Context, p BacktestParams) (*models.BacktestResult, error) {
	for i, b := range p.Boundaries {
		if !(b.RangeLow < b.RangeHigh) {
			return nil, errs.InvalidConfigurationf("boundaries", "boundary %d: range_low %g must be below range_high %g", i, b.RangeLow, b.RangeHigh)
		}
	}
	rows, _, err := uc.Load(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, err
	}
	res := uc.bt.BacktestBoundaries(p.Boundaries, rows, p.TargetATR)
	return &res, nil
}

// Windows exposes walk-forward window construction.
func (uc *AnalysisUseCase) Windows(period models.Period, count int) ([]models.WalkForwardWindow, error) {
	return uc.bt.CreateWalkForwardWindows(period, count)
}

// splitHoldout keeps the newest ⌊n·fraction⌋ rows apart. sorted must be time ordered.
func splitHoldout(sorted []models.PriceMovement, fraction float64) (in, holdout []models.PriceMovement) {
	if fraction <= 0 {
		return sorted, nil
	}
	n := int(math.Floor(float64(len(sorted)) * fraction))
	if n <= 0 {
		return sorted, nil
	}
	cut := len(sorted) - n
	return sorted[:cut], sorted[cut:]
}
