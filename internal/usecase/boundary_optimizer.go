package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domrepo "BoundaryLab/internal/domain/repository"
	domsvc "BoundaryLab/internal/domain/service"
	"BoundaryLab/internal/services/features"
	"BoundaryLab/internal/services/optimization"
	applogger "BoundaryLab/pkg/logger"
	"BoundaryLab/pkg/validate"
)

// BoundaryFinder produces merged boundaries for a target move.
type BoundaryFinder interface {
	Optimize(ctx context.Context, movements []models.PriceMovement, targetATR float64) (*models.OptimizationOutcome, error)
	Config() models.MLOptimizationConfig
}

// BoundaryOptimizer runs the enabled strategies and merges their boundaries.
type BoundaryOptimizer struct {
	cfg        models.MLOptimizationConfig
	strategies []domsvc.OptimizationStrategy
	metrics    domrepo.Metrics
	log        *applogger.Logger
}

var _ BoundaryFinder = (*BoundaryOptimizer)(nil)

type OptimizerOption func(*BoundaryOptimizer)

func WithOptimizerMetrics(m domrepo.Metrics) OptimizerOption {
	return func(o *BoundaryOptimizer) { o.metrics = m }
}

func WithOptimizerLogger(l *applogger.Logger) OptimizerOption {
	return func(o *BoundaryOptimizer) { o.log = l }
}

// WithStrategies replaces the config-selected strategies.
func WithStrategies(s ...domsvc.OptimizationStrategy) OptimizerOption {
	return func(o *BoundaryOptimizer) { o.strategies = s }
}

func NewBoundaryOptimizer(cfg models.MLOptimizationConfig, opts ...OptimizerOption) (*BoundaryOptimizer, error) {
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}
	o := &BoundaryOptimizer{
		cfg:        cfg,
		strategies: optimization.Enabled(cfg),
		log:        applogger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.strategies) == 0 {
		return nil, errs.InvalidConfiguration("strategies", "no optimization strategy enabled").
			WithHint("enable at least one of decision tree, clustering or gradient search")
	}
	return o, nil
}

func (o *BoundaryOptimizer) Config() models.MLOptimizationConfig { return o.cfg }

// Optimize runs every strategy on its own goroutine and merges the results in run order.
// Overlaps are resolved in favour of the higher hit rate and at most MaxRanges
// boundaries are kept.
func (o *BoundaryOptimizer) Optimize(ctx context.Context, movements []models.PriceMovement, targetATR float64) (*models.OptimizationOutcome, error) {
	if targetATR <= 0 {
		return nil, errs.InvalidConfigurationf("target_atr_move", "target must be positive, got %g", targetATR)
	}
	if len(movements) < o.cfg.MinimumSamples {
		return nil, errs.InsufficientData("optimize", o.cfg.MinimumSamples, len(movements))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := o.cfg.WithTarget(targetATR)

	type item struct {
		idx int
		res models.OptimizationResult
		err error
	}
	ch := make(chan item, len(o.strategies))
	var wg sync.WaitGroup
	for i, s := range o.strategies {
		wg.Add(1)
		go func(i int, s domsvc.OptimizationStrategy) {
			defer wg.Done()
			start := time.Now()
			res, err := runStrategy(s, movements, cfg)
			if o.metrics != nil && err == nil {
				o.metrics.RecordStrategyRun(s.Name(), time.Since(start).Seconds(), len(res.Boundaries), res.Abstained())
			}
			ch <- item{i, res, err}
		}(i, s)
	}
	go func() { wg.Wait(); close(ch) }()

	results := make([]models.OptimizationResult, len(o.strategies))
	errByIdx := make([]error, len(o.strategies))
	for it := range ch {
		results[it.idx] = it.res
		errByIdx[it.idx] = it.err
	}

	out := &models.OptimizationOutcome{
		TargetATRMove:   targetATR,
		SampleCount:     len(movements),
		StrategyResults: make([]models.OptimizationResult, 0, len(results)),
	}
	var all []models.OptimalBoundary
	var rejections []string
	var failures []string
	for i, s := range o.strategies {
		if err := errByIdx[i]; err != nil {
			// parameter errors are structural
			if errors.Is(err, errs.ErrInvalidConfiguration) {
				return nil, fmt.Errorf("%s: %w", s.Name(), err)
			}
			o.log.Error("strategy failed",
				applogger.String("method", s.Name()),
				applogger.Float64("target_atr", targetATR),
				applogger.Error(err))
			if o.metrics != nil {
				o.metrics.RecordError(string(errs.KindOf(err)))
			}
			out.StrategyResults = append(out.StrategyResults, models.OptimizationResult{
				Method:     s.Method(),
				Boundaries: []models.OptimalBoundary{},
				Errors:     []string{err.Error()},
			})
			failures = append(failures, fmt.Sprintf("%s: %s", s.Name(), err))
			continue
		}
		res := results[i]
		out.StrategyResults = append(out.StrategyResults, res)
		all = append(all, res.Boundaries...)
		if res.Abstained() {
			o.log.Warn("strategy abstained",
				applogger.String("method", s.Name()),
				applogger.Strings("errors", res.Errors),
				applogger.Float64("target_atr", targetATR))
			for _, e := range res.Errors {
				rejections = append(rejections, fmt.Sprintf("%s: %s", s.Name(), e))
			}
		}
		for _, w := range res.Warnings {
			out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("%s: %s", s.Name(), w))
		}
	}

	if len(failures) == len(o.strategies) {
		return nil, errs.ConvergenceFailure("optimize", 0, failures, fmt.Errorf("every strategy failed")).
			WithHint("check the input for non-finite values or tune the strategy parameters")
	}
	out.Diagnostics = append(out.Diagnostics, failures...)

	if len(all) == 0 && len(rejections) > 0 && len(failures) == 0 && everyRejected(out.StrategyResults) {
		positives := features.CountPositive(movements, targetATR)
		return nil, errs.InsufficientData("optimize", 1, positives).
			WithParam("rejections", rejections).
			WithHint("lower the target ATR move or supply data with more variation")
	}
	out.Diagnostics = append(out.Diagnostics, rejections...)

	out.Boundaries = selectBoundaries(all, o.cfg.MaxRanges)
	out.Score = features.EvaluateBoundaries(out.Boundaries, movements, targetATR)

	o.log.Debug("optimization finished",
		applogger.Int("samples", len(movements)),
		applogger.Int("candidates", len(all)),
		applogger.Int("boundaries", len(out.Boundaries)),
		applogger.Float64("score", out.Score))
	return out, nil
}

// runStrategy converts a panicking strategy into a convergence failure.
func runStrategy(s domsvc.OptimizationStrategy, movements []models.PriceMovement, cfg models.MLOptimizationConfig) (res models.OptimizationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = models.OptimizationResult{Method: s.Method()}
			err = errs.ConvergenceFailure(s.Name(), 0, nil, fmt.Errorf("panic: %v", r))
		}
	}()
	return s.Optimize(movements, cfg)
}

func everyRejected(rs []models.OptimizationResult) bool {
	for _, r := range rs {
		if len(r.Errors) == 0 {
			return false
		}
	}
	return true
}

// selectBoundaries removes overlaps, keeps the top max by hit rate and returns them
// ordered by RangeLow.
func selectBoundaries(all []models.OptimalBoundary, max int) []models.OptimalBoundary {
	merged := features.RemoveOverlaps(all)
	if len(merged) > max {
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].HitRate > merged[j].HitRate })
		merged = merged[:max]
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].RangeLow < merged[j].RangeLow })
	if merged == nil {
		merged = []models.OptimalBoundary{}
	}
	return merged
}

// methodAdapter exposes a BoundaryFinder to validation strategies for one target.
type methodAdapter struct {
	finder BoundaryFinder
	target float64
}

var _ domsvc.OptimizationMethod = (*methodAdapter)(nil)

// NewOptimizationMethod adapts finder for a validation strategy. Folds whose training
// slice is too small or fully rejected surface as errors, which the strategy records
// as fold diagnostics.
func NewOptimizationMethod(finder BoundaryFinder, targetATR float64) domsvc.OptimizationMethod {
	return &methodAdapter{finder: finder, target: targetATR}
}

func (m *methodAdapter) Name() string { return "boundary_optimizer" }

// Target is the ATR move the adapter optimizes for.
func (m *methodAdapter) Target() float64 { return m.target }

func (m *methodAdapter) Train(ctx context.Context, training []models.PriceMovement) ([]models.OptimalBoundary, error) {
	out, err := m.finder.Optimize(ctx, training, m.target)
	if err != nil {
		return nil, err
	}
	return out.Boundaries, nil
}

func (m *methodAdapter) Evaluate(boundaries []models.OptimalBoundary, data []models.PriceMovement) float64 {
	return features.EvaluateBoundaries(boundaries, data, m.target)
}
