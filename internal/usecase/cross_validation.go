package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domrepo "BoundaryLab/internal/domain/repository"
	domsvc "BoundaryLab/internal/domain/service"
	"BoundaryLab/internal/services/features"
	"BoundaryLab/internal/services/validation"
	applogger "BoundaryLab/pkg/logger"
)

// CrossValidationService runs a validation strategy over the optimizer and adds
// bias/variance, stability and data-quality diagnostics.
type CrossValidationService struct {
	finder  BoundaryFinder
	cfg     models.ValidationConfig
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewCrossValidationService(finder BoundaryFinder, cfg models.ValidationConfig, metrics domrepo.Metrics, log *applogger.Logger) *CrossValidationService {
	if log == nil {
		log = applogger.Nop()
	}
	return &CrossValidationService{finder: finder, cfg: cfg, metrics: metrics, log: log}
}

// Validate builds the strategy for vtype and validates the optimizer at targetATR.
func (s *CrossValidationService) Validate(ctx context.Context, data []models.PriceMovement, vtype models.ValidationType, targetATR float64) (*models.CrossValidationReport, error) {
	strategy, err := validation.Create(vtype, s.cfg)
	if err != nil {
		return nil, err
	}
	return s.ValidateWith(ctx, data, strategy, NewOptimizationMethod(s.finder, targetATR))
}

// ValidateWith runs an explicit strategy and method.
func (s *CrossValidationService) ValidateWith(ctx context.Context, data []models.PriceMovement, strategy domsvc.ValidationStrategy, method domsvc.OptimizationMethod) (*models.CrossValidationReport, error) {
	start := time.Now()
	res, err := s.run(ctx, data, strategy, method)
	if s.metrics != nil {
		s.metrics.RecordLatency("cross_validation", time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError(string(errs.KindOf(err)))
		}
		s.log.Error("cross validation failed",
			applogger.String("strategy", strategy.Name()),
			applogger.Int("samples", len(data)),
			applogger.Error(err))
		return nil, err
	}
	if s.metrics != nil {
		for range res.Folds {
			s.metrics.RecordFold(strategy.Name(), true)
		}
		for range res.Diagnostics {
			s.metrics.RecordFold(strategy.Name(), false)
		}
	}

	report := &models.CrossValidationReport{
		TimeSeriesCrossValidationResult: res,
		Method:                          method.Name(),
		BiasVariance:                    biasVariance(res.Folds),
		StabilityScore:                  stabilityScore(res.MeanScore, res.StdDevScore),
		DataQuality:                     dataQuality(data, method),
	}
	s.log.Info("cross validation finished",
		applogger.String("strategy", strategy.Name()),
		applogger.Int("folds", len(res.Folds)),
		applogger.Float64("mean_score", res.MeanScore),
		applogger.Bool("overfitting", res.IsOverfitting),
		applogger.Bool("stationary", res.IsStationary))
	return report, nil
}

// run converts panics and non-domain errors into convergence failures.
func (s *CrossValidationService) run(ctx context.Context, data []models.PriceMovement, strategy domsvc.ValidationStrategy, method domsvc.OptimizationMethod) (res models.TimeSeriesCrossValidationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.ConvergenceFailure(strategy.Name(), 0, nil, fmt.Errorf("panic: %v", r))
		}
	}()
	res, err = strategy.Validate(ctx, data, method)
	if err != nil && !errs.IsDomain(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		err = errs.ConvergenceFailure(strategy.Name(), 0, nil, err)
	}
	return res, err
}

func biasVariance(folds []models.CrossValidationFold) models.BiasVariance {
	train := make([]float64, len(folds))
	val := make([]float64, len(folds))
	for i, f := range folds {
		train[i] = f.TrainingScore
		val[i] = f.ValidationScore
	}
	bv := models.BiasVariance{
		TrainMean:        features.Mean(train),
		TrainStdDev:      features.StdDev(train),
		ValidationMean:   features.Mean(val),
		ValidationStdDev: features.StdDev(val),
	}
	bv.Gap = bv.TrainMean - bv.ValidationMean
	if bv.TrainMean != 0 {
		bv.OverfittingRisk = math.Max(0, bv.Gap/bv.TrainMean)
	}
	return bv
}

func stabilityScore(mean, std float64) float64 {
	if mean == 0 {
		return 0
	}
	return features.Clamp(1-std/math.Abs(mean), 0, 1)
}

// targeted is implemented by methods bound to a target move.
type targeted interface{ Target() float64 }

func dataQuality(data []models.PriceMovement, method domsvc.OptimizationMethod) models.DataQuality {
	q := models.DataQuality{Count: len(data)}
	if len(data) == 0 {
		return q
	}
	q.DistinctValues = features.DistinctMeasurements(data)
	q.SparsityRatio = 1 - float64(q.DistinctValues)/float64(q.Count)
	if t, ok := method.(targeted); ok {
		q.PositiveRatio = float64(features.CountPositive(data, t.Target())) / float64(q.Count)
	}
	return q
}
