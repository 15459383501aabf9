package validation

import (
	"context"
	"math"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
	"BoundaryLab/internal/services/features"
)

// RollingWindow slides a fixed-size training window by StepSize and validates on the
// slice that follows it.
type RollingWindow struct {
	runner
}

var _ domsvc.ValidationStrategy = (*RollingWindow)(nil)

func NewRollingWindow(cfg models.ValidationConfig) (*RollingWindow, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &RollingWindow{runner: runner{
		name:  string(models.ValidationRollingWindow),
		vtype: models.ValidationRollingWindow,
		cfg:   cfg,
	}}, nil
}

func (s *RollingWindow) Name() string                { return s.name }
func (s *RollingWindow) Type() models.ValidationType { return s.vtype }

func (s *RollingWindow) RequiredMinimum() int {
	return maxInt(s.cfg.MinimumSamples, int(math.Ceil(2/s.cfg.StepSize)))
}

func (s *RollingWindow) plan(n int) []fold {
	window, step := rowsOf(n, s.cfg.MinimumTrainWindowSize), rowsOf(n, s.cfg.StepSize)
	if window < 1 || step < 1 {
		return nil
	}
	var out []fold
	for start := 0; start+window+step <= n; start += step {
		trainEnd := start + window
		out = append(out, fold{train: indexRange(start, trainEnd), test: indexRange(trainEnd, trainEnd+step)})
	}
	return out
}

func (s *RollingWindow) Validate(ctx context.Context, data []models.PriceMovement, method domsvc.OptimizationMethod) (models.TimeSeriesCrossValidationResult, error) {
	if need := s.RequiredMinimum(); len(data) < need {
		return models.TimeSeriesCrossValidationResult{}, errs.InsufficientData(s.name, need, len(data))
	}
	rows := features.SortByTime(data)
	cv, err := s.run(ctx, rows, s.plan(len(rows)), method)
	if err != nil {
		return models.TimeSeriesCrossValidationResult{CrossValidationResult: cv}, err
	}

	// Rolling windows should be stationary, so spread rather than trend is the signal.
	degradation := math.Sqrt(features.Variance(cv.FoldScores))
	return models.TimeSeriesCrossValidationResult{
		CrossValidationResult: cv,
		IsStationary:          cv.StdDevScore < 0.25 && degradation < 0.2,
		TemporalDegradation:   degradation,
		OptimalLookbackWindow: bestLookback(cv.Folds),
	}, nil
}
