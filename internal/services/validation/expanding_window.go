package validation

import (
	"context"
	"math"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
	"BoundaryLab/internal/services/features"
)

// ExpandingWindow trains on a prefix that grows by StepSize each fold and validates on
// the slice right after it.
type ExpandingWindow struct {
	runner
}

var _ domsvc.ValidationStrategy = (*ExpandingWindow)(nil)

func NewExpandingWindow(cfg models.ValidationConfig) (*ExpandingWindow, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &ExpandingWindow{runner: runner{
		name:  string(models.ValidationExpandingWindow),
		vtype: models.ValidationExpandingWindow,
		cfg:   cfg,
	}}, nil
}

func (s *ExpandingWindow) Name() string                { return s.name }
func (s *ExpandingWindow) Type() models.ValidationType { return s.vtype }

// RequiredMinimum is the larger of MinimumSamples and the count giving two rows per step.
func (s *ExpandingWindow) RequiredMinimum() int {
	return maxInt(s.cfg.MinimumSamples, int(math.Ceil(2/s.cfg.StepSize)))
}

func (s *ExpandingWindow) plan(n int) []fold {
	base, step := rowsOf(n, s.cfg.MinimumTrainWindowSize), rowsOf(n, s.cfg.StepSize)
	if base < 1 || step < 1 {
		return nil
	}
	var out []fold
	for i := 0; ; i++ {
		trainEnd := base + i*step
		testEnd := trainEnd + step
		if testEnd > n {
			break
		}
		out = append(out, fold{train: indexRange(0, trainEnd), test: indexRange(trainEnd, testEnd)})
	}
	return out
}

func (s *ExpandingWindow) Validate(ctx context.Context, data []models.PriceMovement, method domsvc.OptimizationMethod) (models.TimeSeriesCrossValidationResult, error) {
	if need := s.RequiredMinimum(); len(data) < need {
		return models.TimeSeriesCrossValidationResult{}, errs.InsufficientData(s.name, need, len(data))
	}
	rows := features.SortByTime(data)
	cv, err := s.run(ctx, rows, s.plan(len(rows)), method)
	if err != nil {
		return models.TimeSeriesCrossValidationResult{CrossValidationResult: cv}, err
	}

	degradation := math.Max(0, -features.Slope(cv.FoldScores))
	return models.TimeSeriesCrossValidationResult{
		CrossValidationResult: cv,
		IsStationary:          cv.StdDevScore < 0.2 && degradation < 0.3,
		TemporalDegradation:   degradation,
		OptimalLookbackWindow: bestLookback(cv.Folds),
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
