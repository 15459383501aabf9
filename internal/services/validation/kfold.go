package validation

import (
	"context"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
)

// KFold splits the data, in the order given, into KFolds contiguous blocks and validates
// on each block after training on the rest. The last block absorbs the remainder.
type KFold struct {
	runner
}

var _ domsvc.ValidationStrategy = (*KFold)(nil)

func NewKFold(cfg models.ValidationConfig) (*KFold, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &KFold{runner: runner{
		name:  string(models.ValidationKFold),
		vtype: models.ValidationKFold,
		cfg:   cfg,
	}}, nil
}

func (s *KFold) Name() string                { return s.name }
func (s *KFold) Type() models.ValidationType { return s.vtype }

func (s *KFold) RequiredMinimum() int {
	return maxInt(s.cfg.MinimumSamples, 2*s.cfg.KFolds)
}

func (s *KFold) plan(n int) []fold {
	k := s.cfg.KFolds
	size := n / k
	if size < 1 {
		return nil
	}
	out := make([]fold, 0, k)
	for i := 0; i < k; i++ {
		lo, hi := i*size, (i+1)*size
		if i == k-1 {
			hi = n
		}
		train := append(indexRange(0, lo), indexRange(hi, n)...)
		out = append(out, fold{train: train, test: indexRange(lo, hi)})
	}
	return out
}

func (s *KFold) Validate(ctx context.Context, data []models.PriceMovement, method domsvc.OptimizationMethod) (models.TimeSeriesCrossValidationResult, error) {
	if need := s.RequiredMinimum(); len(data) < need {
		return models.TimeSeriesCrossValidationResult{}, errs.InsufficientData(s.name, need, len(data))
	}
	cv, err := s.run(ctx, data, s.plan(len(data)), method)
	if err != nil {
		return models.TimeSeriesCrossValidationResult{CrossValidationResult: cv}, err
	}
	return models.TimeSeriesCrossValidationResult{
		CrossValidationResult: cv,
		IsStationary:          cv.StdDevScore < 0.2,
	}, nil
}
