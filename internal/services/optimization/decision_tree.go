package optimization

import (
	"math"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	domsvc "BoundaryLab/internal/domain/service"
	"BoundaryLab/internal/services/features"
)

// DecisionTreeStrategy labels rows by whether they reach the target move, fits a
// single-feature split tree and turns its leaves into boundaries.
type DecisionTreeStrategy struct {
	base
}

var _ domsvc.OptimizationStrategy = (*DecisionTreeStrategy)(nil)

func NewDecisionTreeStrategy() *DecisionTreeStrategy {
	return &DecisionTreeStrategy{base: base{method: models.MethodDecisionTree}}
}

func (s *DecisionTreeStrategy) params(cfg models.MLOptimizationConfig) (treeParams, error) {
	p := treeParams{
		maxDepth:       int(cfg.Param("max_depth", 3)),
		minSampleSplit: int(cfg.Param("min_samples_split", float64(2*cfg.MinimumSamplesPerLeaf))),
		minSampleLeaf:  int(cfg.Param("min_samples_leaf", 1)),
	}
	if p.maxDepth < 1 || p.maxDepth > 16 {
		return p, errs.InvalidConfigurationf("max_depth", "must be in [1,16], got %d", p.maxDepth)
	}
	if p.minSampleSplit < 2 {
		return p, errs.InvalidConfigurationf("min_samples_split", "must be >= 2, got %d", p.minSampleSplit)
	}
	if p.minSampleLeaf < 1 {
		return p, errs.InvalidConfigurationf("min_samples_leaf", "must be >= 1, got %d", p.minSampleLeaf)
	}
	return p, nil
}

func (s *DecisionTreeStrategy) Optimize(training []models.PriceMovement, cfg models.MLOptimizationConfig) (models.OptimizationResult, error) {
	p, err := s.params(cfg)
	if err != nil {
		return models.OptimizationResult{}, err
	}
	res, ok := s.precheck(training, cfg)
	if !ok {
		return res, nil
	}

	target := cfg.TargetATRMove
	samples := make([]sample, len(training))
	for i, r := range training {
		samples[i] = sample{x: r.MeasurementValue, pos: math.Abs(r.ATRMovement) >= target}
	}
	tree := fitTree(samples, p)

	leaves := tree.leaves()
	out := make([]models.OptimalBoundary, 0, len(leaves))
	for _, leaf := range leaves {
		low, high := tree.span(leaf)
		if low >= high {
			continue
		}
		st := features.StatsInRange(training, low, high, target)
		if st.Count < cfg.MinimumSamplesPerLeaf || st.HitRate <= cfg.HitRateFloor() {
			continue
		}
		out = append(out, features.NewBoundary(low, high, st, s.method))
	}

	res = s.finish(res, out, training, target)
	res.Iterations = tree.splits
	res.Diagnostics = map[string]float64{
		"leaves": float64(len(leaves)),
		"splits": float64(tree.splits),
		"depth":  float64(tree.depth),
	}
	return res, nil
}
